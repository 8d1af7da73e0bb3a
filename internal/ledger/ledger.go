// Package ledger persists the run log of a merge as a replayable backup and
// replays it in reverse to undo the merge.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntoineGS/dirfusion/internal/clock"
	"github.com/AntoineGS/dirfusion/internal/fsutil"
)

// Backup file naming
const (
	filePrefix = "dirfusion_backup_"
	fileSuffix = ".yaml"
	nameLayout = "20060102_150405"
)

// Sentinel errors for ledger operations
var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrNoRun          = errors.New("no run started")
	ErrEmptyBackup    = errors.New("backup contains no operations")
	ErrInvalidID      = errors.New("invalid backup id")
	ErrNotBackup      = errors.New("not a backup file")
)

// EntryType identifies the kind of mutation a LogEntry undoes.
type EntryType string

// Entry types. Skips never reach the ledger because they mutate nothing.
const (
	EntryMove   EntryType = "move"
	EntryRename EntryType = "rename"
)

// LogEntry records one filesystem mutation performed by a merge.
type LogEntry struct {
	Timestamp   time.Time `yaml:"timestamp"`
	Type        EntryType `yaml:"type"`
	Source      string    `yaml:"source"`
	Destination string    `yaml:"destination"`
}

// Backup is the persisted run log of one merge.
type Backup struct {
	Timestamp   time.Time  `yaml:"timestamp"`
	ID          string     `yaml:"-"`
	Destination string     `yaml:"destination"`
	Sources     []string   `yaml:"sources"`
	Entries     []LogEntry `yaml:"entries"`
}

// Summary describes a persisted backup without its entries.
type Summary struct {
	Timestamp   time.Time
	ID          string
	Path        string
	Destination string
	Sources     []string
	Entries     int
}

// Recorder is the part of the ledger a merge writes to.
type Recorder interface {
	StartRun(destination string, sources []string)
	Record(entry LogEntry)
	Commit() (string, error)
}

// Ledger stores backups as YAML files in a directory, one file per run.
// The in-memory run log is owned by the single active merge.
type Ledger struct {
	clock   clock.Clock
	logger  *slog.Logger
	current *Backup
	dir     string
}

var _ Recorder = (*Ledger)(nil)

// New creates a Ledger rooted at dir, creating the directory when needed.
func New(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, fsutil.DirPerms); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	return &Ledger{
		clock:  clock.Real{},
		logger: slog.Default(),
		dir:    dir,
	}, nil
}

// WithClock sets the clock used for backup timestamps and names.
func (l *Ledger) WithClock(c clock.Clock) *Ledger {
	l.clock = c
	return l
}

// WithLogger sets a custom logger
func (l *Ledger) WithLogger(logger *slog.Logger) *Ledger {
	l.logger = logger
	return l
}

// Dir returns the directory backups are stored in.
func (l *Ledger) Dir() string {
	return l.dir
}

// StartRun opens a new empty run log. Any uncommitted log is discarded.
func (l *Ledger) StartRun(destination string, sources []string) {
	l.current = &Backup{
		Destination: destination,
		Sources:     append([]string(nil), sources...),
		Entries:     []LogEntry{},
	}

	l.logger.Debug("started run log",
		slog.String("destination", destination),
		slog.Int("sources", len(sources)))
}

// Record appends one entry to the open run log. Entries recorded without a
// run are dropped with a warning.
func (l *Ledger) Record(entry LogEntry) {
	if l.current == nil {
		l.logger.Warn("dropping log entry outside a run",
			slog.String("source", entry.Source),
			slog.String("destination", entry.Destination))
		return
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock.Now()
	}

	l.current.Entries = append(l.current.Entries, entry)
}

// Commit persists the open run log and closes it. An empty log produces no
// backup and returns an empty id.
func (l *Ledger) Commit() (string, error) {
	if l.current == nil {
		return "", ErrNoRun
	}

	run := l.current
	l.current = nil

	if len(run.Entries) == 0 {
		l.logger.Debug("no operations to back up")
		return "", nil
	}

	run.Timestamp = l.clock.Now()

	name := filePrefix + run.Timestamp.Format(nameLayout) + fileSuffix
	path := fsutil.NextFreeName(l.dir, name, fsutil.Exists)

	data, err := marshalYAML(run)
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}

	if err := os.WriteFile(path, data, fsutil.FilePerms); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", path, err)
	}

	id := idFromFile(filepath.Base(path))
	l.logger.Info("backup saved",
		slog.String("id", id),
		slog.String("path", path),
		slog.Int("entries", len(run.Entries)))

	return id, nil
}

// List returns all persisted backups, newest first. Unreadable files are
// logged and skipped.
func (l *Ledger) List() ([]Summary, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var summaries []Summary

	for _, de := range dirEntries {
		if de.IsDir() || !isBackupFile(de.Name()) {
			continue
		}

		id := idFromFile(de.Name())

		b, err := l.Load(id)
		if err != nil {
			l.logger.Warn("skipping unreadable backup",
				slog.String("file", de.Name()),
				slog.String("error", err.Error()))
			continue
		}

		summaries = append(summaries, Summary{
			Timestamp:   b.Timestamp,
			ID:          id,
			Path:        l.pathFor(id),
			Destination: b.Destination,
			Sources:     b.Sources,
			Entries:     len(b.Entries),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].Timestamp.Equal(summaries[j].Timestamp) {
			return summaries[i].Timestamp.After(summaries[j].Timestamp)
		}

		return newerID(summaries[i].ID, summaries[j].ID)
	})

	return summaries, nil
}

// Load reads a persisted backup.
func (l *Ledger) Load(id string) (*Backup, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	path := l.pathFor(id)

	data, err := os.ReadFile(path) //nolint:gosec // id validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrBackupNotFound)
		}

		return nil, fmt.Errorf("reading backup %s: %w", id, err)
	}

	var b Backup

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing backup %s: %w: %w", id, ErrNotBackup, err)
	}

	if b.Timestamp.IsZero() || b.Destination == "" {
		return nil, fmt.Errorf("parsing backup %s: %w: missing timestamp or destination", id, ErrNotBackup)
	}

	b.ID = id

	return &b, nil
}

// Delete removes a persisted backup permanently.
func (l *Ledger) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := os.Remove(l.pathFor(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrBackupNotFound)
		}

		return fmt.Errorf("deleting backup %s: %w", id, err)
	}

	l.logger.Info("backup deleted", slog.String("id", id))

	return nil
}

func (l *Ledger) pathFor(id string) string {
	return filepath.Join(l.dir, filePrefix+id+fileSuffix)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// newerID orders ids written in the same second: a higher "_n" collision
// suffix was written later.
func newerID(a, b string) bool {
	baseA, nA := splitIDSuffix(a)
	baseB, nB := splitIDSuffix(b)

	if baseA != baseB {
		return baseA > baseB
	}

	return nA > nB
}

// splitIDSuffix splits "20260502_143000_10" into its timestamp part and 10.
// An id without a collision suffix has n == 0.
func splitIDSuffix(id string) (base string, n int) {
	if len(id) <= len(nameLayout)+1 || id[len(nameLayout)] != '_' {
		return id, 0
	}

	n, err := strconv.Atoi(id[len(nameLayout)+1:])
	if err != nil {
		return id, 0
	}

	return id[:len(nameLayout)], n
}

func idFromFile(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
}

// validateID keeps ids to a single path element inside the backup directory.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}

	return nil
}

// marshalYAML encodes a value to YAML with 2-space indentation.
func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
