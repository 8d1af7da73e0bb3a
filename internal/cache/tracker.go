// Package cache relocates source folders that a merge left without files into a
// process-lifetime holding area, from which they can be restored, exported or
// deleted. The cache is not meant to survive the process: Shutdown removes it.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/AntoineGS/dirfusion/internal/clock"
	"github.com/AntoineGS/dirfusion/internal/fsutil"
)

// Sentinel errors for cache operations
var (
	ErrNotEmpty         = errors.New("folder still contains files")
	ErrNotDirectory     = errors.New("not a directory")
	ErrNotCached        = errors.New("folder is not cached")
	ErrOriginalOccupied = errors.New("target path exists and is not empty")
	ErrTrackerShutdown  = errors.New("cache has been shut down")
)

const (
	slotsDirName   = "cached_folders"
	tempRootPrefix = "dirfusion_"
)

// CachedFolder describes a source folder relocated into the cache.
type CachedFolder struct {
	Timestamp    time.Time
	OriginalPath string
	CachedPath   string
	DisplayName  string
}

// FolderCache is the set of operations the merge engine and the interactive
// views need from the empty-folder cache.
type FolderCache interface {
	IsEmptyOfFiles(path string) bool
	Cache(path string) (*CachedFolder, error)
	Restore(cachedPath string) error
	SaveAs(cachedPath, newPath string) error
	Delete(cachedPath string) error
	Get(cachedPath string) (CachedFolder, bool)
	List() []CachedFolder
	Shutdown() error
}

// Tracker is the filesystem-backed FolderCache. It has no internal locking;
// callers must serialise Cache, Restore, SaveAs and Delete.
type Tracker struct {
	clock      clock.Clock
	logger     *slog.Logger
	byOriginal map[string]*CachedFolder
	bySlot     map[string]*CachedFolder
	root       string
	slotsDir   string
	closed     bool
}

var _ FolderCache = (*Tracker)(nil)

// New creates a Tracker whose temporary root lives under baseDir (os.TempDir
// when empty).
func New(baseDir string) (*Tracker, error) {
	root, err := os.MkdirTemp(baseDir, tempRootPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}

	slots := filepath.Join(root, slotsDirName)
	if err := os.MkdirAll(slots, fsutil.DirPerms); err != nil {
		_ = os.RemoveAll(root) //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("creating cache slots directory: %w", err)
	}

	return &Tracker{
		clock:      clock.Real{},
		logger:     slog.Default(),
		byOriginal: make(map[string]*CachedFolder),
		bySlot:     make(map[string]*CachedFolder),
		root:       root,
		slotsDir:   slots,
	}, nil
}

// WithClock sets the clock used for slot names and timestamps.
func (t *Tracker) WithClock(c clock.Clock) *Tracker {
	t.clock = c
	return t
}

// WithLogger sets a custom logger
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	t.logger = logger
	return t
}

// Root returns the temporary directory holding every cache slot.
func (t *Tracker) Root() string {
	return t.root
}

// IsEmptyOfFiles reports whether path is an existing directory with no file
// anywhere beneath it. Nested empty directories still count as empty.
func (t *Tracker) IsEmptyOfFiles(path string) bool {
	return IsEmptyOfFiles(path)
}

// IsEmptyOfFiles is the stateless form of Tracker.IsEmptyOfFiles.
func IsEmptyOfFiles(path string) bool {
	if !fsutil.IsDir(path) {
		return false
	}

	hasFiles, err := fsutil.HasFiles(path)
	if err != nil {
		return false
	}

	return !hasFiles
}

// Cache moves the empty-of-files folder at path into a new cache slot named
// {basename}_{unixTimestamp}. Caching a path that is already cached returns the
// existing entry.
func (t *Tracker) Cache(path string) (*CachedFolder, error) {
	if t.closed {
		return nil, ErrTrackerShutdown
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	if existing, ok := t.byOriginal[absPath]; ok {
		cp := *existing
		return &cp, nil
	}

	if !fsutil.IsDir(absPath) {
		return nil, fmt.Errorf("caching %s: %w", absPath, ErrNotDirectory)
	}

	if !IsEmptyOfFiles(absPath) {
		return nil, fmt.Errorf("caching %s: %w", absPath, ErrNotEmpty)
	}

	now := t.clock.Now()
	name := filepath.Base(absPath)
	slotName := name + "_" + strconv.FormatInt(now.Unix(), 10)
	slot := fsutil.NextFreeDirName(t.slotsDir, slotName, fsutil.Exists)

	if err := fsutil.CopySkeleton(absPath, slot); err != nil {
		_ = os.RemoveAll(slot) //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("copying structure of %s: %w", absPath, err)
	}

	if err := os.RemoveAll(absPath); err != nil {
		_ = os.RemoveAll(slot) //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("removing original %s: %w", absPath, err)
	}

	entry := &CachedFolder{
		Timestamp:    now,
		OriginalPath: absPath,
		CachedPath:   slot,
		DisplayName:  name,
	}
	t.byOriginal[absPath] = entry
	t.bySlot[slot] = entry

	t.logger.Info("cached empty folder",
		slog.String("original", absPath),
		slog.String("cached", slot))

	cp := *entry
	return &cp, nil
}

// Restore recreates the cached directory structure at its original path and
// drops the cache slot. It fails with ErrOriginalOccupied when the original
// path has been reused by something that is not an empty-of-files directory.
func (t *Tracker) Restore(cachedPath string) error {
	entry, ok := t.bySlot[cachedPath]
	if !ok {
		return fmt.Errorf("restoring %s: %w", cachedPath, ErrNotCached)
	}

	if err := prepareTarget(entry.OriginalPath); err != nil {
		return fmt.Errorf("restoring %s: %w", entry.OriginalPath, err)
	}

	if err := fsutil.CopySkeleton(cachedPath, entry.OriginalPath); err != nil {
		return fmt.Errorf("restoring %s: %w", entry.OriginalPath, err)
	}

	if err := os.RemoveAll(cachedPath); err != nil {
		return fmt.Errorf("removing cache slot %s: %w", cachedPath, err)
	}

	delete(t.bySlot, cachedPath)
	delete(t.byOriginal, entry.OriginalPath)

	t.logger.Info("restored cached folder",
		slog.String("cached", cachedPath),
		slog.String("original", entry.OriginalPath))

	return nil
}

// SaveAs copies the cached structure to newPath. The cache entry is kept.
func (t *Tracker) SaveAs(cachedPath, newPath string) error {
	if _, ok := t.bySlot[cachedPath]; !ok {
		return fmt.Errorf("saving %s: %w", cachedPath, ErrNotCached)
	}

	if err := prepareTarget(newPath); err != nil {
		return fmt.Errorf("saving to %s: %w", newPath, err)
	}

	if err := fsutil.CopySkeleton(cachedPath, newPath); err != nil {
		return fmt.Errorf("saving to %s: %w", newPath, err)
	}

	t.logger.Info("saved cached folder",
		slog.String("cached", cachedPath),
		slog.String("to", newPath))

	return nil
}

// Delete permanently removes a cache slot and its mapping.
func (t *Tracker) Delete(cachedPath string) error {
	entry, ok := t.bySlot[cachedPath]
	if !ok {
		return fmt.Errorf("deleting %s: %w", cachedPath, ErrNotCached)
	}

	if err := fsutil.RemoveAll(cachedPath); err != nil {
		return fmt.Errorf("deleting cache slot %s: %w", cachedPath, err)
	}

	delete(t.bySlot, cachedPath)
	delete(t.byOriginal, entry.OriginalPath)

	t.logger.Info("deleted cached folder", slog.String("cached", cachedPath))

	return nil
}

// Get returns the entry for a cache slot.
func (t *Tracker) Get(cachedPath string) (CachedFolder, bool) {
	entry, ok := t.bySlot[cachedPath]
	if !ok {
		return CachedFolder{}, false
	}

	return *entry, true
}

// List returns all cached folders, oldest first.
func (t *Tracker) List() []CachedFolder {
	result := make([]CachedFolder, 0, len(t.bySlot))
	for _, entry := range t.bySlot {
		result = append(result, *entry)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}

		return result[i].CachedPath < result[j].CachedPath
	})

	return result
}

// Shutdown deletes every remaining slot and the temporary root. It is safe to
// call more than once.
func (t *Tracker) Shutdown() error {
	if t.closed {
		return nil
	}

	var errs []error

	for slot := range t.bySlot {
		if err := fsutil.RemoveAll(slot); err != nil {
			errs = append(errs, fmt.Errorf("removing cache slot %s: %w", slot, err))
		}
	}

	clear(t.bySlot)
	clear(t.byOriginal)

	if err := fsutil.RemoveAll(t.root); err != nil {
		errs = append(errs, fmt.Errorf("removing cache root %s: %w", t.root, err))
	}

	t.closed = true
	t.logger.Debug("cache shut down", slog.String("root", t.root))

	return errors.Join(errs...)
}

// prepareTarget makes path ready to receive a directory skeleton: a missing
// path is fine, an empty-of-files directory is cleared, anything else is
// occupied.
func prepareTarget(path string) error {
	if !fsutil.Exists(path) {
		return os.MkdirAll(filepath.Dir(path), fsutil.DirPerms)
	}

	if !IsEmptyOfFiles(path) {
		return ErrOriginalOccupied
	}

	return os.RemoveAll(path)
}
