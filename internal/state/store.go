// Package state manages merge run history in a SQLite database.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Run outcomes as stored in the outcome column.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// RunRecord represents a single merge run stored in the database.
type RunRecord struct {
	StartedAt          time.Time
	FinishedAt         time.Time
	ID                 string
	Destination        string
	Outcome            string
	BackupID           string
	ErrorMessage       string
	PlatformOS         string
	PlatformHost       string
	Sources            []string
	FilesMoved         int
	FilesSkipped       int
	FilesRenamed       int
	DirectoriesCreated int
	Errors             int
	FoldersCached      int
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the SQLite database for merge run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close() //nolint:errcheck,gosec // best-effort cleanup on error path
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close() //nolint:errcheck,gosec // best-effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectRunColumns = `
	SELECT id, started_at, finished_at, destination, sources, outcome, backup_id, error_message,
		files_moved, files_skipped, files_renamed, directories_created, errors, folders_cached,
		platform_os, platform_host
	FROM merge_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var r RunRecord
	var startedAt, finishedAt, sources string

	err := row.Scan(&r.ID, &startedAt, &finishedAt, &r.Destination, &sources, &r.Outcome,
		&r.BackupID, &r.ErrorMessage, &r.FilesMoved, &r.FilesSkipped, &r.FilesRenamed,
		&r.DirectoriesCreated, &r.Errors, &r.FoldersCached, &r.PlatformOS, &r.PlatformHost)
	if err != nil {
		return nil, err
	}

	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}

	if r.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &r.Sources); err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}

	return &r, nil
}

// SaveRun stores a run record. A record without an ID gets a new UUID, which
// is written back into rec.
func (s *Store) SaveRun(rec *RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}

	ctx := context.Background()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merge_runs (id, started_at, finished_at, destination, sources, outcome,
			backup_id, error_message, files_moved, files_skipped, files_renamed,
			directories_created, errors, folders_cached, platform_os, platform_host)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, formatTime(rec.StartedAt), formatTime(rec.FinishedAt), rec.Destination,
		string(sources), rec.Outcome, rec.BackupID, rec.ErrorMessage, rec.FilesMoved,
		rec.FilesSkipped, rec.FilesRenamed, rec.DirectoriesCreated, rec.Errors,
		rec.FoldersCached, rec.PlatformOS, rec.PlatformHost)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	return nil
}

// GetRun returns a run by ID. Returns nil if no such run exists.
func (s *Store) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(context.Background(), selectRunColumns+` WHERE id = ?`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil means "not found", distinct from error
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	return r, nil
}

// ListRuns returns the N most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx, selectRunColumns+`
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	var records []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}

		records = append(records, *r)
	}

	return records, rows.Err()
}

// RunsForBackup returns the runs that produced the given backup.
func (s *Store) RunsForBackup(backupID string) ([]RunRecord, error) {
	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx, selectRunColumns+`
		WHERE backup_id = ?
		ORDER BY started_at DESC
	`, backupID)
	if err != nil {
		return nil, fmt.Errorf("querying runs for backup: %w", err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	var records []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run record: %w", err)
		}

		records = append(records, *r)
	}

	return records, rows.Err()
}

// ClearBackup detaches a deleted backup from the runs that reference it.
func (s *Store) ClearBackup(backupID string) error {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `
		UPDATE merge_runs SET backup_id = '' WHERE backup_id = ?
	`, backupID)
	if err != nil {
		return fmt.Errorf("clearing backup reference: %w", err)
	}

	return nil
}

// PruneHistory keeps only the N most recent runs, deleting older ones.
func (s *Store) PruneHistory(keepN int) error {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM merge_runs
		WHERE id NOT IN (
			SELECT id FROM merge_runs
			ORDER BY started_at DESC, rowid DESC
			LIMIT ?
		)
	`, keepN)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	return nil
}

// migrate runs schema migrations.
func (s *Store) migrate() error {
	currentVersion := s.getSchemaVersion()

	migrations := []func(*sql.Tx) error{
		migrateV1,
	}

	ctx := context.Background()
	for i := currentVersion; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}

		if err := migrations[i](tx); err != nil {
			_ = tx.Rollback() //nolint:errcheck,gosec // rollback best-effort on migration failure
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}

		// Update schema version
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			_ = tx.Rollback() //nolint:errcheck,gosec // rollback best-effort
			return fmt.Errorf("updating schema version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			_ = tx.Rollback() //nolint:errcheck,gosec // rollback best-effort
			return fmt.Errorf("inserting schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version, or 0 if the schema_version table doesn't exist.
func (s *Store) getSchemaVersion() int {
	ctx := context.Background()

	var tableName string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&tableName)
	if err != nil {
		return 0
	}

	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0
	}

	return version
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timestamp string from SQLite, trying multiple formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// migrateV1 creates the initial schema.
func migrateV1(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS merge_runs (
			id                  TEXT PRIMARY KEY,
			started_at          TEXT NOT NULL,
			finished_at         TEXT NOT NULL,
			destination         TEXT NOT NULL,
			sources             TEXT NOT NULL,
			outcome             TEXT NOT NULL,
			backup_id           TEXT NOT NULL DEFAULT '',
			error_message       TEXT NOT NULL DEFAULT '',
			files_moved         INTEGER NOT NULL DEFAULT 0,
			files_skipped       INTEGER NOT NULL DEFAULT 0,
			files_renamed       INTEGER NOT NULL DEFAULT 0,
			directories_created INTEGER NOT NULL DEFAULT 0,
			errors              INTEGER NOT NULL DEFAULT 0,
			folders_cached      INTEGER NOT NULL DEFAULT 0,
			platform_os         TEXT NOT NULL DEFAULT '',
			platform_host       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_runs_started
			ON merge_runs(started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_runs_backup
			ON merge_runs(backup_id)`,
	}

	ctx := context.Background()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	return nil
}
