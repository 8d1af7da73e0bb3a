package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".dirfusion.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() }) //nolint:errcheck // cleanup is best-effort
	return store
}

func sampleRun(offset time.Duration) *RunRecord {
	return &RunRecord{
		StartedAt:          baseTime.Add(offset),
		FinishedAt:         baseTime.Add(offset + 2*time.Second),
		Destination:        "/data/merged",
		Sources:            []string{"/data/a", "/data/b"},
		Outcome:            OutcomeCompleted,
		BackupID:           "20261019_153000",
		FilesMoved:         10,
		FilesSkipped:       2,
		FilesRenamed:       1,
		DirectoriesCreated: 3,
		FoldersCached:      1,
		PlatformOS:         "linux",
		PlatformHost:       "box",
	}
}

func TestOpen_CreatesDBAndSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", ".dirfusion.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }() //nolint:errcheck // cleanup is best-effort

	var version int
	ctx := context.Background()
	if err := store.db.QueryRowContext(ctx, `SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".dirfusion.db")

	store1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if err := store1.SaveRun(sampleRun(0)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	_ = store1.Close() //nolint:errcheck // cleanup is best-effort

	store2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer func() { _ = store2.Close() }() //nolint:errcheck // cleanup is best-effort

	runs, err := store2.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs after reopen, want 1", len(runs))
	}
}

func TestSaveAndGetRun(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRun(0)
	if err := store.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if rec.ID == "" {
		t.Fatal("SaveRun did not assign an ID")
	}

	got, err := store.GetRun(rec.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}

	if got.Destination != rec.Destination {
		t.Errorf("Destination = %q, want %q", got.Destination, rec.Destination)
	}
	if len(got.Sources) != 2 || got.Sources[1] != "/data/b" {
		t.Errorf("Sources = %v", got.Sources)
	}
	if got.FilesMoved != 10 || got.FilesRenamed != 1 || got.DirectoriesCreated != 3 {
		t.Errorf("counters = %+v", got)
	}
	if !got.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, rec.StartedAt)
	}
	if got.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", got.Duration())
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetRun("missing")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		rec := sampleRun(time.Duration(i) * time.Minute)
		rec.FilesMoved = i
		if err := store.SaveRun(rec); err != nil {
			t.Fatalf("SaveRun %d failed: %v", i, err)
		}
	}

	runs, err := store.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}

	for i, want := range []int{4, 3, 2} {
		if runs[i].FilesMoved != want {
			t.Errorf("runs[%d].FilesMoved = %d, want %d", i, runs[i].FilesMoved, want)
		}
	}

	all, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns(0) failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListRuns(0) returned %d runs, want 5", len(all))
	}
}

func TestListRuns_SubSecondOrdering(t *testing.T) {
	store := newTestStore(t)

	first := sampleRun(0)
	first.Outcome = OutcomeCancelled
	second := sampleRun(500 * time.Millisecond)

	for _, r := range []*RunRecord{second, first} {
		if err := store.SaveRun(r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}

	if runs[0].ID != second.ID {
		t.Errorf("newest run = %s, want %s", runs[0].ID, second.ID)
	}
}

func TestRunsForBackupAndClear(t *testing.T) {
	store := newTestStore(t)

	rec := sampleRun(0)
	other := sampleRun(time.Minute)
	other.BackupID = ""
	other.Outcome = OutcomeFailed
	other.ErrorMessage = "source not found"

	for _, r := range []*RunRecord{rec, other} {
		if err := store.SaveRun(r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.RunsForBackup(rec.BackupID)
	if err != nil {
		t.Fatalf("RunsForBackup failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != rec.ID {
		t.Fatalf("RunsForBackup = %+v", runs)
	}

	if err := store.ClearBackup(rec.BackupID); err != nil {
		t.Fatalf("ClearBackup failed: %v", err)
	}

	runs, err = store.RunsForBackup(rec.BackupID)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs after ClearBackup, want 0", len(runs))
	}
}

func TestPruneHistory(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 6; i++ {
		if err := store.SaveRun(sampleRun(time.Duration(i) * time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.PruneHistory(2); err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs after prune, want 2", len(runs))
	}
	if !runs[0].StartedAt.Equal(baseTime.Add(5 * time.Hour)) {
		t.Errorf("newest kept run started at %v", runs[0].StartedAt)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-10-19T15:30:00.000000000Z", baseTime},
		{"2026-10-19T15:30:00Z", baseTime},
		{"2026-10-19 15:30:00", baseTime},
	}

	for _, tt := range tests {
		got, err := parseTime(tt.input)
		if err != nil {
			t.Errorf("parseTime(%q) error = %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Error("parseTime(\"yesterday\") should fail")
	}
}
