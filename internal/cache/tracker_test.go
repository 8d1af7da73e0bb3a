package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AntoineGS/dirfusion/internal/clock"
	"github.com/AntoineGS/dirfusion/internal/fsutil"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()

	tracker, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = tracker.Shutdown() }) //nolint:errcheck // cleanup is best-effort

	return tracker.WithClock(clock.NewFake(testTime))
}

// makeSkeleton creates root with the given relative subdirectories.
func makeSkeleton(t *testing.T, root string, dirs ...string) {
	t.Helper()

	if err := os.MkdirAll(root, 0750); err != nil {
		t.Fatal(err)
	}

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0750); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIsEmptyOfFiles(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	folder := filepath.Join(tmpDir, "source")
	makeSkeleton(t, folder, "a/b", "c")

	if !IsEmptyOfFiles(folder) {
		t.Error("tree of empty directories should be empty of files")
	}

	if err := os.WriteFile(filepath.Join(folder, "a", "b", "x.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if IsEmptyOfFiles(folder) {
		t.Error("tree with a nested file should not be empty of files")
	}

	if IsEmptyOfFiles(filepath.Join(tmpDir, "missing")) {
		t.Error("missing path should not be empty of files")
	}
}

func TestCache_RelocatesSkeleton(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "Photos")
	makeSkeleton(t, folder, "2024/summer", "2025")

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatalf("Cache() error = %v", err)
	}

	if fsutil.Exists(folder) {
		t.Error("original folder still exists after caching")
	}

	wantName := "Photos_1773480413"
	if filepath.Base(entry.CachedPath) != wantName {
		t.Errorf("slot name = %q, want %q", filepath.Base(entry.CachedPath), wantName)
	}

	if entry.DisplayName != "Photos" {
		t.Errorf("DisplayName = %q, want %q", entry.DisplayName, "Photos")
	}

	for _, rel := range []string{"2024/summer", "2025"} {
		if !fsutil.IsDir(filepath.Join(entry.CachedPath, rel)) {
			t.Errorf("cached skeleton missing %s", rel)
		}
	}
}

func TestCache_Idempotent(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "empty")
	makeSkeleton(t, folder)

	first, err := tracker.Cache(folder)
	if err != nil {
		t.Fatalf("first Cache() error = %v", err)
	}

	second, err := tracker.Cache(folder)
	if err != nil {
		t.Fatalf("second Cache() error = %v", err)
	}

	if first.CachedPath != second.CachedPath {
		t.Errorf("re-caching produced a new slot: %q vs %q", first.CachedPath, second.CachedPath)
	}

	if got := len(tracker.List()); got != 1 {
		t.Errorf("List() length = %d, want 1", got)
	}
}

func TestCache_RejectsFolderWithFiles(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "full")
	makeSkeleton(t, folder, "sub")
	if err := os.WriteFile(filepath.Join(folder, "sub", "keep.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := tracker.Cache(folder)
	if !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("Cache() error = %v, want ErrNotEmpty", err)
	}

	if !fsutil.Exists(filepath.Join(folder, "sub", "keep.txt")) {
		t.Error("rejected cache must leave the folder untouched")
	}
}

func TestCache_SameNameDifferentFoldersGetDistinctSlots(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)
	tmpDir := t.TempDir()

	a := filepath.Join(tmpDir, "one", "assets")
	b := filepath.Join(tmpDir, "two", "assets")
	makeSkeleton(t, a)
	makeSkeleton(t, b)

	ea, err := tracker.Cache(a)
	if err != nil {
		t.Fatal(err)
	}

	eb, err := tracker.Cache(b)
	if err != nil {
		t.Fatal(err)
	}

	if ea.CachedPath == eb.CachedPath {
		t.Fatal("two folders share a cache slot")
	}

	if filepath.Base(eb.CachedPath) != "assets_1773480413_1" {
		t.Errorf("second slot = %q, want suffixed name", filepath.Base(eb.CachedPath))
	}
}

func TestCache_DottedFolderNameKeepsNameOnCollision(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)
	tmpDir := t.TempDir()

	a := filepath.Join(tmpDir, "one", "my.photos")
	b := filepath.Join(tmpDir, "two", "my.photos")
	makeSkeleton(t, a)
	makeSkeleton(t, b)

	if _, err := tracker.Cache(a); err != nil {
		t.Fatal(err)
	}

	eb, err := tracker.Cache(b)
	if err != nil {
		t.Fatal(err)
	}

	if got := filepath.Base(eb.CachedPath); got != "my.photos_1773480413_1" {
		t.Errorf("second slot = %q, want my.photos_1773480413_1", got)
	}

	if eb.DisplayName != "my.photos" {
		t.Errorf("DisplayName = %q", eb.DisplayName)
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "music")
	makeSkeleton(t, folder, "albums/live")

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatal(err)
	}

	if err := tracker.Restore(entry.CachedPath); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if !fsutil.IsDir(filepath.Join(folder, "albums", "live")) {
		t.Error("skeleton not restored at original path")
	}

	if fsutil.Exists(entry.CachedPath) {
		t.Error("cache slot still exists after restore")
	}

	if len(tracker.List()) != 0 {
		t.Error("mapping not removed after restore")
	}
}

func TestRestore_OriginalReoccupied(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "docs")
	makeSkeleton(t, folder)

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatal(err)
	}

	makeSkeleton(t, folder)
	if err := os.WriteFile(filepath.Join(folder, "new.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	err = tracker.Restore(entry.CachedPath)
	if !errors.Is(err, ErrOriginalOccupied) {
		t.Fatalf("Restore() error = %v, want ErrOriginalOccupied", err)
	}

	if _, ok := tracker.Get(entry.CachedPath); !ok {
		t.Error("failed restore must keep the cache entry")
	}
}

func TestRestore_OriginalRecreatedEmpty(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "docs")
	makeSkeleton(t, folder, "inner")

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatal(err)
	}

	makeSkeleton(t, folder, "other")

	if err := tracker.Restore(entry.CachedPath); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if !fsutil.IsDir(filepath.Join(folder, "inner")) {
		t.Error("cached skeleton not restored")
	}
}

func TestRestore_Unknown(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	if err := tracker.Restore("/nowhere"); !errors.Is(err, ErrNotCached) {
		t.Errorf("Restore() error = %v, want ErrNotCached", err)
	}
}

func TestSaveAs_KeepsEntry(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)
	tmpDir := t.TempDir()

	folder := filepath.Join(tmpDir, "src")
	makeSkeleton(t, folder, "x/y")

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatal(err)
	}

	exported := filepath.Join(tmpDir, "export", "copy")
	if err := tracker.SaveAs(entry.CachedPath, exported); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	if !fsutil.IsDir(filepath.Join(exported, "x", "y")) {
		t.Error("skeleton not exported")
	}

	if !fsutil.IsDir(entry.CachedPath) {
		t.Error("SaveAs must not remove the cache slot")
	}

	if _, ok := tracker.Get(entry.CachedPath); !ok {
		t.Error("SaveAs must keep the mapping")
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	tracker := newTestTracker(t)

	folder := filepath.Join(t.TempDir(), "gone")
	makeSkeleton(t, folder)

	entry, err := tracker.Cache(folder)
	if err != nil {
		t.Fatal(err)
	}

	if err := tracker.Delete(entry.CachedPath); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if fsutil.Exists(entry.CachedPath) {
		t.Error("slot still exists after delete")
	}

	if err := tracker.Delete(entry.CachedPath); !errors.Is(err, ErrNotCached) {
		t.Errorf("second Delete() error = %v, want ErrNotCached", err)
	}
}

func TestShutdown_RemovesRoot(t *testing.T) {
	t.Parallel()

	tracker, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	folder := filepath.Join(t.TempDir(), "leftover")
	makeSkeleton(t, folder)

	if _, err := tracker.Cache(folder); err != nil {
		t.Fatal(err)
	}

	if err := tracker.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if fsutil.Exists(tracker.Root()) {
		t.Error("cache root still exists after shutdown")
	}

	if err := tracker.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}

	if _, err := tracker.Cache(folder); !errors.Is(err, ErrTrackerShutdown) {
		t.Errorf("Cache() after shutdown error = %v, want ErrTrackerShutdown", err)
	}
}
