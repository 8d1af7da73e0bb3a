package manager

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/clock"
	"github.com/AntoineGS/dirfusion/internal/ledger"
	"github.com/AntoineGS/dirfusion/internal/platform"
	"github.com/AntoineGS/dirfusion/internal/state"
)

// testTree describes a directory: string values are file contents, nested
// testTree values are subdirectories.
type testTree map[string]interface{}

func createTestTree(t *testing.T, root string, tree testTree) {
	t.Helper()

	if err := os.MkdirAll(root, 0750); err != nil {
		t.Fatal(err)
	}

	for name, content := range tree {
		path := filepath.Join(root, name)
		switch v := content.(type) {
		case string:
			if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(v), 0600); err != nil {
				t.Fatal(err)
			}
		case testTree:
			createTestTree(t, path, v)
		}
	}
}

// readFiles returns every file under root keyed by slash-separated relative
// path. Directories are not listed.
func readFiles(t *testing.T, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path) //nolint:gosec // test paths
		if err != nil {
			return err
		}

		files[filepath.ToSlash(rel)] = string(content)

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	return files
}

func compareFiles(t *testing.T, name string, got, want map[string]string) {
	t.Helper()

	for k, wantV := range want {
		gotV, ok := got[k]
		if !ok {
			t.Errorf("%s: missing file %q", name, k)
			continue
		}

		if gotV != wantV {
			t.Errorf("%s[%q]: got %q, want %q", name, k, gotV, wantV)
		}
	}

	for k := range got {
		if _, ok := want[k]; !ok {
			t.Errorf("%s: unexpected file %q", name, k)
		}
	}
}

var testNow = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

// newTestManager returns a Manager that logs nowhere and has no
// collaborators attached.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	plat := &platform.Platform{OS: platform.OSLinux, Hostname: "testhost"}

	return New(plat).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithClock(clock.NewFake(testNow))
}

// fakeRecorder keeps the run log in memory.
type fakeRecorder struct {
	destination string
	sources     []string
	entries     []ledger.LogEntry
	started     int
	commits     int
}

func (f *fakeRecorder) StartRun(destination string, sources []string) {
	f.started++
	f.destination = destination
	f.sources = sources
	f.entries = nil
}

func (f *fakeRecorder) Record(entry ledger.LogEntry) {
	f.entries = append(f.entries, entry)
}

func (f *fakeRecorder) Commit() (string, error) {
	f.commits++
	if len(f.entries) == 0 {
		return "", nil
	}

	return "fake-backup", nil
}

// fakeCache records which folders were cached without moving anything.
type fakeCache struct {
	cached map[string]cache.CachedFolder
}

func newFakeCache() *fakeCache {
	return &fakeCache{cached: make(map[string]cache.CachedFolder)}
}

func (f *fakeCache) IsEmptyOfFiles(path string) bool {
	return cache.IsEmptyOfFiles(path)
}

func (f *fakeCache) Cache(path string) (*cache.CachedFolder, error) {
	if !cache.IsEmptyOfFiles(path) {
		return nil, cache.ErrNotEmpty
	}

	entry := cache.CachedFolder{
		OriginalPath: path,
		CachedPath:   "/cache/" + filepath.Base(path),
		DisplayName:  filepath.Base(path),
		Timestamp:    testNow,
	}
	f.cached[path] = entry

	return &entry, nil
}

func (f *fakeCache) Restore(cachedPath string) error {
	for orig, e := range f.cached {
		if e.CachedPath == cachedPath {
			delete(f.cached, orig)
			return nil
		}
	}

	return cache.ErrNotCached
}

func (f *fakeCache) SaveAs(_, _ string) error { return nil }

func (f *fakeCache) Delete(cachedPath string) error { return f.Restore(cachedPath) }

func (f *fakeCache) Get(cachedPath string) (cache.CachedFolder, bool) {
	for _, e := range f.cached {
		if e.CachedPath == cachedPath {
			return e, true
		}
	}

	return cache.CachedFolder{}, false
}

func (f *fakeCache) List() []cache.CachedFolder {
	out := make([]cache.CachedFolder, 0, len(f.cached))
	for _, e := range f.cached {
		out = append(out, e)
	}

	return out
}

func (f *fakeCache) Shutdown() error { return nil }

var _ cache.FolderCache = (*fakeCache)(nil)

// fakeHistory collects saved runs.
type fakeHistory struct {
	runs []state.RunRecord
}

func (f *fakeHistory) SaveRun(rec *state.RunRecord) error {
	if rec.ID == "" {
		rec.ID = "run-1"
	}

	f.runs = append(f.runs, *rec)

	return nil
}
