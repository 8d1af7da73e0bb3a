package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIdentical(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	large := strings.Repeat("abcdefgh", compareChunk/4)
	largeDiff := large[:len(large)-1] + "X"

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"same content", "hello", "hello", true},
		{"different content same size", "hello", "hellp", false},
		{"different size", "hello", "hello!", false},
		{"both empty", "", "", true},
		{"multi chunk identical", large, large, true},
		{"multi chunk differs at end", large, largeDiff, false},
	}

	for i, tt := range tests {
		a := filepath.Join(tmpDir, tt.name, "a")
		b := filepath.Join(tmpDir, tt.name, "b")
		writeFile(t, a, tt.a)
		writeFile(t, b, tt.b)

		got, err := Identical(a, b)
		if err != nil {
			t.Fatalf("case %d %s: Identical() error = %v", i, tt.name, err)
		}

		if got != tt.want {
			t.Errorf("%s: Identical() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIdentical_DirectoryIsNeverIdentical(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "file")
	writeFile(t, file, "x")

	got, err := Identical(file, tmpDir)
	if err != nil {
		t.Fatalf("Identical() error = %v", err)
	}

	if got {
		t.Error("file and directory reported identical")
	}
}

func TestIdentical_MissingFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "file")
	writeFile(t, file, "x")

	if _, err := Identical(file, filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSplitExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wantBase string
		wantExt  string
	}{
		{"file.txt", "file", ".txt"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".bashrc", ".bashrc", ""},
		{"..hidden", "..hidden", ""},
		{".config.yaml", ".config", ".yaml"},
		{"trailing.", "trailing", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base, ext := SplitExt(tt.name)
			if base != tt.wantBase || ext != tt.wantExt {
				t.Errorf("SplitExt(%q) = (%q, %q), want (%q, %q)", tt.name, base, ext, tt.wantBase, tt.wantExt)
			}
		})
	}
}

func TestSuffixedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"file.txt", 1, "file_1.txt"},
		{"file.txt", 12, "file_12.txt"},
		{"Makefile", 2, "Makefile_2"},
		{".env", 1, ".env_1"},
	}

	for _, tt := range tests {
		if got := SuffixedName(tt.name, tt.n); got != tt.want {
			t.Errorf("SuffixedName(%q, %d) = %q, want %q", tt.name, tt.n, got, tt.want)
		}
	}
}

func TestNextFreeName(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{
		filepath.Join("d", "a.txt"):   true,
		filepath.Join("d", "a_1.txt"): true,
		filepath.Join("d", "a_3.txt"): true,
	}

	got := NextFreeName("d", "a.txt", func(p string) bool { return taken[p] })
	want := filepath.Join("d", "a_2.txt")

	if got != want {
		t.Errorf("NextFreeName() = %q, want %q", got, want)
	}

	if got := NextFreeName("d", "b.txt", func(p string) bool { return taken[p] }); got != filepath.Join("d", "b.txt") {
		t.Errorf("NextFreeName() for free name = %q", got)
	}
}

func TestNextFreeDirName(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{
		filepath.Join("d", "my.photos_1700000000"):   true,
		filepath.Join("d", "my.photos_1700000000_1"): true,
	}

	got := NextFreeDirName("d", "my.photos_1700000000", func(p string) bool { return taken[p] })
	want := filepath.Join("d", "my.photos_1700000000_2")

	if got != want {
		t.Errorf("NextFreeDirName() = %q, want %q", got, want)
	}
}

func TestHasFiles(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	empty := filepath.Join(tmpDir, "empty")
	if err := os.MkdirAll(filepath.Join(empty, "a", "b", "c"), 0750); err != nil {
		t.Fatal(err)
	}

	hasFiles, err := HasFiles(empty)
	if err != nil {
		t.Fatalf("HasFiles() error = %v", err)
	}

	if hasFiles {
		t.Error("nested empty directories reported as having files")
	}

	writeFile(t, filepath.Join(empty, "a", "b", "c", "deep.txt"), "x")

	hasFiles, err = HasFiles(empty)
	if err != nil {
		t.Fatalf("HasFiles() error = %v", err)
	}

	if !hasFiles {
		t.Error("file at depth not detected")
	}
}

func TestMove(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "src", "file.txt")
	dst := filepath.Join(tmpDir, "dst", "file.txt")
	writeFile(t, src, "payload")

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		t.Fatal(err)
	}

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if Exists(src) {
		t.Error("source still exists after move")
	}

	content, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading moved file: %v", err)
	}

	if string(content) != "payload" {
		t.Errorf("moved content = %q, want %q", content, "payload")
	}
}

func TestCopySkeleton(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(filepath.Join(src, "x", "y"), 0750); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(src, "z"), 0750); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(tmpDir, "dst")
	if err := CopySkeleton(src, dst); err != nil {
		t.Fatalf("CopySkeleton() error = %v", err)
	}

	for _, rel := range []string{"x", filepath.Join("x", "y"), "z"} {
		if !IsDir(filepath.Join(dst, rel)) {
			t.Errorf("directory %s not copied", rel)
		}
	}

	if !IsDir(src) {
		t.Error("CopySkeleton must not remove the source")
	}
}

func TestRemoveAll_MissingIsNotError(t *testing.T) {
	t.Parallel()

	if err := RemoveAll(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("RemoveAll() error = %v", err)
	}
}
