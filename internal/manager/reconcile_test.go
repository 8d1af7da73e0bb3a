package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		dest       testTree
		source     string
		wantKind   ActionKind
		wantDest   string
		wantReason string
	}{
		{
			name:     "free name moves",
			dest:     testTree{},
			source:   "X",
			wantKind: ActionMove,
			wantDest: "a.txt",
		},
		{
			name:       "identical skips",
			dest:       testTree{"a.txt": "X"},
			source:     "X",
			wantKind:   ActionSkip,
			wantDest:   "a.txt",
			wantReason: ReasonIdentical,
		},
		{
			name:       "different renames to first suffix",
			dest:       testTree{"a.txt": "Z"},
			source:     "X",
			wantKind:   ActionRename,
			wantDest:   "a_1.txt",
			wantReason: ReasonCollision,
		},
		{
			name:       "occupied suffixes are stepped over",
			dest:       testTree{"a.txt": "Z", "a_1.txt": "Q", "a_2.txt": "R"},
			source:     "X",
			wantKind:   ActionRename,
			wantDest:   "a_3.txt",
			wantReason: ReasonCollision,
		},
		{
			name:       "identical suffixed sibling skips",
			dest:       testTree{"a.txt": "Z", "a_1.txt": "Q", "a_2.txt": "X"},
			source:     "X",
			wantKind:   ActionSkip,
			wantDest:   "a_2.txt",
			wantReason: ReasonIdenticalName,
		},
		{
			name:       "first identical sibling wins",
			dest:       testTree{"a.txt": "Z", "a_1.txt": "X", "a_2.txt": "X"},
			source:     "X",
			wantKind:   ActionSkip,
			wantDest:   "a_1.txt",
			wantReason: ReasonIdenticalName,
		},
		{
			name:       "lowest free suffix wins",
			dest:       testTree{"a.txt": "Z", "a_2.txt": "Q"},
			source:     "X",
			wantKind:   ActionRename,
			wantDest:   "a_1.txt",
			wantReason: ReasonCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()

			destDir := filepath.Join(tmpDir, "dest")
			createTestTree(t, destDir, tt.dest)

			src := filepath.Join(tmpDir, "src", "a.txt")
			createTestTree(t, filepath.Dir(src), testTree{"a.txt": tt.source})

			action, err := reconcile(diskView{}, src, destDir)
			if err != nil {
				t.Fatalf("reconcile() error = %v", err)
			}

			if action.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", action.Kind, tt.wantKind)
			}

			if want := filepath.Join(destDir, tt.wantDest); action.DestPath != want {
				t.Errorf("DestPath = %q, want %q", action.DestPath, want)
			}

			if action.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", action.Reason, tt.wantReason)
			}
		})
	}
}

func TestReconcile_IdenticalNeverRenames(t *testing.T) {
	t.Parallel()

	// Whatever suffixed siblings exist, identical content at the plain name
	// is always a skip.
	for siblings := 0; siblings < 4; siblings++ {
		t.Run(fmt.Sprintf("siblings=%d", siblings), func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()

			dest := testTree{"data.bin": "same"}
			for n := 1; n <= siblings; n++ {
				dest[fmt.Sprintf("data_%d.bin", n)] = fmt.Sprintf("other-%d", n)
			}

			destDir := filepath.Join(tmpDir, "dest")
			createTestTree(t, destDir, dest)
			createTestTree(t, filepath.Join(tmpDir, "src"), testTree{"data.bin": "same"})

			action, err := reconcile(diskView{}, filepath.Join(tmpDir, "src", "data.bin"), destDir)
			if err != nil {
				t.Fatal(err)
			}

			if action.Kind != ActionSkip || action.Reason != ReasonIdentical {
				t.Errorf("action = %+v, want identical skip", action)
			}
		})
	}
}

func TestReconcile_NoExtensionAndDotFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"Makefile", "Makefile_1"},
		{".bashrc", ".bashrc_1"},
		{"archive.tar.gz", "archive.tar_1.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()

			destDir := filepath.Join(tmpDir, "dest")
			createTestTree(t, destDir, testTree{tt.name: "old"})
			createTestTree(t, filepath.Join(tmpDir, "src"), testTree{tt.name: "new"})

			action, err := reconcile(diskView{}, filepath.Join(tmpDir, "src", tt.name), destDir)
			if err != nil {
				t.Fatal(err)
			}

			if got := filepath.Base(action.DestPath); got != tt.want {
				t.Errorf("renamed to %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOverlayView_SeesPlannedFiles(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	destDir := filepath.Join(tmpDir, "dest")
	createTestTree(t, filepath.Join(tmpDir, "one"), testTree{"f.txt": "A"})
	createTestTree(t, filepath.Join(tmpDir, "two"), testTree{"f.txt": "A"})
	createTestTree(t, filepath.Join(tmpDir, "three"), testTree{"f.txt": "B"})

	overlay := newOverlayView()

	first, err := reconcile(overlay, filepath.Join(tmpDir, "one", "f.txt"), destDir)
	if err != nil {
		t.Fatal(err)
	}
	overlay.place(first.SourcePath, first.DestPath)

	second, err := reconcile(overlay, filepath.Join(tmpDir, "two", "f.txt"), destDir)
	if err != nil {
		t.Fatal(err)
	}

	if second.Kind != ActionSkip {
		t.Errorf("identical planned file: got %v, want skip", second.Kind)
	}

	third, err := reconcile(overlay, filepath.Join(tmpDir, "three", "f.txt"), destDir)
	if err != nil {
		t.Fatal(err)
	}

	if third.Kind != ActionRename || filepath.Base(third.DestPath) != "f_1.txt" {
		t.Errorf("different planned file: got %+v, want rename to f_1.txt", third)
	}

	if _, err := os.Stat(destDir); !os.IsNotExist(err) {
		t.Error("overlay touched the filesystem")
	}
}

func TestEnsureDir_CountsCreated(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	target := filepath.Join(tmpDir, "a", "b", "c")

	created, err := ensureDir(target)
	if err != nil {
		t.Fatal(err)
	}

	if created != 3 {
		t.Errorf("first ensureDir created %d, want 3", created)
	}

	created, err = ensureDir(target)
	if err != nil {
		t.Fatal(err)
	}

	if created != 0 {
		t.Errorf("second ensureDir created %d, want 0", created)
	}

	overlay := newOverlayView()

	n, err := overlay.ensureDir(filepath.Join(target, "d", "e"))
	if err != nil {
		t.Fatal(err)
	}

	if n != 2 {
		t.Errorf("overlay ensureDir counted %d, want 2", n)
	}

	n, _ = overlay.ensureDir(filepath.Join(target, "d"))
	if n != 0 {
		t.Errorf("overlay recounted planned directory: %d", n)
	}
}
