package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var mdOnly = []string{".md"}

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteRead(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		write [][]byte
	}{
		{"top level", "note.md", [][]byte{[]byte("# Hello\nWorld\n")}},
		{"nested dirs created", "a/b/c.md", [][]byte{[]byte("deep")}},
		{"overwrite", "again.md", [][]byte{[]byte("first"), []byte("second")}},
		{"crlf kept", "win.md", [][]byte{[]byte("---\r\ntags: [x]\r\n---\r\n")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tempVault(t)
			for _, c := range tc.write {
				if err := s.Write(tc.path, c); err != nil {
					t.Fatalf("Write: %v", err)
				}
			}
			got, err := s.Read(tc.path)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if want := tc.write[len(tc.write)-1]; string(got) != string(want) {
				t.Errorf("got %q, want %q", got, want)
			}
			leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(filepath.Join(s.root, tc.path)), tmpPattern))
			if len(leftovers) != 0 {
				t.Errorf("leftover temp files: %v", leftovers)
			}
		})
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("b.md", []byte("b"))
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/c.MD", []byte("c"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".obsidian/workspace.md", []byte("hidden"))
	_ = s.Write(".draft.md", []byte("hidden"))

	items, err := s.List("", mdOnly)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	want := []string{"a.md", "b.md", "sub/c.MD"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestListExtensions(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("b.markdown", []byte("b"))
	items, err := s.List("", []string{".md", ".markdown"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestWritePreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	s := tempVault(t)
	p := filepath.Join(s.root, "mode.md")
	if err := os.WriteFile(p, []byte("x"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("mode.md", []byte("y")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/mindlink-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "mindlink-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
