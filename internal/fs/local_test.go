package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("alpha"), 0o640); err != nil {
		t.Fatal(err)
	}

	l := NewLocalFS(dir)

	info, err := l.Stat("sub/a.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != 5 || info.IsDir || info.Name != "a.txt" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Mode.Perm() != 0o640 {
		t.Errorf("expected mode 0640, got %v", info.Mode)
	}

	root, err := l.Stat("")
	if err != nil || !root.IsDir {
		t.Fatalf("expected root directory, got %+v, %v", root, err)
	}

	entries, err := l.ReadDir("sub")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.txt" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	rc, err := l.Open("sub/a.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "alpha" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestLocalFS_Lstat(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "target.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("target.txt", filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	l := NewLocalFS(dir)
	info, err := l.Lstat("link")
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Mode&os.ModeSymlink == 0 {
		t.Errorf("expected symlink mode, got %v", info.Mode)
	}

	info, err = l.Stat("link")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode&os.ModeSymlink != 0 {
		t.Error("Stat should follow the symlink")
	}
}

func TestFilesystemError(t *testing.T) {
	err := Wrap("stat", "missing", os.ErrNotExist)

	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected *FilesystemError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected error to unwrap to os.ErrNotExist")
	}
	if fsErr.Error() != "stat missing: file does not exist" {
		t.Errorf("unexpected message %q", fsErr.Error())
	}
	if Wrap("stat", "x", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
