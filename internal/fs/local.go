package fs

import (
	"io"
	"os"
	"path/filepath"
)

// LocalFS implements FileSystem using the local filesystem.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at the given directory.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

// Root returns the directory the LocalFS is rooted at.
func (l *LocalFS) Root() string {
	return l.root
}

func (l *LocalFS) abs(path string) string {
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Open opens the file at the given path relative to the root for reading.
func (l *LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(l.abs(path))
}

// Stat returns metadata for the file or directory at path, following symlinks.
func (l *LocalFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(l.abs(path))
	if err != nil {
		return FileInfo{}, err
	}
	return toFileInfo(info), nil
}

// Lstat is like Stat but describes a symlink itself rather than its target.
func (l *LocalFS) Lstat(path string) (FileInfo, error) {
	info, err := os.Lstat(l.abs(path))
	if err != nil {
		return FileInfo{}, err
	}
	return toFileInfo(info), nil
}

// ReadDir lists the immediate children of the directory at path in the
// order the operating system returns them.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	f, err := os.Open(l.abs(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// File.ReadDir does not sort, unlike os.ReadDir.
	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		result[i] = DirEntry{
			Name:  e.Name(),
			IsDir: e.IsDir(),
		}
	}
	return result, nil
}

func toFileInfo(info os.FileInfo) FileInfo {
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
}
