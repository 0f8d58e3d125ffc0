// Package fs provides the read-only filesystem views the server serves from:
// a directory on local disk or a git ref.
package fs

import (
	"io"
	"os"
	"time"
)

// FileInfo holds the metadata of a single file or directory. It is derived
// fresh on every call and never cached.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem abstracts file operations so callers can work with either
// the local filesystem or a git object database. Paths are slash-separated
// and relative to the root; "" and "." both name the root.
type FileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Stat(path string) (FileInfo, error)
	Lstat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}

// OpenedSize reports the size of the content behind an open reader when the
// reader can tell: an *os.File via Stat, an in-memory blob via Size. The
// bool is false when only a separate Stat call could answer.
func OpenedSize(r io.Reader) (int64, bool) {
	switch v := r.(type) {
	case interface{ Stat() (os.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return 0, false
		}
		return info.Size(), true
	case interface{ Size() int64 }:
		return v.Size(), true
	}
	return 0, false
}

// FilesystemError records a failed stat, read or enumerate call.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Wrap returns err as a *FilesystemError, or nil when err is nil.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}
