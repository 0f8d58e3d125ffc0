// Package mediatype resolves the Content-Type of files being served.
package mediatype

import (
	"mime"
	"path"

	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultType is returned when neither the extension nor the content
// identify a file.
const DefaultType = "application/octet-stream"

// Resolver looks a type up by file extension first and falls back to
// detecting it from the file's leading bytes.
type Resolver struct {
	fs mfs.FileSystem
}

// NewResolver creates a Resolver that reads content through fs.
func NewResolver(fs mfs.FileSystem) *Resolver {
	return &Resolver{fs: fs}
}

// TypeOf returns the Content-Type for the file at p.
func (r *Resolver) TypeOf(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	if r.fs == nil {
		return DefaultType
	}

	f, err := r.fs.Open(p)
	if err != nil {
		return DefaultType
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return DefaultType
	}
	return m.String()
}
