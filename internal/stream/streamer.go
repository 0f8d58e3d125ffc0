// Package stream writes files from a FileSystem to HTTP responses.
package stream

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/CageChen/dirserve/internal/logging"
	"github.com/CageChen/dirserve/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotFoundMessage is the error body sent when a file cannot be served.
const NotFoundMessage = "File not found"

var errIsDir = errors.New("is a directory")

// TypeResolver maps a file path to its Content-Type.
type TypeResolver interface {
	TypeOf(path string) string
}

// TransportError is a failure while copying a file into a response.
type TransportError struct {
	Path    string
	Written int64
	Err     error
}

func (e *TransportError) Error() string {
	return "transfer " + e.Path + " failed after " + strconv.FormatInt(e.Written, 10) + " bytes: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Streamer sends files to clients.
type Streamer struct {
	fs    mfs.FileSystem
	types TypeResolver
}

// New creates a Streamer that reads from fs and labels responses with types.
func New(fs mfs.FileSystem, types TypeResolver) *Streamer {
	return &Streamer{fs: fs, types: types}
}

// Send streams the file at filePath into the response. It never returns an
// error: a missing file becomes a 404, and a failure to open or read it
// before anything was written becomes a 500. Once bytes are on the wire
// the response cannot change status, so a later failure is logged,
// recorded on the context and the request is aborted.
func (s *Streamer) Send(c *gin.Context, filePath string) {
	info, err := s.fs.Stat(filePath)
	if err == nil && info.IsDir {
		err = errIsDir
	}
	if err != nil {
		logging.Warn("file not found", zap.String("path", filePath), zap.Error(err))
		metrics.RecordFileServed(0, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": NotFoundMessage})
		return
	}

	f, err := s.fs.Open(filePath)
	if err != nil {
		logging.Error("open failed", zap.String("path", filePath), zap.Error(err))
		metrics.RecordFileServed(0, "error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	// The handle is authoritative; the file may have changed since Stat.
	size := info.Size
	if n, ok := mfs.OpenedSize(f); ok {
		size = n
	}

	h := c.Writer.Header()
	h.Set("Content-Type", s.types.TypeOf(filePath))
	h.Set("Content-Length", strconv.FormatInt(size, 10))
	if !info.ModTime.IsZero() {
		h.Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	c.Status(http.StatusOK)

	// Never send more than Content-Length promised; a short read is an error.
	n, err := io.CopyN(c.Writer, f, size)
	if err != nil {
		s.transferFailed(c, &TransportError{Path: filePath, Written: n, Err: err})
		return
	}
	metrics.RecordFileServed(n, "ok")
}

func (s *Streamer) transferFailed(c *gin.Context, terr *TransportError) {
	logging.Error("file transfer failed",
		zap.String("path", terr.Path),
		zap.Int64("written", terr.Written),
		zap.Error(terr.Err))
	metrics.RecordFileServed(terr.Written, "error")

	if !c.Writer.Written() {
		h := c.Writer.Header()
		h.Del("Content-Type")
		h.Del("Content-Length")
		h.Del("Last-Modified")
		c.JSON(http.StatusInternalServerError, gin.H{"error": terr.Err.Error()})
		return
	}
	_ = c.Error(terr)
	c.Abort()
}
