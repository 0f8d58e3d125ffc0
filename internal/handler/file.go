// Package handler provides the HTTP handlers of the dirserve server.
package handler

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/CageChen/dirserve/internal/config"
	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/CageChen/dirserve/internal/listing"
	"github.com/CageChen/dirserve/internal/logging"
	"github.com/CageChen/dirserve/internal/mediatype"
	"github.com/CageChen/dirserve/internal/metrics"
	"github.com/CageChen/dirserve/internal/pathutil"
	"github.com/CageChen/dirserve/internal/render"
	"github.com/CageChen/dirserve/internal/sniff"
	"github.com/CageChen/dirserve/internal/stream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultProbe names the entry used to address a directory's listing when
// no index file is configured.
const defaultProbe = "index.html"

// FileHandler serves files, directory listings and the JSON file API.
type FileHandler struct {
	cfg      *config.Config
	fs       mfs.FileSystem
	streamer *stream.Streamer
	lister   *listing.Lister
	sniffer  *sniff.Sniffer
	readme   *render.Renderer
}

// NewFileHandler creates a file handler serving fs.
func NewFileHandler(cfg *config.Config, fs mfs.FileSystem) *FileHandler {
	return &FileHandler{
		cfg:      cfg,
		fs:       fs,
		streamer: stream.New(fs, mediatype.NewResolver(fs)),
		lister:   listing.New(fs),
		sniffer:  sniff.New(fs, nil),
		readme:   render.NewRenderer(),
	}
}

// FSForConfig returns the FileSystem the configuration asks for.
func FSForConfig(cfg *config.Config) mfs.FileSystem {
	if cfg.GitRef != "" {
		return mfs.NewGitFS(cfg.Root, cfg.GitRef)
	}
	return mfs.NewLocalFS(cfg.Root)
}

// resolvePath turns a request path into a root-relative filesystem path.
// The empty result names the root.
func resolvePath(raw string) (string, error) {
	p := pathutil.CleanPath(pathutil.CleanURL(raw))
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", os.ErrPermission
		}
	}
	return p, nil
}

// probe returns a path inside dir, the form listing.Lister expects.
func (h *FileHandler) probe(dir string) string {
	name := h.cfg.Index
	if name == "" {
		name = defaultProbe
	}
	return path.Join(dir, name)
}

// Serve streams files and renders directories: the index file when one
// exists, otherwise an HTML listing. It is mounted as the router's NoRoute
// handler, so the path comes from the request URL.
func (h *FileHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	raw := c.Param("path")
	if raw == "" {
		raw = c.Request.URL.Path
	}
	p, err := resolvePath(raw)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		return
	}

	info, err := h.fs.Stat(p)
	if err != nil || !info.IsDir {
		h.streamer.Send(c, p)
		return
	}

	if h.cfg.Index != "" {
		index := path.Join(p, h.cfg.Index)
		if ii, err := h.fs.Stat(index); err == nil && !ii.IsDir {
			h.streamer.Send(c, index)
			return
		}
	}

	h.renderListing(c, p)
}

func (h *FileHandler) renderListing(c *gin.Context, dir string) {
	rows, err := h.lister.ListDirectory(c.Request.Context(), h.probe(dir))
	if err != nil {
		metrics.RecordListing(false)
		logging.Error("directory listing failed", zap.String("dir", dir), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.RecordListing(true)

	page := listingPage{
		Title:      "/" + dir,
		Rows:       template.HTML(rows),
		Readme:     h.renderReadme(dir),
		LiveReload: h.cfg.Watch,
	}
	if dir != "" {
		parent := path.Dir(dir)
		if parent == "." {
			page.ParentHref = "/"
		} else {
			page.ParentHref = "/" + parent + "/"
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *FileHandler) renderReadme(dir string) template.HTML {
	if h.cfg.Readme == "" {
		return ""
	}
	f, err := h.fs.Open(path.Join(dir, h.cfg.Readme))
	if err != nil {
		return ""
	}
	defer f.Close()

	source, err := io.ReadAll(f)
	if err != nil {
		logging.Debug("readme read failed", zap.String("dir", dir), zap.Error(err))
		return ""
	}
	out, err := h.readme.Render(source)
	if err != nil {
		logging.Debug("readme render failed", zap.String("dir", dir), zap.Error(err))
		return ""
	}
	return out
}

// List returns the entries of a directory as JSON.
func (h *FileHandler) List(c *gin.Context) {
	p, err := resolvePath(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		return
	}

	info, err := h.fs.Stat(p)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "directory not found"})
		return
	}
	if !info.IsDir {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is not a directory"})
		return
	}

	rows, err := h.lister.Rows(c.Request.Context(), h.probe(p))
	if err != nil {
		metrics.RecordListing(false)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.RecordListing(true)

	c.JSON(http.StatusOK, gin.H{
		"path":    p,
		"entries": rows,
	})
}

// Binary reports whether a file looks binary, judging by its first bytes.
func (h *FileHandler) Binary(c *gin.Context) {
	p, err := resolvePath(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		return
	}

	info, err := h.fs.Stat(p)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": stream.NotFoundMessage})
		return
	}
	if info.IsDir {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
		return
	}

	sample, err := readSample(h.fs, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	binary, err := h.sniffer.IsBinary(c.Request.Context(), p, sample)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	metrics.RecordSniff(binary)

	c.JSON(http.StatusOK, gin.H{
		"path":   p,
		"binary": binary,
	})
}

func readSample(fs mfs.FileSystem, p string) ([]byte, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, mfs.Wrap("open", p, err)
	}
	defer f.Close()

	sample, err := io.ReadAll(io.LimitReader(f, sniff.SampleSize))
	if err != nil {
		return nil, mfs.Wrap("read", p, err)
	}
	return sample, nil
}
