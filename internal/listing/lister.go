// Package listing renders directory contents as HTML table rows.
package listing

import (
	"context"
	"html/template"
	"net/url"
	"path"
	"strings"

	mfs "github.com/CageChen/dirserve/internal/fs"
	"github.com/dustin/go-humanize"
)

// Row is one rendered directory entry.
type Row struct {
	Icon  string `json:"icon"`
	Perms string `json:"perms"`
	Size  string `json:"size"`
	Name  string `json:"name"`
	Href  string `json:"href"`
	IsDir bool   `json:"isDir"`
}

// Formatter turns entry metadata into a display string.
type Formatter func(info mfs.FileInfo) string

// HumanSize formats file sizes in IEC units ("4.2 KiB"). Directories show "-".
func HumanSize(info mfs.FileInfo) string {
	if info.IsDir {
		return "-"
	}
	if info.Size < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(info.Size))
}

// ModeString formats permissions the way ls does ("-rw-r--r--").
func ModeString(info mfs.FileInfo) string {
	return info.Mode.String()
}

// Names are escaped by html/template; a file called "<b>.txt" must not
// inject markup into the listing page.
var rowTmpl = template.Must(template.New("row").Parse(`<tr>
  <td class="icon icon-{{.Icon}}"></td>
  <td class="perms">{{.Perms}}</td>
  <td class="size">{{.Size}}</td>
  <td class="name"><a href="{{.Href}}">{{.Name}}</a></td>
</tr>`))

// Lister enumerates directories of a FileSystem.
type Lister struct {
	fs    mfs.FileSystem
	size  Formatter
	perms Formatter
}

// Option configures a Lister.
type Option func(*Lister)

// WithSizeFormatter overrides HumanSize.
func WithSizeFormatter(f Formatter) Option {
	return func(l *Lister) { l.size = f }
}

// WithPermFormatter overrides ModeString.
func WithPermFormatter(f Formatter) Option {
	return func(l *Lister) { l.perms = f }
}

// New creates a Lister over fs.
func New(fs mfs.FileSystem, opts ...Option) *Lister {
	l := &Lister{fs: fs, size: HumanSize, perms: ModeString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory a listing for p covers: p names an entry
// inside that directory, and its last segment is discarded.
func Dir(p string) string {
	return path.Dir(p)
}

// Rows returns one Row per entry of the directory containing p, in the
// order the filesystem yields them. The first failed enumeration or stat
// aborts the listing with a *fs.FilesystemError.
func (l *Lister) Rows(ctx context.Context, p string) ([]Row, error) {
	dir := Dir(p)
	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		return nil, mfs.Wrap("readdir", dir, err)
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := path.Join(dir, e.Name)
		info, err := l.fs.Stat(full)
		if err != nil {
			return nil, mfs.Wrap("stat", full, err)
		}
		rows = append(rows, l.row(e.Name, full, info))
	}
	return rows, nil
}

func (l *Lister) row(name, full string, info mfs.FileInfo) Row {
	icon := "file"
	href := (&url.URL{Path: "/" + full}).EscapedPath()
	if info.IsDir {
		icon = "dir"
		href += "/"
	}
	return Row{
		Icon:  icon,
		Perms: l.perms(info),
		Size:  l.size(info),
		Name:  name,
		Href:  href,
		IsDir: info.IsDir,
	}
}

// ListDirectory renders the directory containing p as HTML table rows
// joined by newlines.
func (l *Lister) ListDirectory(ctx context.Context, p string) (string, error) {
	rows, err := l.Rows(ctx, p)
	if err != nil {
		return "", err
	}
	return RenderRows(rows)
}

// RenderRows renders rows as HTML table rows joined by newlines.
func RenderRows(rows []Row) (string, error) {
	out := make([]string, len(rows))
	var b strings.Builder
	for i, r := range rows {
		b.Reset()
		if err := rowTmpl.Execute(&b, r); err != nil {
			return "", err
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n"), nil
}
