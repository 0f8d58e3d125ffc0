package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"time"
)

// GitFS implements FileSystem by reading from a git ref (branch, tag, or commit).
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS that serves the tree of ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

// treeEntry is one parsed record of `git ls-tree -l -z`.
type treeEntry struct {
	mode os.FileMode
	typ  string
	size int64
	name string
}

func (g *GitFS) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

func cleanObjPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// lsTree runs `git ls-tree -l -z <ref> [target]` and parses every entry.
// Records are NUL-terminated so names come back verbatim rather than
// C-quoted.
func (g *GitFS) lsTree(target string) ([]treeEntry, error) {
	args := []string{"ls-tree", "-l", "-z", g.ref}
	if target != "" {
		args = append(args, "--", target)
	}
	out, err := g.git(args...)
	if err != nil {
		return nil, os.ErrNotExist
	}

	var entries []treeEntry
	for _, rec := range strings.Split(string(out), "\x00") {
		// Format: "<mode> <type> <hash> <size>\t<name>"
		meta, name, ok := strings.Cut(rec, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 4 {
			continue
		}
		size, _ := strconv.ParseInt(fields[3], 10, 64)
		entries = append(entries, treeEntry{
			mode: parseTreeMode(fields[0]),
			typ:  fields[1],
			size: size,
			name: name,
		})
	}
	return entries, nil
}

// parseTreeMode maps git tree modes onto os.FileMode bits.
func parseTreeMode(s string) os.FileMode {
	switch s {
	case "040000", "160000":
		return os.ModeDir | 0o755
	case "120000":
		return os.ModeSymlink | 0o777
	case "100755":
		return 0o755
	default:
		return 0o644
	}
}

// Open returns the blob at path from the git ref.
func (g *GitFS) Open(p string) (io.ReadCloser, error) {
	objPath := cleanObjPath(p)
	if objPath == "" {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	out, err := g.git("cat-file", "blob", g.ref+":"+objPath)
	if err != nil {
		if strings.Contains(err.Error(), "not exist") || strings.Contains(err.Error(), "Not a valid object") {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return blob{bytes.NewReader(out)}, nil
}

// blob is a fully read git object. Size reports its length.
type blob struct {
	*bytes.Reader
}

func (blob) Close() error { return nil }

// Stat returns metadata for the file or directory at path in the git ref.
func (g *GitFS) Stat(p string) (FileInfo, error) {
	objPath := cleanObjPath(p)
	if objPath == "" {
		if _, err := g.git("rev-parse", "--verify", g.ref); err != nil {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{
			Name:    g.ref,
			IsDir:   true,
			Mode:    os.ModeDir | 0o755,
			ModTime: g.modTime(""),
		}, nil
	}

	entries, err := g.lsTree(objPath)
	if err != nil {
		return FileInfo{}, err
	}
	for _, e := range entries {
		if e.name != objPath {
			continue
		}
		return FileInfo{
			Name:    path.Base(objPath),
			IsDir:   e.typ == "tree" || e.typ == "commit",
			Size:    e.size,
			Mode:    e.mode,
			ModTime: g.modTime(objPath),
		}, nil
	}
	return FileInfo{}, os.ErrNotExist
}

// Lstat is Stat: symlinks in a git tree are reported by their own mode already.
func (g *GitFS) Lstat(p string) (FileInfo, error) {
	return g.Stat(p)
}

// ReadDir lists the immediate children of the directory at path in tree order.
func (g *GitFS) ReadDir(p string) ([]DirEntry, error) {
	objPath := cleanObjPath(p)
	target := ""
	if objPath != "" {
		info, err := g.Stat(objPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir {
			return nil, fmt.Errorf("%s: not a directory", objPath)
		}
		target = objPath + "/"
	}

	entries, err := g.lsTree(target)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, DirEntry{
			Name:  path.Base(e.name),
			IsDir: e.typ == "tree" || e.typ == "commit",
		})
	}
	return result, nil
}

func (g *GitFS) modTime(objPath string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if objPath != "" {
		args = append(args, "--", objPath)
	}
	out, err := g.git(args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
