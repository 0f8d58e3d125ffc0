package listing

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	mfs "github.com/CageChen/dirserve/internal/fs"
)

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), make([]byte, 3000), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestListDirectory(t *testing.T) {
	l := New(mfs.NewLocalFS(setupDir(t)))

	// The argument names an entry inside the directory being listed.
	out, err := l.ListDirectory(context.Background(), "index.html")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}

	if n := strings.Count(out, "<tr>"); n != 3 {
		t.Fatalf("expected 3 rows, got %d:\n%s", n, out)
	}
	if n := strings.Count(out, "</tr>\n<tr>"); n != 2 {
		t.Errorf("expected rows joined by newlines, got %d joins", n)
	}
	for _, name := range []string{"a.txt", "b.txt", "sub"} {
		if !strings.Contains(out, ">"+name+"</a>") {
			t.Errorf("expected row for %s in:\n%s", name, out)
		}
	}
	if !strings.Contains(out, `href="/sub/"`) {
		t.Error("expected directory link with trailing slash")
	}
}

func TestRows(t *testing.T) {
	l := New(mfs.NewLocalFS(setupDir(t)))

	rows, err := l.Rows(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	byName := make(map[string]Row)
	for _, r := range rows {
		byName[r.Name] = r
	}

	a := byName["a.txt"]
	if a.Size != "5 B" || a.Perms != "-rw-r--r--" || a.Icon != "file" || a.Href != "/a.txt" {
		t.Errorf("unexpected row for a.txt: %+v", a)
	}
	b := byName["b.txt"]
	if b.Size != "2.9 KiB" || b.Perms != "-rw-------" {
		t.Errorf("unexpected row for b.txt: %+v", b)
	}
	sub := byName["sub"]
	if !sub.IsDir || sub.Size != "-" || !strings.HasPrefix(sub.Perms, "d") || sub.Icon != "dir" {
		t.Errorf("unexpected row for sub: %+v", sub)
	}
}

func TestRows_Subdirectory(t *testing.T) {
	dir := setupDir(t)
	if err := os.WriteFile(filepath.Join(dir, "sub", "my file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(mfs.NewLocalFS(dir))

	rows, err := l.Rows(context.Background(), "sub/index.html")
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "my file.txt" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Href != "/sub/my%20file.txt" {
		t.Errorf("unexpected href %q", rows[0].Href)
	}
}

func TestListDirectory_EscapesNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "<b>.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(mfs.NewLocalFS(dir))

	out, err := l.ListDirectory(context.Background(), "x")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if strings.Contains(out, "<b>.txt") {
		t.Errorf("entry name was not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;.txt") {
		t.Errorf("expected escaped entry name in:\n%s", out)
	}
}

func TestListDirectory_CustomFormatters(t *testing.T) {
	l := New(mfs.NewLocalFS(setupDir(t)),
		WithSizeFormatter(func(mfs.FileInfo) string { return "SIZE" }),
		WithPermFormatter(func(mfs.FileInfo) string { return "PERMS" }),
	)

	out, err := l.ListDirectory(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "SIZE") != 3 || strings.Count(out, "PERMS") != 3 {
		t.Errorf("formatters not applied:\n%s", out)
	}
}

func TestListDirectory_Errors(t *testing.T) {
	dir := t.TempDir()
	l := New(mfs.NewLocalFS(dir))

	_, err := l.ListDirectory(context.Background(), "missing/x")
	var fsErr *mfs.FilesystemError
	if !errors.As(err, &fsErr) || fsErr.Op != "readdir" {
		t.Fatalf("expected readdir FilesystemError, got %v", err)
	}

	if err := os.Symlink("nowhere", filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_, err = l.ListDirectory(context.Background(), "x")
	if !errors.As(err, &fsErr) || fsErr.Op != "stat" || fsErr.Path != "dangling" {
		t.Fatalf("expected stat FilesystemError for dangling link, got %v", err)
	}
}

func TestListDirectory_GitRefNonASCII(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	git("init")
	git("config", "user.email", "test@test.com")
	git("config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, "résumé.txt"), []byte("cv"), 0o644); err != nil {
		t.Fatal(err)
	}
	git("add", "-A")
	git("commit", "-m", "initial commit")

	l := New(mfs.NewGitFS(dir, "HEAD"))
	rows, err := l.Rows(context.Background(), "index.html")
	if err != nil {
		t.Fatalf("Rows over git ref failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "résumé.txt" || rows[0].Size != "2 B" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].Href != "/r%C3%A9sum%C3%A9.txt" {
		t.Errorf("unexpected href %q", rows[0].Href)
	}
}

func TestDir(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"", "."},
		{"index.html", "."},
		{"docs/index.html", "docs"},
		{"docs/sub/", "docs/sub"},
	}
	for _, tt := range tests {
		if got := Dir(tt.input); got != tt.output {
			t.Errorf("Dir(%q) = %q, want %q", tt.input, got, tt.output)
		}
	}
}
