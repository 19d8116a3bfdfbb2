package pack

import (
	"context"
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcepack/pkg/config"
	"sourcepack/pkg/ignore"
	"sourcepack/pkg/packerr"
	"sourcepack/pkg/source"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func run(t *testing.T, cfg config.Config, src, dest string) (*Result, string) {
	t.Helper()
	res, err := NewPacker(nil).Run(context.Background(), Request{Config: cfg, Source: src, Destination: dest})
	require.NoError(t, err)
	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	return res, string(out)
}

// sections returns the relative paths of the "## " headings of a Markdown pack.
func sections(doc string) []string {
	var paths []string
	for _, line := range strings.Split(doc, "\n") {
		if rest, ok := strings.CutPrefix(line, "## "); ok {
			paths = append(paths, rest)
		}
	}
	return paths
}

func TestScenarioBuiltinDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	writeTree(t, dir, map[string]string{
		"a.txt":         "hello",
		".git/config":   "[core]",
		"build/out.bin": "\x00\x01",
	})
	dest := filepath.Join(t.TempDir(), "proj.md")

	res, out := run(t, config.Default(), dir, dest)

	assert.Equal(t, "# proj\n\n## a.txt\n\n```text\nhello\n```\n", out)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, "proj", res.Name)
	assert.Equal(t, dest, res.Destination)
	assert.Empty(t, res.Skipped)
	assert.NotContains(t, out, ".git")
	assert.NotContains(t, out, "build")
}

func TestScenarioIgnoredExtension(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"app.log": "same", "app.txt": "same"})

	cfg := config.Default()
	cfg.IgnoreExts = []string{"log"}
	_, out := run(t, cfg, dir, filepath.Join(t.TempDir(), "out.md"))

	assert.Equal(t, []string{"app.txt"}, sections(out))
}

func TestScenarioBinaryPlaceholder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"img.png": "\x89PNG\x00\x00\x00\rIHDR", "a.txt": "x"})

	res, out := run(t, config.Default(), dir, filepath.Join(t.TempDir(), "out.md"))

	assert.Equal(t, []string{"a.txt", "img.png"}, sections(out))
	assert.Contains(t, out, "## img.png\n\n_Binary file omitted (12 bytes)._\n")
	assert.NotContains(t, out, "IHDR")
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 1, res.Binary)
}

func TestScenarioUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"ok.txt": "fine", "secret.txt": "hidden"})
	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.Chmod(secret, 0o000))
	t.Cleanup(func() { _ = os.Chmod(secret, 0o644) })

	res, out := run(t, config.Default(), dir, filepath.Join(t.TempDir(), "out.md"))

	assert.Equal(t, []string{"ok.txt"}, sections(out))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "secret.txt", res.Skipped[0].RelPath)
	assert.True(t, packerr.Has(res.SkippedErr(), packerr.KindWalk))
	assert.ErrorIs(t, res.SkippedErr(), fs.ErrPermission)
}

func TestBrokenSymlinkIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"ok.txt": "fine"})
	require.NoError(t, os.Symlink("missing.txt", filepath.Join(dir, "dangling.txt")))

	res, out := run(t, config.Default(), dir, filepath.Join(t.TempDir(), "out.md"))

	assert.Equal(t, []string{"ok.txt"}, sections(out))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "dangling.txt", res.Skipped[0].RelPath)
	assert.True(t, packerr.Has(res.SkippedErr(), packerr.KindWalk))
	assert.ErrorIs(t, res.SkippedErr(), fs.ErrNotExist)
}

func TestScenarioMalformedRemote(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "sub", "out.md")
	tempRoot := t.TempDir()
	p := NewPacker(nil)
	p.TempRoot = tempRoot

	_, err := p.Run(context.Background(), Request{
		Config:      config.Default(),
		Source:      "https://",
		Destination: dest,
	})

	require.Error(t, err)
	assert.Equal(t, packerr.KindAcquisition, packerr.KindOf(err))
	assert.NoFileExists(t, dest)
	assert.NoDirExists(t, filepath.Dir(dest))
	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunRejectsBadRequests(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out.md")

	bad := config.Default()
	bad.Format = "pdf"

	tests := []struct {
		name string
		req  Request
	}{
		{"no source", Request{Config: config.Default(), Destination: dest}},
		{"no destination", Request{Config: config.Default(), Source: dir}},
		{"invalid config", Request{Config: bad, Source: dir, Destination: dest}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPacker(nil).Run(context.Background(), tt.req)
			assert.Equal(t, packerr.KindConfig, packerr.KindOf(err))
			assert.NoFileExists(t, dest)
		})
	}
}

func TestRunUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "a"})
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewPacker(nil).Run(context.Background(), Request{
		Config:      config.Default(),
		Source:      dir,
		Destination: filepath.Join(blocker, "out.md"),
	})
	assert.Equal(t, packerr.KindEmit, packerr.KindOf(err))
}

func TestRunIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"z.go":         "package z\n",
		"a/b/c.txt":    "c",
		"a/B.txt":      "B",
		"docs/read.md": "# title\n```sh\nls\n```\n",
	})
	out := t.TempDir()

	for _, format := range []config.Format{config.FormatMarkdown, config.FormatXML} {
		cfg := config.Default()
		cfg.Format = format
		_, first := run(t, cfg, dir, filepath.Join(out, "1"+format.Ext()))
		_, second := run(t, cfg, dir, filepath.Join(out, "2"+format.Ext()))
		assert.Equal(t, first, second)
	}
}

func TestOutputMatchesFilter(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"README.md":             "r",
		"main.go":               "m",
		"debug.log":             "l",
		"notes.TMP":             "t",
		".gradle/cache.bin":     "c",
		"gradle/wrapper.jar":    "w",
		"src/build/gen.go":      "g",
		"src/app/app.go":        "a",
		"src/app/app_test.go":   "t",
		"vendor/lib/lib.go":     "v",
		"secrets/.env":          "s",
		".github/workflows/a.y": "y",
	})

	cfg := config.Default()
	cfg.IgnoreFiles = []string{"secrets"}
	cfg.IgnorePatterns = []string{"vendor/", "*_test.go"}

	_, out := run(t, cfg, dir, filepath.Join(t.TempDir(), "out.md"))

	filter := ignore.New(cfg)
	var want []string
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		rel = filepath.ToSlash(rel)
		if filter.IncludesPath(rel, false) {
			want = append(want, rel)
		}
		return nil
	}))

	got := sections(out)
	sort.Strings(want)
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	assert.Equal(t, want, sorted)
	assert.ElementsMatch(t, []string{".github/workflows/a.y", "README.md", "main.go", "notes.TMP", "src/app/app.go"}, got)
}

func TestXMLRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "web")
	writeTree(t, dir, map[string]string{
		"index.html": "<b>&amp;</b>\n",
		"js/app.js":  "if (a < b && c > d) {}\n",
	})

	cfg := config.Default()
	cfg.Format = config.FormatXML
	_, out := run(t, cfg, dir, filepath.Join(t.TempDir(), "web.xml"))

	var doc struct {
		Name  string `xml:"name,attr"`
		Files []struct {
			Path string `xml:"path,attr"`
			Text string `xml:",chardata"`
		} `xml:"file"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "web", doc.Name)
	require.Len(t, doc.Files, 2)
	for _, f := range doc.Files {
		body, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		assert.Equal(t, string(body), f.Text)
	}
}

func TestCompressedRun(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "one  \r\n\r\n\r\ntwo\r\n\r\n"})

	cfg := config.Default()
	cfg.Compress = true
	_, out := run(t, cfg, dir, filepath.Join(t.TempDir(), "out.md"))

	assert.Contains(t, out, "```text\none\n\ntwo\n```\n")
}

func TestTreeMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")
	writeTree(t, dir, map[string]string{"a.txt": "hello", "pkg/b.go": "package b\n"})

	cfg := config.Default()
	cfg.Mode = config.ModeTree
	res, out := run(t, cfg, dir, filepath.Join(t.TempDir(), "proj.md"))

	assert.Equal(t, "# proj\n\n```text\na.txt (5 bytes)\npkg/\n  b.go (10 bytes)\n```\n", out)
	assert.Equal(t, 2, res.Files)
}

func TestOutputInsideSourceIsNotPacked(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "a", "out.md": "stale output"})
	dest := filepath.Join(dir, "out.md")

	_, first := run(t, config.Default(), dir, dest)
	_, second := run(t, config.Default(), dir, dest)

	assert.Equal(t, []string{"a.txt"}, sections(first))
	assert.Equal(t, first, second)
}

func TestOutputInsideSymlinkedSourceIsNotPacked(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	writeTree(t, realDir, map[string]string{"a.txt": "a"})
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(realDir, link))
	dest := filepath.Join(realDir, "out.md")

	_, first := run(t, config.Default(), link, dest)
	_, second := run(t, config.Default(), link, dest)

	assert.Equal(t, []string{"a.txt"}, sections(first))
	assert.NotContains(t, first, "## out.md")
	assert.Equal(t, first, second)
}

func TestProgressOrder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"b.txt": "b", "a/x.txt": "x", "a/y.txt": "y"})

	var seen []string
	_, err := NewPacker(nil).Run(context.Background(), Request{
		Config:      config.Default(),
		Source:      dir,
		Destination: filepath.Join(t.TempDir(), "out.md"),
		OnProgress:  func(rel string) { seen = append(seen, rel) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.txt", "a/y.txt", "b.txt"}, seen)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "a", "b.txt": "b"})
	dest := filepath.Join(t.TempDir(), "out.md")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := NewPacker(nil).Run(ctx, Request{
		Config:      config.Default(),
		Source:      dir,
		Destination: dest,
		OnProgress:  func(string) { cancel() },
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, dest, "partial output stays on disk")
}

// fakeCloner fills the clone directory with fixed files.
type fakeCloner struct {
	files map[string]string
	err   error
	dirs  []string
}

func (f *fakeCloner) Clone(ctx context.Context, dir string, remote *source.Remote, opts config.Clone) error {
	f.dirs = append(f.dirs, dir)
	for rel, body := range f.files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return f.err
}

func TestRunRemoteSource(t *testing.T) {
	cloner := &fakeCloner{files: map[string]string{
		"main.go":    "package main\n",
		".git/HEAD":  "ref: refs/heads/main\n",
		"docs/a.txt": "doc",
	}}
	p := NewPacker(nil)
	p.Cloner = cloner
	p.TempRoot = t.TempDir()
	dest := filepath.Join(t.TempDir(), "out.md")

	res, err := p.Run(context.Background(), Request{
		Config:      config.Default(),
		Source:      "https://github.com/example/tool.git",
		Destination: dest,
	})
	require.NoError(t, err)

	assert.Equal(t, "tool", res.Name)
	assert.Equal(t, 2, res.Files)
	require.Len(t, cloner.dirs, 1)
	assert.NoDirExists(t, cloner.dirs[0], "the clone is removed after the run")

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# tool\n"))
	assert.Equal(t, []string{"docs/a.txt", "main.go"}, sections(string(out)))
}

func TestRunRemoteFailure(t *testing.T) {
	cloner := &fakeCloner{err: errors.New("authentication required")}
	p := NewPacker(nil)
	p.Cloner = cloner
	p.TempRoot = t.TempDir()
	dest := filepath.Join(t.TempDir(), "out.md")

	_, err := p.Run(context.Background(), Request{
		Config:      config.Default(),
		Source:      "git@github.com:example/private.git",
		Destination: dest,
	})

	assert.Equal(t, packerr.KindAcquisition, packerr.KindOf(err))
	assert.NoFileExists(t, dest)
	require.Len(t, cloner.dirs, 1)
	assert.NoDirExists(t, cloner.dirs[0])
}
