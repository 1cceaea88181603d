package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/docoverlay/pkg/model"
)

func tagged(body string, tags ...string) string {
	if len(tags) == 0 {
		return "# " + body + "\n"
	}
	res := "---\ntags: ["
	for i, t := range tags {
		if i > 0 {
			res += ", "
		}
		res += t
	}
	return res + "]\n---\n# " + body + "\n"
}

// baseFiles holds 10 files: 5 under project, 3 tagged python
func baseFiles() map[string]string {
	return map[string]string{
		"project/p1.md": tagged("p1", "python"),
		"project/p2.md": tagged("p2"),
		"project/p3.md": tagged("p3"),
		"project/p4.md": tagged("p4"),
		"project/p5.md": tagged("p5"),
		"general/g1.md": tagged("g1", "python"),
		"general/g2.md": tagged("g2", "go"),
		"general/g3.md": tagged("g3", "go", "testing"),
		"ref/r1.md":     tagged("r1", "python"),
		"ref/r2.md":     tagged("r2"),
	}
}

type fixture struct {
	fs     afero.Fs
	layout model.Layout
	m      *Manager
}

func writeTree(t testing.TB, fs afero.Fs, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, filepath.FromSlash(rel)), []byte(content), 0644))
	}
}

// newFixture builds a workspace with a populated mirror
func newFixture(t testing.TB, fs afero.Fs, root string, files map[string]string, opts ...Option) *fixture {
	t.Helper()
	m := New(fs, root, opts...)
	writeTree(t, fs, m.Layout().MirrorDir(), files)
	return &fixture{fs: fs, layout: m.Layout(), m: m}
}

// memFixture is an initialized and published workspace on an in-memory file system, publishing copies
func memFixture(t testing.TB, files map[string]string, mode model.Mode) *fixture {
	t.Helper()
	f := newFixture(t, afero.NewMemMapFs(), "/work", files, LinkStrategy("copy"))
	f.init(t, mode)
	return f
}

func (f *fixture) init(t testing.TB, mode model.Mode) {
	t.Helper()
	_, err := f.m.Init(context.Background(), InitOptions{Mode: mode})
	require.NoError(t, err)
	_, err = f.m.Publish(context.Background())
	require.NoError(t, err)
}

func (f *fixture) writeDoc(t testing.TB, rel, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, f.layout.DocsPath(rel), []byte(content), 0644))
}

func (f *fixture) readDoc(t testing.TB, rel string) string {
	t.Helper()
	b, err := afero.ReadFile(f.fs, f.layout.DocsPath(rel))
	require.NoError(t, err)
	return string(b)
}

func (f *fixture) docExists(t testing.TB, rel string) bool {
	t.Helper()
	exists, err := existsNoFollow(f.fs, f.layout.DocsPath(rel))
	require.NoError(t, err)
	return exists
}

// treeOf captures every file under dir: links are recorded with their target
func treeOf(t testing.TB, fs afero.Fs, dir string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	exists, err := afero.DirExists(fs, dir)
	require.NoError(t, err)
	if !exists {
		return tree
	}
	require.NoError(t, afero.Walk(fs, dir, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, pth)
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := fs.(afero.LinkReader).ReadlinkIfPossible(pth)
			if err != nil {
				return err
			}
			tree[filepath.ToSlash(rel)] = "-> " + target
			return nil
		}
		b, err := afero.ReadFile(fs, pth)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(b)
		return nil
	}))
	return tree
}
