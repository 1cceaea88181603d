package mirror

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/mirror/status"
)

func populate(t testing.TB, fs afero.Fs, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, filepath.FromSlash(rel)), []byte(content), 0644))
	}
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	layout := model.NewLayout("/work")
	populate(t, fs, layout.MirrorDir(), map[string]string{
		"general/a.md":   "---\ntags: [python]\n---\nA",
		"project/b.md":   "B",
		"project/c/d.md": "---\ntags: [go, python]\n---\nD",
	})

	m := New(fs, layout)
	exists, err := m.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	listing, err := m.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, listing, 3)
	assert.Equal(t, "general/a.md", listing[0].Path)
	assert.Equal(t, model.Tags{"python"}, listing[0].Tags)
	assert.Empty(t, listing[1].Tags)
	assert.Equal(t, fingerprint.Bytes([]byte("B")), listing[1].Hash)
	assert.Equal(t, int64(1), listing[1].Size)

	hash, err := m.Hash(ctx, "project/b.md")
	require.NoError(t, err)
	assert.Equal(t, listing[1].Hash, hash)

	_, err = m.Open(ctx, "project/missing.md")
	require.ErrorIs(t, err, status.ErrNotInMirror)

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.NotEmpty(t, stats.Version)

	// the version only depends on paths and content
	again, err := StatsOf(listing)
	require.NoError(t, err)
	assert.Equal(t, stats, again)

	serial, err := New(fs, layout, Concurrency(1)).Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, listing, serial)
}

func TestEmptyMirror(t *testing.T) {
	m := New(afero.NewMemMapFs(), model.NewLayout("/work"))
	exists, err := m.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	listing, err := m.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing)
}

func TestSourceFor(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, remote := range []string{"gh:jlevy/speculate", "https://github.com/x/y", "git@github.com:x/y.git"} {
		_, err := SourceFor(fs, "/work", remote)
		require.ErrorIs(t, err, status.ErrUnsupportedSource, remote)
	}

	_, err := SourceFor(fs, "/work", " ")
	require.ErrorIs(t, err, status.ErrSourceNotFound)

	s, err := SourceFor(fs, "/work", "../upstream/docs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/upstream/docs"), s.String())

	s, err = SourceFor(fs, "/work", "/abs/docs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/abs/docs"), s.String())
}

func TestRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	fs := afero.NewOsFs()
	tmp := t.TempDir()
	layout := model.NewLayout(filepath.Join(tmp, "work"))
	upstream := filepath.Join(tmp, "upstream")

	populate(t, fs, upstream, map[string]string{
		"a.md":      "A",
		"sub/b.md":  "B",
		".git/HEAD": "ref: refs/heads/main",
	})
	populate(t, fs, layout.MirrorDir(), map[string]string{
		"stale.md": "gone after sync",
	})

	m := New(fs, layout)
	n, err := m.Refresh(ctx, NewDirSyncer(fs, upstream))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "sub/b.md"}, keys)

	for _, dir := range []string{layout.MirrorStagingDir(), layout.MirrorRetiredDir()} {
		exists, e := afero.Exists(fs, dir)
		require.NoError(t, e)
		assert.False(t, exists, dir)
	}

	// a failed sync leaves the mirror untouched
	_, err = m.Refresh(ctx, NewDirSyncer(fs, filepath.Join(tmp, "nowhere")))
	require.ErrorIs(t, err, status.ErrSync)
	require.ErrorIs(t, err, status.ErrSourceNotFound)

	keys, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "sub/b.md"}, keys)
}
