// Copyright © 2018 One Concern

package localfs

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/docoverlay/pkg/storage"
	"github.com/oneconcern/docoverlay/pkg/storage/status"
)

const testRoot = "/store"

func TestHas(t *testing.T) {
	bs, _ := setupStore(t)

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "nested/seventeentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	require.False(t, has)

	has, err = bs.Has(context.Background(), "nested")
	require.NoError(t, err)
	require.False(t, has)

	_, err = bs.Has(context.Background(), "../escape")
	require.ErrorIs(t, err, status.ErrInvalidKey)
}

func TestGet(t *testing.T) {
	bs, _ := setupStore(t)

	rdr, err := bs.Get(context.Background(), "sixteentons")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	_, err = bs.Get(context.Background(), "fifteentons")
	require.ErrorIs(t, err, status.ErrNotExists)
}

func TestKeys(t *testing.T) {
	bs, fs := setupStore(t)
	// staged files are invisible
	require.NoError(t, afero.WriteFile(fs, testRoot+"/"+tempPrefix+"x-123", []byte("partial"), 0600))

	keys, err := bs.Keys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"nested/seventeentons", "sixteentons"}, keys)

	empty := New(fs, "/nowhere")
	keys, err = empty.Keys(context.Background())
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestDelete(t *testing.T) {
	bs, _ := setupStore(t)

	require.NoError(t, bs.Delete(context.Background(), "nested/seventeentons"))
	require.NoError(t, bs.Delete(context.Background(), "nested/seventeentons"))
	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 1)
}

func TestClear(t *testing.T) {
	bs, _ := setupStore(t)

	require.NoError(t, bs.Clear(context.Background()))
	k, _ := bs.Keys(context.Background())
	require.Empty(t, k)
}

func TestPut(t *testing.T) {
	bs, fs := setupStore(t)

	content := bytes.NewBufferString("here we go once again")
	err := bs.Put(context.Background(), "deep/eighteentons", content, storage.NoOverWrite)
	require.NoError(t, err)

	b, err := afero.ReadFile(fs, testRoot+"/deep/eighteentons")
	require.NoError(t, err)
	assert.Equal(t, "here we go once again", string(b))

	err = bs.Put(context.Background(), "deep/eighteentons", bytes.NewBufferString("again"), storage.NoOverWrite)
	require.ErrorIs(t, err, status.ErrExists)

	require.NoError(t, bs.Put(context.Background(), "deep/eighteentons", bytes.NewBufferString("again"), storage.OverWrite))
	b, err = afero.ReadFile(fs, testRoot+"/deep/eighteentons")
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))

	k, _ := bs.Keys(context.Background())
	assert.Len(t, k, 3)
}

func TestCopy(t *testing.T) {
	bs, fs := setupStore(t)
	dest := New(fs, "/copy")

	n, err := storage.Copy(context.Background(), bs, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := dest.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/seventeentons", "sixteentons"}, keys)
	assert.Equal(t, "localfs@/copy", dest.String())
}

func TestWriteAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteFileAtomic(fs, "/a/b/c.txt", []byte("v1"), 0600))
	require.NoError(t, WriteFileAtomic(fs, "/a/b/c.txt", []byte("v2"), 0644))

	b, err := afero.ReadFile(fs, "/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))

	entries, err := afero.ReadDir(fs, "/a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1, "no staged file should be left behind")

	require.NoError(t, CopyFileAtomic(fs, "/a/b/c.txt", "/d/e.txt", 0644))
	b, err = afero.ReadFile(fs, "/d/e.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
}

func setupStore(t testing.TB) (storage.Store, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testRoot+"/sixteentons", []byte("this is the text"), 0644))
	require.NoError(t, afero.WriteFile(fs, testRoot+"/nested/seventeentons", []byte("this is the text for another thing"), 0644))

	return New(fs, testRoot), fs
}
