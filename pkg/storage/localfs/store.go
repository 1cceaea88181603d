// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/oneconcern/docoverlay/pkg/storage"
	"github.com/oneconcern/docoverlay/pkg/storage/status"
)

// New creates a new local file system backed storage model, rooted at dir.
//
// Puts are atomic: objects are written to a temporary file in the target directory, then renamed into place.
func New(fs afero.Fs, dir string) storage.Store {
	return &localFS{
		fs:   fs,
		root: filepath.Clean(dir),
	}
}

type localFS struct {
	fs   afero.Fs
	root string
}

func (l *localFS) location(key string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(key), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", status.ErrInvalidKey.WrapMessage("%q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	loc, err := l.location(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(loc)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.WrapMessage("%q", key)
	}
	loc, _ := l.location(key)
	return l.fs.Open(loc)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	loc, err := l.location(key)
	if err != nil {
		return err
	}
	if exclusive {
		has, e := l.Has(ctx, key)
		if e != nil {
			return e
		}
		if has {
			return status.ErrExists.WrapMessage("%q", key)
		}
	}
	return WriteAtomic(l.fs, loc, source, 0644)
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	loc, err := l.location(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(loc); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %v", key, err)
	}
	return nil
}

// Keys walks the store and returns all regular file keys, sorted.
//
// Keys are slash-separated paths relative to the store root.
func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	var res []string
	exists, err := afero.DirExists(l.fs, l.root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{}, nil
	}
	e := afero.Walk(l.fs, l.root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if isTempFile(info.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.root, pth)
		if err != nil {
			return err
		}
		res = append(res, filepath.ToSlash(rel))
		return nil
	})
	if e != nil {
		return nil, e
	}
	sort.Strings(res)
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	return l.fs.RemoveAll(l.root)
}

func (l *localFS) String() string {
	const localfs = "localfs"
	return localfs + "@" + l.root
}
