// Package mirror gives read access to the mirror, the complete local copy of upstream content,
// and refreshes it from an upstream source.
//
// The mirror is never filtered: tag filters only affect what gets published.
package mirror

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oneconcern/docoverlay/pkg/errors"
	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/mirror/status"
	"github.com/oneconcern/docoverlay/pkg/storage"
	"github.com/oneconcern/docoverlay/pkg/storage/localfs"
	storagestatus "github.com/oneconcern/docoverlay/pkg/storage/status"
	"github.com/oneconcern/docoverlay/pkg/tags"
)

const defaultConcurrency = 8

// Mirror of the upstream content of a workspace
type Mirror struct {
	fs     afero.Fs
	layout model.Layout
	store  storage.Store
	index  *tags.Index
	l      *zap.Logger

	concurrency int
}

// Option configures a Mirror
type Option func(*Mirror)

// Logger sets the logger of the mirror
func Logger(l *zap.Logger) Option {
	return func(m *Mirror) {
		m.l = l
	}
}

// Index sets the tag index used to resolve tags of mirror entries
func Index(x *tags.Index) Option {
	return func(m *Mirror) {
		m.index = x
	}
}

// Concurrency sets the number of files read in parallel when listing entries. It defaults to 8.
func Concurrency(n int) Option {
	return func(m *Mirror) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// New mirror for the workspace layout
func New(fs afero.Fs, layout model.Layout, opts ...Option) *Mirror {
	m := &Mirror{
		fs:     fs,
		layout: layout,
		l:      zap.NewNop(),

		concurrency: defaultConcurrency,
	}
	for _, apply := range opts {
		apply(m)
	}
	if m.index == nil {
		m.index = tags.NewIndex(fs, tags.Logger(m.l))
	}
	m.store = storage.Instrument(m.l, localfs.New(fs, layout.MirrorDir()))
	return m
}

// Root directory of the mirror
func (m *Mirror) Root() string {
	return m.layout.MirrorDir()
}

// Path of a relative path in the mirror
func (m *Mirror) Path(rel string) string {
	return m.layout.MirrorPath(rel)
}

// Exists tells if the mirror has been populated
func (m *Mirror) Exists() (bool, error) {
	return afero.DirExists(m.fs, m.Root())
}

// List the relative paths of all files held by the mirror, sorted
func (m *Mirror) List(ctx context.Context) ([]string, error) {
	return m.store.Keys(ctx)
}

// Has tells if the mirror holds a file
func (m *Mirror) Has(ctx context.Context, rel string) (bool, error) {
	return m.store.Has(ctx, rel)
}

// Open a file from the mirror
func (m *Mirror) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	rdr, err := m.store.Get(ctx, rel)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return nil, status.ErrNotInMirror.WrapMessage("%s", rel)
		}
		return nil, err
	}
	return rdr, nil
}

// ReadFile reads a file from the mirror
func (m *Mirror) ReadFile(ctx context.Context, rel string) ([]byte, error) {
	rdr, err := m.Open(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rdr.Close()
	}()
	return io.ReadAll(rdr)
}

// Hash of a file held by the mirror
func (m *Mirror) Hash(ctx context.Context, rel string) (string, error) {
	rdr, err := m.Open(ctx, rel)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = rdr.Close()
	}()
	return fingerprint.Reader(rdr)
}

// Entries lists all files held by the mirror, with their content hash, size and tags.
//
// Files are read concurrently.
func (m *Mirror) Entries(ctx context.Context) (model.Listing, error) {
	keys, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.MirrorEntry, len(keys))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(m.concurrency)
	for i, key := range keys {
		i, key := i, key
		group.Go(func() error {
			content, err := m.ReadFile(gctx, key)
			if err != nil {
				return err
			}
			hash := fingerprint.Bytes(content)
			entries[i] = model.MirrorEntry{
				Path: key,
				Hash: hash,
				Size: int64(len(content)),
				Tags: m.index.TagsOfContent(filepath.Join(m.Root(), key), hash, content),
			}
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}
	return model.NewListing(entries), nil
}

// Stats summarize the content of the mirror
type Stats struct {
	Files   int    `json:"files" yaml:"files"`
	Size    int64  `json:"size" yaml:"size"`
	Version string `json:"version" yaml:"version"`
}

// StatsOf a listing
func StatsOf(listing model.Listing) (Stats, error) {
	digest, err := listing.Digest()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Files:   len(listing),
		Size:    listing.Size(),
		Version: digest,
	}, nil
}

// Stats of the mirror
func (m *Mirror) Stats(ctx context.Context) (Stats, error) {
	listing, err := m.Entries(ctx)
	if err != nil {
		return Stats{}, err
	}
	return StatsOf(listing)
}
