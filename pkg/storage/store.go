// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

const (
	// NoOverWrite refuses to replace an existing object on Put
	NoOverWrite = true
	// OverWrite replaces any existing object on Put
	OverWrite = false
)

// Store implementations know how to write entries to a K/V model.Store.
//
// Keys are slash-separated relative paths. Typically this is something file system-like.
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	Clear(context.Context) error
}

// Copy all objects from a source store into a destination store
func Copy(ctx context.Context, source, destination Store) (int, error) {
	keys, err := source.Keys(ctx)
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := copyOne(ctx, source, destination, key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

func copyOne(ctx context.Context, source, destination Store, key string) error {
	rdr, err := source.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = rdr.Close()
	}()
	return destination.Put(ctx, key, rdr, OverWrite)
}
