// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"

	"github.com/oneconcern/docoverlay/pkg/storage/status"
)

// KeyFilter tells if a key is visible
type KeyFilter func(string) bool

// Filtered restricts a store to the keys accepted by keep.
//
// Hidden keys are neither listed nor readable. Writes to hidden keys are refused.
func Filtered(store Store, keep KeyFilter) Store {
	return &filteredStore{
		store: store,
		keep:  keep,
	}
}

type filteredStore struct {
	store Store
	keep  KeyFilter
}

func (f *filteredStore) String() string {
	return f.store.String()
}

func (f *filteredStore) Has(ctx context.Context, key string) (bool, error) {
	if !f.keep(key) {
		return false, nil
	}
	return f.store.Has(ctx, key)
}

func (f *filteredStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if !f.keep(key) {
		return nil, status.ErrNotExists.WrapMessage("%q", key)
	}
	return f.store.Get(ctx, key)
}

func (f *filteredStore) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if !f.keep(key) {
		return status.ErrInvalidKey.WrapMessage("%q is filtered out", key)
	}
	return f.store.Put(ctx, key, source, exclusive)
}

func (f *filteredStore) Delete(ctx context.Context, key string) error {
	if !f.keep(key) {
		return nil
	}
	return f.store.Delete(ctx, key)
}

func (f *filteredStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := f.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	res := keys[:0]
	for _, key := range keys {
		if f.keep(key) {
			res = append(res, key)
		}
	}
	return res, nil
}

// Clear only removes the visible keys
func (f *filteredStore) Clear(ctx context.Context) error {
	keys, err := f.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := f.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
