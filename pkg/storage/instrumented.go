// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// Instrument logs every operation on a store at the debug level
func Instrument(l *zap.Logger, store Store) Store {
	return &instrumentedStore{
		store: store,
		l:     l.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store Store
	l     *zap.Logger
}

func (i *instrumentedStore) done(op string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		i.l.Debug("storage operation failed", append(fields, zap.Error(err))...)
		return
	}
	i.l.Debug("storage operation", fields...)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	has, err := i.store.Has(ctx, key)
	i.done("has", start, err, zap.String("key", key))
	return has, err
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rdr, err := i.store.Get(ctx, key)
	i.done("get", start, err, zap.String("key", key))
	return rdr, err
}

func (i *instrumentedStore) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	start := time.Now()
	err := i.store.Put(ctx, key, source, exclusive)
	i.done("put", start, err, zap.String("key", key))
	return err
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.store.Delete(ctx, key)
	i.done("delete", start, err, zap.String("key", key))
	return err
}

func (i *instrumentedStore) Keys(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := i.store.Keys(ctx)
	i.done("keys", start, err, zap.Int("count", len(keys)))
	return keys, err
}

func (i *instrumentedStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := i.store.Clear(ctx)
	i.done("clear", start, err)
	return err
}
