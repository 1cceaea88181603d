// Package fingerprint computes content hashes for mirror and workspace files.
//
// Hashes are hex-encoded blake2b digests. Two files with the same content always yield the same
// fingerprint, regardless of their name, mode or modification time.
package fingerprint

import (
	"encoding/hex"
	"hash"
	"io"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/spf13/afero"
)

// DefaultSize is the digest size in bytes
const DefaultSize uint8 = 32

// Option tunes a Maker
type Option func(*Maker)

// Size sets the digest size, in bytes (at most 64)
func Size(sz uint8) Option {
	return func(m *Maker) {
		if sz == 0 || sz > blake2b.Size {
			return
		}
		m.size = sz
	}
}

// New fingerprint maker
func New(opts ...Option) *Maker {
	m := &Maker{
		size: DefaultSize,
	}

	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Maker knows how to fingerprint content
type Maker struct {
	size uint8
}

func (m *Maker) hasher() (hash.Hash, error) {
	return blake2b.New(&blake2b.Config{
		Size: m.size,
	})
}

// Reader fingerprints the content of a reader
func (m *Maker) Reader(r io.Reader) (string, error) {
	h, err := m.hasher()
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes fingerprints a buffer
func (m *Maker) Bytes(data []byte) string {
	h, err := m.hasher()
	if err != nil {
		// the configuration is validated by the options
		panic(err)
	}
	//#nosec
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// File fingerprints a file. Symbolic links are followed when the file system supports them.
func (m *Maker) File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	return m.Reader(f)
}

var defaultMaker = New()

// Bytes fingerprints a buffer with the default settings
func Bytes(data []byte) string {
	return defaultMaker.Bytes(data)
}

// Reader fingerprints a reader with the default settings
func Reader(r io.Reader) (string, error) {
	return defaultMaker.Reader(r)
}

// File fingerprints a file with the default settings
func File(fs afero.Fs, path string) (string, error) {
	return defaultMaker.File(fs, path)
}
