package model

import (
	"encoding/hex"
	"sort"

	units "github.com/docker/go-units"
	blake2b "github.com/minio/blake2b-simd"
)

// MirrorEntry describes a file held by the mirror
type MirrorEntry struct {
	Path string `json:"path" yaml:"path"`
	Hash string `json:"hash" yaml:"hash"`
	Size int64  `json:"size" yaml:"size"`
	Tags Tags   `json:"tags,omitempty" yaml:"tags,omitempty"`
	_    struct{}
}

// Listing is a collection of mirror entries, sorted by path
type Listing []MirrorEntry

// NewListing sorts entries by path
func NewListing(entries []MirrorEntry) Listing {
	res := make(Listing, len(entries))
	copy(res, entries)
	sort.Slice(res, func(i, j int) bool { return res[i].Path < res[j].Path })
	return res
}

// Hashes indexes the content hash of each entry by path
func (l Listing) Hashes() map[string]string {
	res := make(map[string]string, len(l))
	for _, e := range l {
		res[e.Path] = e.Hash
	}
	return res
}

// Lookup an entry by path
func (l Listing) Lookup(pth string) (MirrorEntry, bool) {
	i := sort.Search(len(l), func(i int) bool { return l[i].Path >= pth })
	if i < len(l) && l[i].Path == pth {
		return l[i], true
	}
	return MirrorEntry{}, false
}

// Size sums the size of all entries
func (l Listing) Size() int64 {
	var total int64
	for _, e := range l {
		total += e.Size
	}
	return total
}

// Digest hashes all paths and content hashes into a single version identifier
func (l Listing) Digest() (string, error) {
	// Compute hash of level 1 root key
	hasher, err := blake2b.New(&blake2b.Config{
		Size: 64,
		Tree: &blake2b.Tree{
			Fanout:        0,
			MaxDepth:      2,
			LeafSize:      5 * units.MiB,
			NodeOffset:    0,
			NodeDepth:     1,
			InnerHashSize: 64,
			IsLastNode:    true,
		},
	})
	if err != nil {
		return "", err
	}

	for _, entry := range l {
		//#nosec
		_, _ = hasher.Write([]byte(entry.Path))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.Write([]byte(entry.Hash))
		_, _ = hasher.Write([]byte{'\n'})
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
