package tags

import (
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
)

const defaultCacheSize = 1024

// Index resolves the tags of files, caching results by content hash
type Index struct {
	fs    afero.Fs
	cache *lru.Cache
	l     *zap.Logger
}

// IndexOption configures an Index
type IndexOption func(*Index)

// Logger sets the logger used to report malformed front-matter
func Logger(l *zap.Logger) IndexOption {
	return func(x *Index) {
		x.l = l
	}
}

// CacheSize sets the number of tag sets kept in cache
func CacheSize(size int) IndexOption {
	return func(x *Index) {
		if size <= 0 {
			return
		}
		c, err := lru.New(size)
		if err != nil {
			return
		}
		x.cache = c
	}
}

// NewIndex builds a tag index reading files from fs
func NewIndex(fs afero.Fs, opts ...IndexOption) *Index {
	c, _ := lru.New(defaultCacheSize)
	x := &Index{
		fs:    fs,
		cache: c,
		l:     zap.NewNop(),
	}
	for _, apply := range opts {
		apply(x)
	}
	return x
}

// TagsOf a file. Unreadable front-matter is logged and yields no tags.
func (x *Index) TagsOf(pth string) (model.Tags, error) {
	content, err := afero.ReadFile(x.fs, pth)
	if err != nil {
		return nil, err
	}
	return x.tagsOfContent(pth, fingerprint.Bytes(content), content), nil
}

// TagsOfContent resolves the tags of some content with a known hash
func (x *Index) TagsOfContent(name, hash string, content []byte) model.Tags {
	return x.tagsOfContent(name, hash, content)
}

func (x *Index) tagsOfContent(name, hash string, content []byte) model.Tags {
	if cached, ok := x.cache.Get(hash); ok {
		return cached.(model.Tags)
	}
	t, err := Parse(content)
	if err != nil {
		x.l.Warn("ignoring front-matter", zap.String("path", name), zap.Error(err))
	}
	x.cache.Add(hash, t)
	return t
}

// Len is the number of cached tag sets
func (x *Index) Len() int {
	return x.cache.Len()
}

// Passes tells if an entry passes the filters
func Passes(entry model.MirrorEntry, filters model.Filters) bool {
	return filters.Passes(entry.Tags)
}

// Filter entries with tag filters
func Filter(entries []model.MirrorEntry, filters model.Filters) []model.MirrorEntry {
	res := make([]model.MirrorEntry, 0, len(entries))
	for _, e := range entries {
		if Passes(e, filters) {
			res = append(res, e)
		}
	}
	return res
}

// Count is the number of files carrying a tag
type Count struct {
	Tag   string `json:"tag" yaml:"tag"`
	Files int    `json:"files" yaml:"files"`
}

// Counts the files per tag, sorted by tag
func Counts(entries []model.MirrorEntry) []Count {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, t := range e.Tags {
			counts[t]++
		}
	}
	res := make([]Count, 0, len(counts))
	for t, n := range counts {
		res = append(res, Count{Tag: t, Files: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Tag < res[j].Tag })
	return res
}
