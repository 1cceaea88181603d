package model

import (
	"sort"
	"strings"
)

// Tags is a normalized set of classification tags: trimmed, non-empty, unique and sorted.
type Tags []string

// NewTags builds a normalized tag set
func NewTags(tags ...string) Tags {
	seen := make(map[string]struct{}, len(tags))
	res := make(Tags, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}

// Has tells if the tag belongs to the set
func (t Tags) Has(tag string) bool {
	i := sort.SearchStrings(t, tag)
	return i < len(t) && t[i] == tag
}

// Intersects tells if both sets share at least one tag
func (t Tags) Intersects(other Tags) bool {
	for _, tag := range other {
		if t.Has(tag) {
			return true
		}
	}
	return false
}

// With returns a set including the given tags
func (t Tags) With(tags ...string) Tags {
	return NewTags(append(append([]string{}, t...), tags...)...)
}

// Without returns a set excluding the given tags
func (t Tags) Without(tags ...string) Tags {
	drop := NewTags(tags...)
	res := make(Tags, 0, len(t))
	for _, tag := range t {
		if !drop.Has(tag) {
			res = append(res, tag)
		}
	}
	return res
}

// Filters hold the tag inclusion and exclusion rules applied to mirror paths
type Filters struct {
	IncludeTags Tags `json:"include_tags" yaml:"include_tags"`
	ExcludeTags Tags `json:"exclude_tags" yaml:"exclude_tags"`
}

// IsEmpty tells if no filtering rule is set
func (f Filters) IsEmpty() bool {
	return len(f.IncludeTags) == 0 && len(f.ExcludeTags) == 0
}

// Passes applies the filters to a tag set.
//
// A tag set passes when the include list is empty or intersects it, and it does not
// intersect the exclude list. Exclusion wins when both match.
func (f Filters) Passes(tags Tags) bool {
	if len(f.IncludeTags) > 0 && !tags.Intersects(f.IncludeTags) {
		return false
	}
	return !tags.Intersects(f.ExcludeTags)
}

// UnmarshalYAML reads a list of tags and normalizes it
func (t *Tags) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw []string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*t = NewTags(raw...)
	return nil
}
