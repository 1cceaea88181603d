// Package pathset implements an immutable set of relative paths with prefix coverage semantics.
//
// A path in the set covers itself and every path nested under it. The set never holds two entries
// where one covers the other: adding a path which is already covered is a no-op, and adding a
// shorter path prunes the longer entries it supersedes.
//
// The set is backed by an immutable radix tree, so every update returns a new Set and leaves the
// receiver untouched.
package pathset

import (
	"path"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/oneconcern/docoverlay/pkg/errors"
)

// ErrInvalidPath indicates a path which cannot be used as a relative workspace path
var ErrInvalidPath = errors.New("invalid relative path")

const sep = "/"

// Set of relative paths. The zero value is an empty set.
type Set struct {
	tree *iradix.Tree
}

// New builds a set from a list of paths. Invalid paths are ignored.
func New(paths ...string) Set {
	s := Set{}
	for _, p := range paths {
		clean, err := Clean(p)
		if err != nil {
			continue
		}
		s = s.Add(clean)
	}
	return s
}

// Clean normalizes a slash-separated relative path.
//
// It rejects empty paths, absolute paths and paths escaping their root with "..".
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", sep)
	if p == "" {
		return "", ErrInvalidPath.WrapMessage("empty path")
	}
	if strings.HasPrefix(p, sep) {
		return "", ErrInvalidPath.WrapMessage("%q is absolute", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", ErrInvalidPath.WrapMessage("%q designates the root", p)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath.WrapMessage("%q escapes the root", p)
	}
	return cleaned, nil
}

// IsUnder tells if p is equal to prefix or nested under it
func IsUnder(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+sep)
}

func key(p string) []byte {
	return []byte(p + sep)
}

func fromKey(k []byte) string {
	return strings.TrimSuffix(string(k), sep)
}

func (s Set) root() *iradix.Tree {
	if s.tree == nil {
		return iradix.New()
	}
	return s.tree
}

// Len yields the number of entries in the set
func (s Set) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Covering returns the entry covering p, if any.
//
// Since entries never nest, there is at most one such entry and it is also the shortest one.
func (s Set) Covering(p string) (string, bool) {
	if s.Len() == 0 {
		return "", false
	}
	k, _, ok := s.tree.Root().LongestPrefix(key(p))
	if !ok {
		return "", false
	}
	return fromKey(k), true
}

// Covers tells if p is equal to or nested under some entry
func (s Set) Covers(p string) bool {
	_, ok := s.Covering(p)
	return ok
}

// Contains tells if p is exactly an entry of the set
func (s Set) Contains(p string) bool {
	if s.Len() == 0 {
		return false
	}
	_, ok := s.tree.Get(key(p))
	return ok
}

// Under returns the entries equal to or nested under p, in lexical order
func (s Set) Under(p string) []string {
	if s.Len() == 0 {
		return nil
	}
	var res []string
	s.tree.Root().WalkPrefix(key(p), func(k []byte, _ interface{}) bool {
		res = append(res, fromKey(k))
		return false
	})
	return res
}

// Add returns a set including p.
//
// When p is already covered, the receiver is returned unchanged.
// Entries nested under p are pruned.
func (s Set) Add(p string) Set {
	if s.Covers(p) {
		return s
	}
	txn := s.root().Txn()
	_ = txn.DeletePrefix(key(p))
	txn.Insert(key(p), struct{}{})
	return Set{tree: txn.Commit()}
}

// Remove returns a set without the entry p. Entries nested under p are kept.
func (s Set) Remove(p string) Set {
	if !s.Contains(p) {
		return s
	}
	t, _, _ := s.tree.Delete(key(p))
	return Set{tree: t}
}

// Paths returns all entries, in lexical order
func (s Set) Paths() []string {
	if s.Len() == 0 {
		return []string{}
	}
	res := make([]string, 0, s.Len())
	s.tree.Root().Walk(func(k []byte, _ interface{}) bool {
		res = append(res, fromKey(k))
		return false
	})
	return res
}

// Equal tells if both sets hold the same entries
func (s Set) Equal(other Set) bool {
	a, b := s.Paths(), other.Paths()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarshalYAML renders the set as a sorted list
func (s Set) MarshalYAML() (interface{}, error) {
	return s.Paths(), nil
}

// UnmarshalYAML reads a list of paths. Redundant entries are deduplicated.
func (s *Set) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var paths []string
	if err := unmarshal(&paths); err != nil {
		return err
	}
	res := Set{}
	for _, p := range paths {
		clean, err := Clean(p)
		if err != nil {
			return err
		}
		res = res.Add(clean)
	}
	*s = res
	return nil
}
