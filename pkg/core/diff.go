package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"

	"github.com/oneconcern/docoverlay/pkg/errors"
	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/mirror/status"
	"github.com/oneconcern/docoverlay/pkg/overlay"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

const (
	// DiffEntryTypeUnchanged indicates a local file identical to its mirror counterpart
	DiffEntryTypeUnchanged = iota
	// DiffEntryTypeModified indicates a local file which differs from its mirror counterpart
	DiffEntryTypeModified
	// DiffEntryTypeLocalOnly indicates a local file without mirror counterpart
	DiffEntryTypeLocalOnly
)

// DiffEntryType qualifies the difference between a local file and the mirror
type DiffEntryType uint

func (det DiffEntryType) String() string {
	diffEntryStrings := map[DiffEntryType]string{
		DiffEntryTypeUnchanged: "=",
		DiffEntryTypeModified:  "M",
		DiffEntryTypeLocalOnly: "A",
	}
	return diffEntryStrings[det]
}

// MarshalText renders the type of difference
func (det DiffEntryType) MarshalText() ([]byte, error) {
	names := map[DiffEntryType]string{
		DiffEntryTypeUnchanged: "unchanged",
		DiffEntryTypeModified:  "modified",
		DiffEntryTypeLocalOnly: "local-only",
	}
	return []byte(names[det]), nil
}

// DiffEntry describes a single local file compared with the mirror
type DiffEntry struct {
	Type       DiffEntryType `json:"type"`
	Name       string        `json:"name"`
	LocalHash  string        `json:"local_hash"`
	MirrorHash string        `json:"mirror_hash,omitempty"`
}

// DiffResult describes all owned files under a path, compared with the mirror
type DiffResult struct {
	Path    string      `json:"path"`
	Entries []DiffEntry `json:"entries"`
}

func (d DiffResult) names(t DiffEntryType) []string {
	res := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Type == t {
			res = append(res, e.Name)
		}
	}
	return res
}

// Unchanged files
func (d DiffResult) Unchanged() []string {
	return d.names(DiffEntryTypeUnchanged)
}

// Modified files
func (d DiffResult) Modified() []string {
	return d.names(DiffEntryTypeModified)
}

// LocalOnly files
func (d DiffResult) LocalOnly() []string {
	return d.names(DiffEntryTypeLocalOnly)
}

// AtRisk lists the files which would be lost by discarding the local copy: modified and local-only files
func (d DiffResult) AtRisk() []string {
	res := append(d.Modified(), d.LocalOnly()...)
	sort.Strings(res)
	return res
}

// IsClean tells if all local files are identical to the mirror
func (d DiffResult) IsClean() bool {
	return len(d.AtRisk()) == 0
}

// Diff compares the locally owned files under a path with the mirror.
//
// Publications of the mirror (links and managed copies) are not owned and are skipped.
// This is read-only.
func (m *Manager) Diff(ctx context.Context, rel string) (DiffResult, error) {
	strategy, err := m.inspector()
	if err != nil {
		return DiffResult{}, err
	}
	clean, err := pathset.Clean(rel)
	if err != nil {
		return DiffResult{}, err
	}
	return m.diff(ctx, clean, strategy)
}

// DiffAll compares every customized path with the mirror. In full mode, the whole published view is compared.
func (m *Manager) DiffAll(ctx context.Context) ([]DiffResult, error) {
	s, err := m.Settings()
	if err != nil {
		return nil, err
	}
	strategy, err := m.inspector()
	if err != nil {
		return nil, err
	}

	targets := s.CustomizedPathList()
	if s.Mode == model.ModeFull {
		targets = []string{""}
	}
	res := make([]DiffResult, 0, len(targets))
	for _, target := range targets {
		d, err := m.diff(ctx, target, strategy)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

// diff walks the published view under rel. An empty rel designates the whole view.
func (m *Manager) diff(ctx context.Context, rel string, strategy overlay.LinkStrategy) (DiffResult, error) {
	res := DiffResult{Path: rel, Entries: []DiffEntry{}}
	if rel == "" {
		res.Path = "."
	}

	root := m.layout.DocsDir()
	if rel != "" {
		root = m.layout.DocsPath(rel)
	}
	if _, err := m.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, err
	}

	err := afero.Walk(m.fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if target, e := m.fs.Stat(pth); e == nil && target.IsDir() {
				return nil
			}
		} else if !info.Mode().IsRegular() {
			return nil
		}
		name, err := m.layout.DocsRel(pth)
		if err != nil {
			return err
		}
		managed, err := strategy.Manages(name)
		if err != nil {
			return err
		}
		if managed {
			return nil
		}

		entry, err := m.compare(ctx, name)
		if err != nil {
			return err
		}
		res.Entries = append(res.Entries, entry)
		return nil
	})
	if err != nil {
		return res, err
	}
	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].Name < res.Entries[j].Name })
	return res, nil
}

func (m *Manager) compare(ctx context.Context, name string) (DiffEntry, error) {
	entry := DiffEntry{Name: name}
	local, err := fingerprint.File(m.fs, m.layout.DocsPath(name))
	if err != nil && !os.IsNotExist(err) {
		return entry, err
	}
	// dangling links have no content
	entry.LocalHash = local

	remote, err := m.mirror.Hash(ctx, name)
	switch {
	case errors.Is(err, status.ErrNotInMirror):
		entry.Type = DiffEntryTypeLocalOnly
		return entry, nil
	case err != nil:
		return entry, err
	}

	entry.MirrorHash = remote
	if local == remote {
		entry.Type = DiffEntryTypeUnchanged
	} else {
		entry.Type = DiffEntryTypeModified
	}
	return entry, nil
}

// Patch renders the differences of a local file with its mirror counterpart as a unified diff
func (m *Manager) Patch(ctx context.Context, rel string) (string, error) {
	clean, err := pathset.Clean(rel)
	if err != nil {
		return "", err
	}

	var remote []byte
	has, err := m.mirror.Has(ctx, clean)
	if err != nil {
		return "", err
	}
	if has {
		if remote, err = m.mirror.ReadFile(ctx, clean); err != nil {
			return "", err
		}
	}

	local, err := afero.ReadFile(m.fs, m.layout.DocsPath(clean))
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(remote)),
		B:        difflib.SplitLines(string(local)),
		FromFile: filepath.ToSlash(filepath.Join("mirror", clean)),
		ToFile:   filepath.ToSlash(filepath.Join(model.DocsDirName, clean)),
		Context:  3,
	})
}
