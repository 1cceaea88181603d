package core

import (
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

// Snapshot hashes the published content of some paths. Links are followed. Paths with no
// published content are left out of the snapshot.
func Snapshot(fs afero.Fs, layout model.Layout, paths []string) (model.ContentState, error) {
	state := make(model.ContentState, len(paths))
	for _, rel := range paths {
		hash, err := fingerprint.File(fs, layout.DocsPath(rel))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		state[rel] = hash
	}
	return state, nil
}

// DetectDrift lists, in lexical order, the paths whose hash differs between two snapshots.
// Paths present in only one snapshot have drifted.
func DetectDrift(current, saved model.ContentState) []string {
	drifted := make([]string, 0, len(current))
	for rel, hash := range current {
		if previous, ok := saved[rel]; !ok || previous != hash {
			drifted = append(drifted, rel)
		}
	}
	for rel := range saved {
		if _, ok := current[rel]; !ok {
			drifted = append(drifted, rel)
		}
	}
	sort.Strings(drifted)
	return drifted
}

// publishedPaths lists the paths exposed in the published view
func publishedPaths(res overlay.Resolution) []string {
	paths := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.State != model.Excluded {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

func (m *Manager) snapshot(s model.Settings, listing model.Listing) (model.ContentState, error) {
	return Snapshot(m.fs, m.layout, publishedPaths(resolve(s, listing)))
}
