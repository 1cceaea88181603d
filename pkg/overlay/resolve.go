// Package overlay computes and applies the published view of a mirror.
//
// Resolve is a pure function of the mode, the customized paths, the tag filters and
// the mirror listing. A Publisher applies a resolution to the workspace through a
// LinkStrategy, which exposes mirrored paths either as symbolic links or as managed copies.
package overlay

import (
	"fmt"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// Warning about a resolution
type Warning struct {
	Path      string `json:"path" yaml:"path"`
	CoveredBy string `json:"covered_by,omitempty" yaml:"covered_by,omitempty"`
	Message   string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Resolution is the publish mapping of every mirror path
type Resolution struct {
	Entries  []model.PublishEntry `json:"entries" yaml:"entries"`
	Warnings []Warning            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Resolve the publish mapping.
//
// Filtered out paths are excluded, whatever their customization. Remaining paths are customized
// when the mode is full or when they are covered by a customized path, and mirrored otherwise.
// Entries follow the order of the listing.
func Resolve(mode model.Mode, customized pathset.Set, filters model.Filters, listing model.Listing) Resolution {
	res := Resolution{
		Entries: make([]model.PublishEntry, 0, len(listing)),
	}

	for _, entry := range listing {
		pe := model.PublishEntry{
			Path:  entry.Path,
			State: model.Mirrored,
		}
		coveredBy, covered := customized.Covering(entry.Path)
		if covered {
			pe.CoveredBy = coveredBy
		}

		switch {
		case !filters.Passes(entry.Tags):
			pe.State = model.Excluded
			if covered {
				res.Warnings = append(res.Warnings, Warning{
					Path:      entry.Path,
					CoveredBy: coveredBy,
					Message:   "customized path is excluded by tag filters and is not published",
				})
			}
		case mode == model.ModeFull || covered:
			pe.State = model.Customized
		}

		if mode == model.ModeProject && pathset.IsUnder(entry.Path, model.ProjectPrefix) {
			pe.Customizable = true
		}

		res.Entries = append(res.Entries, pe)
	}
	return res
}

// Lookup the publish entry of a path
func (r Resolution) Lookup(pth string) (model.PublishEntry, bool) {
	for _, e := range r.Entries {
		if e.Path == pth {
			return e, true
		}
	}
	return model.PublishEntry{}, false
}

// Paths in a given state
func (r Resolution) Paths(state model.PublishState) []string {
	res := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.State == state {
			res = append(res, e.Path)
		}
	}
	return res
}

// Counts the entries per state
func (r Resolution) Counts() map[model.PublishState]int {
	res := map[model.PublishState]int{
		model.Mirrored:   0,
		model.Customized: 0,
		model.Excluded:   0,
	}
	for _, e := range r.Entries {
		res[e.State]++
	}
	return res
}
