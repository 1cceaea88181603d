package core

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/core/status"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// Selector designates the mirror paths to customize: either a path prefix, a glob pattern such as
// "guides/**/*.md", or the files carrying some tags
type Selector struct {
	Path string
	Tags []string
}

func (s Selector) String() string {
	if len(s.Tags) > 0 {
		return "tags " + strings.Join(s.Tags, ",")
	}
	return s.Path
}

// CustomizeResult reports the effects of a customization
type CustomizeResult struct {
	Selector string `json:"selector"`

	// Added entries to the customized paths
	Added []string `json:"added"`

	// Copied files from the mirror
	Copied []string `json:"copied"`

	// Kept local files, which differ from the mirror and were left untouched
	Kept []string `json:"kept,omitempty"`

	// AlreadyCustomized files were covered by an existing customization
	AlreadyCustomized []string `json:"already_customized,omitempty"`

	Publish overlay.Report `json:"publish"`
}

// Customize promotes mirror paths to locally owned copies.
//
// A path selector customizes every mirror file under that path, and records the path itself.
// A tag selector customizes every mirror file carrying one of the tags and passing the tag filters,
// and records each file individually. An empty selector designates the project subtree in project mode.
func (m *Manager) Customize(ctx context.Context, sel Selector) (CustomizeResult, error) {
	s, err := m.Settings()
	if err != nil {
		return CustomizeResult{}, err
	}
	if sel.Path == "" && len(sel.Tags) == 0 {
		if s.Mode != model.ModeProject {
			return CustomizeResult{}, status.ErrInvalidSelector.WrapMessage("a path or a tag is required")
		}
		sel.Path = model.ProjectPrefix
	}
	if sel.Path != "" && len(sel.Tags) > 0 {
		return CustomizeResult{}, status.ErrInvalidSelector.WrapMessage("select either a path or tags, not both")
	}

	listing, err := m.listing(ctx)
	if err != nil {
		return CustomizeResult{}, err
	}

	targets, recorded, err := m.selectTargets(sel, s.Filters, listing)
	if err != nil {
		return CustomizeResult{}, err
	}

	p, err := m.publisher()
	if err != nil {
		return CustomizeResult{}, err
	}

	result := CustomizeResult{
		Selector: sel.String(),
		Added:    []string{},
		Copied:   []string{},
	}
	covered := s.CustomizedPaths
	if s.Mode == model.ModeFull {
		// every path is owned already
		result.AlreadyCustomized = entryPaths(targets)
		result.Publish, err = m.publish(s, listing, p)
		return result, err
	}

	for _, target := range targets {
		if covered.Covers(target.Path) {
			result.AlreadyCustomized = append(result.AlreadyCustomized, target.Path)
			continue
		}
		outcome, err := m.materialize(target.Path, target.Hash, p.Strategy())
		if err != nil {
			return result, err
		}
		switch outcome {
		case materialized:
			result.Copied = append(result.Copied, target.Path)
		case keptLocal:
			m.l.Warn("keeping local file which differs from the mirror", zap.String("path", target.Path))
			result.Kept = append(result.Kept, target.Path)
		}
	}

	customized := covered
	for _, rel := range recorded {
		if customized.Covers(rel) {
			continue
		}
		customized = customized.Add(rel)
		result.Added = append(result.Added, rel)
	}
	s = s.WithCustomizedPaths(customized)

	report, applyErr := m.publish(s, listing, p)
	result.Publish = report
	if err = m.save(s); err != nil {
		return result, err
	}
	return result, applyErr
}

// selectTargets resolves a selector to the mirror files to customize, and the paths to record as customized
func (m *Manager) selectTargets(sel Selector, filters model.Filters, listing model.Listing) ([]model.MirrorEntry, []string, error) {
	var targets []model.MirrorEntry

	if len(sel.Tags) > 0 {
		wanted := model.NewTags(sel.Tags...)
		if len(wanted) == 0 {
			return nil, nil, status.ErrInvalidSelector.WrapMessage("empty tag")
		}
		for _, e := range listing {
			if e.Tags.Intersects(wanted) && filters.Passes(e.Tags) {
				targets = append(targets, e)
			}
		}
		if len(targets) == 0 {
			return nil, nil, status.ErrNothingToCustomize.WrapMessage("no published file carries tags %s", strings.Join(wanted, ", "))
		}
		return targets, entryPaths(targets), nil
	}

	if isPattern(sel.Path) {
		return selectMatching(sel.Path, filters, listing)
	}

	prefix, err := pathset.Clean(sel.Path)
	if err != nil {
		return nil, nil, status.ErrInvalidSelector.Wrap(err)
	}
	var filtered int
	for _, e := range listing {
		if !pathset.IsUnder(e.Path, prefix) {
			continue
		}
		if !filters.Passes(e.Tags) {
			filtered++
			continue
		}
		targets = append(targets, e)
	}
	if len(targets) == 0 {
		if filtered > 0 {
			return nil, nil, status.ErrNothingToCustomize.WrapMessage("all %d files under %s are excluded by tag filters", filtered, prefix)
		}
		return nil, nil, status.ErrNothingToCustomize.WrapMessage("no mirror file under %s", prefix)
	}
	return targets, []string{prefix}, nil
}

func isPattern(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// selectMatching resolves a glob pattern. Matching files are recorded individually.
func selectMatching(pattern string, filters model.Filters, listing model.Listing) ([]model.MirrorEntry, []string, error) {
	pattern = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(pattern), "\\", "/"), "./")
	var (
		targets  []model.MirrorEntry
		filtered int
	)
	for _, e := range listing {
		ok, err := doublestar.Match(pattern, e.Path)
		if err != nil {
			return nil, nil, status.ErrInvalidSelector.WrapMessage("%q: %v", pattern, err)
		}
		if !ok {
			continue
		}
		if !filters.Passes(e.Tags) {
			filtered++
			continue
		}
		targets = append(targets, e)
	}
	if len(targets) == 0 {
		if filtered > 0 {
			return nil, nil, status.ErrNothingToCustomize.WrapMessage("all %d files matching %s are excluded by tag filters", filtered, pattern)
		}
		return nil, nil, status.ErrNothingToCustomize.WrapMessage("no mirror file matches %s", pattern)
	}
	return targets, entryPaths(targets), nil
}

func entryPaths(entries []model.MirrorEntry) []string {
	res := make([]string, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.Path)
	}
	return res
}
