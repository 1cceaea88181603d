package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

// ConfigChange lists the settings to change. Nil fields are left unchanged.
type ConfigChange struct {
	Mode        *model.Mode
	DocsRepo    *string
	IncludeTags []string
	ExcludeTags []string
}

// IsEmpty tells if nothing is changed
func (c ConfigChange) IsEmpty() bool {
	return c.Mode == nil && c.DocsRepo == nil && c.IncludeTags == nil && c.ExcludeTags == nil
}

// ConfigResult reports a configuration change
type ConfigResult struct {
	Settings model.Settings `json:"-"`

	// Copied files from the mirror when entering full mode
	Copied []string `json:"copied,omitempty"`

	// Kept modified files when leaving full mode: they are recorded as customized paths
	Kept []string `json:"kept,omitempty"`

	Publish overlay.Report `json:"publish"`
}

// Configure updates the settings and republishes.
//
// Entering full mode copies every published mirror file locally. Leaving full mode turns the unmodified
// copies back into mirror publications, and keeps modified copies by customizing them. Filtered out
// paths are hidden from the published view: the mirror keeps them.
func (m *Manager) Configure(ctx context.Context, change ConfigChange) (ConfigResult, error) {
	s, err := m.Settings()
	if err != nil {
		return ConfigResult{}, err
	}

	previous := s
	if change.DocsRepo != nil {
		s = s.WithDocsRepo(*change.DocsRepo)
	}
	if change.IncludeTags != nil || change.ExcludeTags != nil {
		filters := s.Filters
		if change.IncludeTags != nil {
			filters.IncludeTags = model.NewTags(change.IncludeTags...)
		}
		if change.ExcludeTags != nil {
			filters.ExcludeTags = model.NewTags(change.ExcludeTags...)
		}
		s = s.WithFilters(filters)
	}
	if change.Mode != nil {
		s = s.WithMode(*change.Mode)
	}

	listing, err := m.listing(ctx)
	if err != nil {
		return ConfigResult{}, err
	}
	p, err := m.publisher()
	if err != nil {
		return ConfigResult{}, err
	}

	result := ConfigResult{}
	switch {
	case s.Mode == model.ModeFull && previous.Mode != model.ModeFull:
		if result.Copied, err = m.materializeMissing(s, listing, p.Strategy()); err != nil {
			return result, err
		}
	case s.Mode != model.ModeFull && previous.Mode == model.ModeFull:
		if s, result.Kept, err = m.keepModified(s, listing); err != nil {
			return result, err
		}
	}

	report, applyErr := m.publish(s, listing, p)
	result.Publish = report
	result.Settings = s
	if err = m.save(s); err != nil {
		return result, err
	}
	return result, applyErr
}

// keepModified customizes the local copies which differ from the mirror and would otherwise be published again
func (m *Manager) keepModified(s model.Settings, listing model.Listing) (model.Settings, []string, error) {
	kept := make([]string, 0, 10)
	customized := s.CustomizedPaths
	for _, e := range resolve(s, listing).Entries {
		if e.State != model.Mirrored {
			continue
		}
		pth := m.layout.DocsPath(e.Path)
		exists, err := existsNoFollow(m.fs, pth)
		if err != nil {
			return s, kept, err
		}
		if !exists {
			continue
		}
		hash, err := fingerprint.File(m.fs, pth)
		if err != nil {
			return s, kept, err
		}
		if hash == listingHash(listing, e.Path) {
			continue
		}
		m.l.Info("keeping modified copy as a customized path", zap.String("path", e.Path))
		customized = customized.Add(e.Path)
		kept = append(kept, e.Path)
	}
	return s.WithCustomizedPaths(customized), kept, nil
}
