package core

import (
	"context"

	"github.com/oneconcern/docoverlay/pkg/mirror"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
)

// StatusReport describes the state of a workspace
type StatusReport struct {
	Root            string        `json:"root"`
	Format          string        `json:"format"`
	StoredFormat    string        `json:"stored_format"`
	Mode            model.Mode    `json:"-"`
	ModeName        string        `json:"mode"`
	DocsRepo        string        `json:"docs_repo"`
	Strategy        string        `json:"strategy"`
	LastUpdate      string        `json:"last_update,omitempty"`
	LastCLIVersion  string        `json:"last_cli_version,omitempty"`
	LastDocsVersion string        `json:"last_docs_version,omitempty"`
	Customized      []string      `json:"customized_paths"`
	Filters         model.Filters `json:"filters"`

	MirrorPresent bool         `json:"mirror_present"`
	Mirror        mirror.Stats `json:"mirror"`
	MirrorChanged bool         `json:"mirror_changed"`

	Mirrored     int `json:"mirrored"`
	Owned        int `json:"customized"`
	Excluded     int `json:"excluded"`
	Customizable int `json:"customizable"`

	// Drifted published paths since the last baseline
	Drifted []string `json:"drifted"`

	// Missing customized paths without a local copy
	Missing []string `json:"missing"`

	// Unpublished mirrored paths
	Unpublished []string `json:"unpublished"`

	Warnings []overlay.Warning `json:"warnings,omitempty"`
}

// Healthy tells if the published view is consistent with the settings and the baseline
func (r StatusReport) Healthy() bool {
	return len(r.Drifted) == 0 && len(r.Missing) == 0 && len(r.Unpublished) == 0
}

// Status inspects a workspace. This is read-only.
func (m *Manager) Status(ctx context.Context) (StatusReport, error) {
	stored, err := m.store.ReadFormat()
	if err != nil {
		return StatusReport{}, err
	}
	s, err := m.Settings()
	if err != nil {
		return StatusReport{}, err
	}
	p, err := m.publisher()
	if err != nil {
		return StatusReport{}, err
	}

	r := StatusReport{
		Root:            m.layout.Root,
		Format:          s.Format,
		StoredFormat:    stored.String(),
		Mode:            s.Mode,
		ModeName:        s.Mode.String(),
		DocsRepo:        s.DocsRepo,
		Strategy:        p.Strategy().Name(),
		LastUpdate:      s.LastUpdate,
		LastCLIVersion:  s.LastCLIVersion,
		LastDocsVersion: s.LastDocsVersion,
		Customized:      s.CustomizedPathList(),
		Filters:         s.Filters,
		Drifted:         []string{},
		Missing:         []string{},
		Unpublished:     []string{},
	}

	if r.MirrorPresent, err = m.mirror.Exists(); err != nil {
		return r, err
	}
	listing, err := m.listing(ctx)
	if err != nil {
		return r, err
	}
	if r.Mirror, err = mirror.StatsOf(listing); err != nil {
		return r, err
	}
	r.MirrorChanged = s.LastDocsVersion != "" && s.LastDocsVersion != r.Mirror.Version

	res := resolve(s, listing)
	r.Warnings = res.Warnings
	for _, e := range res.Entries {
		if e.Customizable {
			r.Customizable++
		}
		switch e.State {
		case model.Mirrored:
			r.Mirrored++
			state, err := p.Strategy().Inspect(e.Path, listingHash(listing, e.Path))
			if err != nil {
				return r, err
			}
			if state != overlay.LinkCurrent {
				r.Unpublished = append(r.Unpublished, e.Path)
			}
		case model.Customized:
			r.Owned++
			exists, err := existsNoFollow(m.fs, m.layout.DocsPath(e.Path))
			if err != nil {
				return r, err
			}
			if !exists {
				r.Missing = append(r.Missing, e.Path)
			}
		case model.Excluded:
			r.Excluded++
		}
	}

	current, err := Snapshot(m.fs, m.layout, publishedPaths(res))
	if err != nil {
		return r, err
	}
	r.Drifted = DetectDrift(current, s.ContentState)
	return r, nil
}

func listingHash(listing model.Listing, rel string) string {
	e, _ := listing.Lookup(rel)
	return e.Hash
}
