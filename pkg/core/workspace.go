package core

import (
	"context"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/core/status"
	"github.com/oneconcern/docoverlay/pkg/errors"
	"github.com/oneconcern/docoverlay/pkg/mirror"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
	overlaystatus "github.com/oneconcern/docoverlay/pkg/overlay/status"
	"github.com/oneconcern/docoverlay/pkg/tags"
)

// InitOptions tune the initialization of a workspace
type InitOptions struct {
	Mode     model.Mode
	DocsRepo string

	// From is a local upstream directory to populate the mirror from
	From string
}

// InitResult reports the initialization of a workspace
type InitResult struct {
	AlreadyInitialized bool           `json:"already_initialized"`
	Settings           model.Settings `json:"settings"`
	Sync               *SyncResult    `json:"sync,omitempty"`
}

// Init writes the default settings of a workspace. Existing settings are left untouched.
//
// When an upstream directory is given, the mirror is populated and published.
func (m *Manager) Init(ctx context.Context, opts InitOptions) (InitResult, error) {
	exists, err := m.store.Exists()
	if err != nil {
		return InitResult{}, err
	}
	if exists {
		s, err := m.Settings()
		return InitResult{AlreadyInitialized: true, Settings: s}, err
	}

	s := model.DefaultSettings().WithMode(opts.Mode)
	if opts.DocsRepo != "" {
		s = s.WithDocsRepo(opts.DocsRepo)
	}
	s = m.stamp(s, "")
	if err = m.save(s); err != nil {
		return InitResult{}, err
	}
	m.l.Info("workspace initialized", zap.String("root", m.layout.Root), zap.Stringer("mode", s.Mode))

	res := InitResult{Settings: s}
	if opts.From == "" {
		return res, nil
	}
	sr, err := m.Sync(ctx, opts.From)
	res.Sync = &sr
	if sr.Settings.Format != "" {
		res.Settings = sr.Settings
	}
	return res, err
}

// SyncResult reports a refresh of the mirror
type SyncResult struct {
	Source   string         `json:"source"`
	Files    int            `json:"files"`
	Mirror   mirror.Stats   `json:"mirror"`
	Copied   []string       `json:"copied,omitempty"`
	Publish  overlay.Report `json:"publish"`
	Settings model.Settings `json:"-"`
}

// Sync refreshes the mirror from an upstream directory, or from the configured docs repo when from is empty,
// then publishes the refreshed mirror and re-baselines the content state.
//
// Customized mirror files without local copy are copied, existing local copies are never overwritten.
func (m *Manager) Sync(ctx context.Context, from string) (SyncResult, error) {
	s, err := m.Settings()
	if err != nil {
		return SyncResult{}, err
	}

	var syncer mirror.Syncer
	if from != "" {
		if !filepath.IsAbs(from) {
			if from, err = filepath.Abs(from); err != nil {
				return SyncResult{}, err
			}
		}
		syncer = mirror.NewDirSyncer(m.fs, from)
	} else if syncer, err = mirror.SourceFor(m.fs, m.layout.Root, s.DocsRepo); err != nil {
		return SyncResult{}, err
	}

	n, err := m.mirror.Refresh(ctx, syncer)
	if err != nil {
		return SyncResult{}, err
	}
	res := SyncResult{Source: syncer.String(), Files: n}

	listing, err := m.listing(ctx)
	if err != nil {
		return res, err
	}
	if res.Mirror, err = mirror.StatsOf(listing); err != nil {
		return res, err
	}

	p, err := m.publisher()
	if err != nil {
		return res, err
	}
	if res.Copied, err = m.materializeMissing(s, listing, p.Strategy()); err != nil {
		return res, err
	}

	var applyErr error
	res.Publish, applyErr = m.publish(s, listing, p)

	state, err := m.snapshot(s, listing)
	if err != nil {
		return res, err
	}
	s = m.stamp(s.WithContentState(state), res.Mirror.Version)
	res.Settings = s
	if err = m.save(s); err != nil {
		return res, err
	}
	return res, applyErr
}

// materializeMissing copies the customized mirror files which have no local copy yet
func (m *Manager) materializeMissing(s model.Settings, listing model.Listing, strategy overlay.LinkStrategy) ([]string, error) {
	copied := make([]string, 0, 10)
	for _, e := range resolve(s, listing).Entries {
		if e.State != model.Customized {
			continue
		}
		managed, err := strategy.Manages(e.Path)
		if err != nil {
			return copied, err
		}
		if !managed {
			exists, err := existsNoFollow(m.fs, m.layout.DocsPath(e.Path))
			if err != nil {
				return copied, err
			}
			if exists {
				continue
			}
		}
		mirrorEntry, _ := listing.Lookup(e.Path)
		outcome, err := m.materialize(e.Path, mirrorEntry.Hash, strategy)
		if err != nil {
			return copied, err
		}
		if outcome == materialized {
			copied = append(copied, e.Path)
		}
	}
	return copied, nil
}

// Publish recomputes the published view from the persisted settings and the mirror
func (m *Manager) Publish(ctx context.Context) (overlay.Report, error) {
	s, err := m.Settings()
	if err != nil {
		return overlay.Report{}, err
	}
	listing, err := m.listing(ctx)
	if err != nil {
		return overlay.Report{}, err
	}
	p, err := m.publisher()
	if err != nil {
		return overlay.Report{}, err
	}
	report, applyErr := m.publish(s, listing, p)
	// persists upgraded settings, if any
	if err = m.save(s); err != nil {
		return report, err
	}
	return report, applyErr
}

// Unpublish retracts every mirror publication from the published view.
//
// Locally owned files, including managed copies edited since they were published, are left in place.
// The settings and the mirror are not changed: publishing again restores the view.
func (m *Manager) Unpublish(ctx context.Context) (overlay.Report, error) {
	if _, err := m.Settings(); err != nil {
		return overlay.Report{}, err
	}
	strategy, err := m.inspector()
	if err != nil {
		return overlay.Report{}, err
	}
	report := overlay.Report{Strategy: strategy.Name()}
	managed, err := strategy.Managed()
	if err != nil {
		return report, err
	}

	var errs error
	dirs := make(map[string]struct{})
	for _, rel := range managed {
		if err = ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		err = strategy.Retract(rel)
		switch {
		case errors.Is(err, overlaystatus.ErrConflict):
			if err = strategy.Release(rel); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			m.l.Warn("keeping a published copy modified since it was published", zap.String("path", rel))
			report.Kept = append(report.Kept, rel)
		case err != nil:
			errs = multierr.Append(errs, err)
		default:
			report.Removed = append(report.Removed, rel)
			dirs[filepath.Dir(m.layout.DocsPath(rel))] = struct{}{}
		}
	}
	for dir := range dirs {
		m.pruneEmpty(dir)
	}
	return report, multierr.Append(errs, strategy.Commit())
}

// Rebaseline stores a snapshot of the published content in the settings
func (m *Manager) Rebaseline(ctx context.Context) (model.ContentState, error) {
	s, err := m.Settings()
	if err != nil {
		return nil, err
	}
	listing, err := m.listing(ctx)
	if err != nil {
		return nil, err
	}
	state, err := m.snapshot(s, listing)
	if err != nil {
		return nil, err
	}
	return state, m.save(s.WithContentState(state))
}

// Tags counts the mirror files per tag
func (m *Manager) Tags(ctx context.Context) ([]tags.Count, error) {
	listing, err := m.listing(ctx)
	if err != nil {
		return nil, err
	}
	return tags.Counts(listing), nil
}

func conflicts(report overlay.Report) error {
	if len(report.Conflicts) == 0 {
		return nil
	}
	return status.ErrPublishConflict.WrapMessage("%d local file(s) stand where mirror publications are expected: %v",
		len(report.Conflicts), report.Conflicts)
}
