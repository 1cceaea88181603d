// Package core implements the customization workflow of a workspace: customizing and uncustomizing
// mirror paths, publishing the overlay, diffing owned copies and tracking published content.
//
// Every mutating operation follows the same sequence: load settings (upgrading stale payloads),
// derive updated settings, resolve the publish mapping from scratch, apply it, and save the
// settings atomically. Since the mapping is always recomputed from persisted state, an interrupted
// operation converges when it is run again.
package core

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/mirror"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
	"github.com/oneconcern/docoverlay/pkg/settings"
	"github.com/oneconcern/docoverlay/pkg/storage/localfs"
	"github.com/oneconcern/docoverlay/pkg/tags"
)

// Manager of the overlay of a workspace
type Manager struct {
	fs     afero.Fs
	layout model.Layout
	store  *settings.Store
	mirror *mirror.Mirror
	index  *tags.Index

	strategy     string
	version      string
	tagCacheSize int
	now          func() time.Time
	l            *zap.Logger
}

// New manager for the workspace rooted at root
func New(fs afero.Fs, root string, opts ...Option) *Manager {
	m := &Manager{
		fs:       fs,
		layout:   model.NewLayout(root),
		strategy: overlay.AutoName,
		now:      time.Now,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(m)
	}

	m.store = settings.NewStore(fs, m.layout.SettingsFile(), settings.WithLogger(m.l))
	m.index = tags.NewIndex(fs, tags.Logger(m.l), tags.CacheSize(m.tagCacheSize))
	m.mirror = mirror.New(fs, m.layout, mirror.Logger(m.l), mirror.Index(m.index))
	return m
}

// Layout of the workspace
func (m *Manager) Layout() model.Layout {
	return m.layout
}

// Mirror of the workspace
func (m *Manager) Mirror() *mirror.Mirror {
	return m.mirror
}

// Settings loads the current settings, upgraded to the latest format
func (m *Manager) Settings() (model.Settings, error) {
	s, results, err := m.store.Load()
	if err != nil {
		return model.Settings{}, err
	}
	for _, r := range results {
		m.l.Info("settings format upgraded", zap.Stringer("from", r.From), zap.Stringer("to", r.To))
	}
	return s, nil
}

func (m *Manager) save(s model.Settings) error {
	return m.store.Save(s)
}

func (m *Manager) publisher() (*overlay.Publisher, error) {
	strategy, err := overlay.NewStrategy(m.fs, m.layout, m.strategy, m.l)
	if err != nil {
		return nil, err
	}
	return overlay.NewPublisher(m.fs, m.layout, strategy, m.l), nil
}

// inspector recognizes publications without touching the file system
func (m *Manager) inspector() (overlay.LinkStrategy, error) {
	return overlay.NewInspector(m.fs, m.layout)
}

func (m *Manager) listing(ctx context.Context) (model.Listing, error) {
	return m.mirror.Entries(ctx)
}

func resolve(s model.Settings, listing model.Listing) overlay.Resolution {
	return overlay.Resolve(s.Mode, s.CustomizedPaths, s.Filters, listing)
}

// publish resolves and applies the mapping of the settings. Conflicts are reported as errors.
func (m *Manager) publish(s model.Settings, listing model.Listing, p *overlay.Publisher) (overlay.Report, error) {
	report, err := p.Apply(resolve(s, listing), listing)
	return report, multierr.Append(err, conflicts(report))
}

type materialization uint8

const (
	materialized materialization = iota
	alreadyOwned
	keptLocal
)

// materialize makes a locally owned copy of a mirror file.
//
// Publications are released first, so copies are never written through links. A local file which
// is not a publication, or a managed copy edited by the user, is never overwritten.
func (m *Manager) materialize(rel, mirrorHash string, strategy overlay.LinkStrategy) (materialization, error) {
	managed, err := strategy.Manages(rel)
	if err != nil {
		return keptLocal, err
	}
	if managed {
		state, err := strategy.Inspect(rel, mirrorHash)
		if err != nil {
			return keptLocal, err
		}
		if err = strategy.Release(rel); err != nil {
			return keptLocal, err
		}
		if state == overlay.LinkOwned {
			// a managed copy edited since it was published
			return keptLocal, nil
		}
		return materialized, m.copyFromMirror(rel)
	}

	pth := m.layout.DocsPath(rel)
	fi, err := m.fs.Stat(pth)
	switch {
	case os.IsNotExist(err):
		return materialized, m.copyFromMirror(rel)
	case err != nil:
		return keptLocal, err
	case !fi.Mode().IsRegular():
		return keptLocal, nil
	}

	hash, err := fingerprint.File(m.fs, pth)
	if err != nil {
		return keptLocal, err
	}
	if hash == mirrorHash {
		return alreadyOwned, nil
	}
	return keptLocal, nil
}

func (m *Manager) copyFromMirror(rel string) error {
	return localfs.CopyFileAtomic(m.fs, m.layout.MirrorPath(rel), m.layout.DocsPath(rel), 0644)
}

// pruneEmpty removes empty directories from dir up to the root of the published view
func (m *Manager) pruneEmpty(dir string) {
	root := m.layout.DocsDir()
	for dir != root && len(dir) > len(root) {
		entries, err := afero.ReadDir(m.fs, dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err = m.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (m *Manager) stamp(s model.Settings, docsVersion string) model.Settings {
	return s.WithInstallInfo(m.now().UTC().Format(time.RFC3339), m.version, docsVersion)
}

// existsNoFollow tells if something stands at a path, without following links
func existsNoFollow(fs afero.Fs, pth string) (bool, error) {
	var err error
	if lstater, ok := fs.(afero.Lstater); ok {
		_, _, err = lstater.LstatIfPossible(pth)
	} else {
		_, err = fs.Stat(pth)
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
