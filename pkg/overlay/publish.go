package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/errors"
	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay/status"
)

// Report describes the effects of applying a resolution
type Report struct {
	Strategy string `json:"strategy" yaml:"strategy"`

	// Created, Updated and Replaced mirrored paths were (re)published
	Created  []string `json:"created,omitempty" yaml:"created,omitempty"`
	Updated  []string `json:"updated,omitempty" yaml:"updated,omitempty"`
	Replaced []string `json:"replaced,omitempty" yaml:"replaced,omitempty"`

	// Removed publications were excluded or have left the mirror
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`

	// Released publications were handed over to locally owned copies
	Released []string `json:"released,omitempty" yaml:"released,omitempty"`

	// Kept locally owned files stand at excluded paths or at paths no longer in the mirror
	Kept []string `json:"kept,omitempty" yaml:"kept,omitempty"`

	// Missing customized paths have no locally owned copy
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// Conflicts are locally owned files standing where a mirror publication is expected
	Conflicts []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	Unchanged int       `json:"unchanged" yaml:"unchanged"`
	Warnings  []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Changed counts the paths affected by the apply
func (r Report) Changed() int {
	return len(r.Created) + len(r.Updated) + len(r.Replaced) + len(r.Removed) + len(r.Released)
}

// Publisher applies resolutions to the published view of a workspace
type Publisher struct {
	fs       afero.Fs
	layout   model.Layout
	strategy LinkStrategy
	l        *zap.Logger
}

// NewPublisher builds a publisher using some link strategy
func NewPublisher(fs afero.Fs, layout model.Layout, strategy LinkStrategy, l *zap.Logger) *Publisher {
	if l == nil {
		l = zap.NewNop()
	}
	return &Publisher{
		fs:       fs,
		layout:   layout,
		strategy: strategy,
		l:        l,
	}
}

// Strategy used to publish mirror paths
func (p *Publisher) Strategy() LinkStrategy {
	return p.strategy
}

type applier struct {
	*Publisher
	report  Report
	touched map[string]struct{}
	err     error
}

// Apply a resolution to the published view.
//
// Every path is handled independently: failures are collected and returned together once all
// paths have been processed. Publications of paths no longer in the listing are retracted.
// Applying twice the same resolution over the same listing has no effect the second time.
func (p *Publisher) Apply(res Resolution, listing model.Listing) (Report, error) {
	a := &applier{
		Publisher: p,
		report: Report{
			Strategy: p.strategy.Name(),
			Warnings: res.Warnings,
		},
		touched: make(map[string]struct{}),
	}
	for _, w := range res.Warnings {
		p.l.Warn(w.Message, zap.String("path", w.Path), zap.String("customized", w.CoveredBy))
	}

	for _, entry := range res.Entries {
		var err error
		switch entry.State {
		case model.Mirrored:
			mirrorEntry, _ := listing.Lookup(entry.Path)
			err = a.publish(entry.Path, mirrorEntry.Hash)
		case model.Customized:
			err = a.release(entry.Path)
		case model.Excluded:
			err = a.retract(entry.Path)
		}
		a.collect(entry.Path, err)
	}

	a.sweep(listing)
	a.collect("", p.strategy.Commit())
	a.prune()

	sort.Strings(a.report.Kept)
	return a.report, a.err
}

func (a *applier) collect(rel string, err error) {
	if err == nil {
		return
	}
	if rel != "" {
		err = fmt.Errorf("%s: %w", rel, err)
	}
	a.err = multierr.Append(a.err, err)
}

func (a *applier) touch(rel string) {
	a.touched[filepath.Dir(a.layout.DocsPath(rel))] = struct{}{}
}

func (a *applier) publish(rel, mirrorHash string) error {
	state, err := a.strategy.Inspect(rel, mirrorHash)
	if err != nil {
		return err
	}

	switch state {
	case LinkCurrent:
		a.report.Unchanged++
		return nil
	case LinkAbsent:
		if err = a.strategy.Publish(rel); err != nil {
			return err
		}
		a.report.Created = append(a.report.Created, rel)
		return nil
	case LinkStale:
		if err = a.strategy.Publish(rel); err != nil {
			return err
		}
		a.report.Updated = append(a.report.Updated, rel)
		return nil
	}

	// a file stands in the way: replace it only when nothing would be lost
	pth := a.layout.DocsPath(rel)
	fi, err := a.fs.Stat(pth)
	if err != nil {
		return err
	}
	if fi.Mode().IsRegular() {
		hash, err := fingerprint.File(a.fs, pth)
		if err != nil {
			return err
		}
		if hash == mirrorHash {
			if err = a.strategy.Release(rel); err != nil {
				return err
			}
			if err = a.fs.Remove(pth); err != nil {
				return err
			}
			if err = a.strategy.Publish(rel); err != nil {
				return err
			}
			a.report.Replaced = append(a.report.Replaced, rel)
			return nil
		}
	}

	a.l.Warn("a locally owned file stands where a mirror publication is expected", zap.String("path", rel))
	a.report.Conflicts = append(a.report.Conflicts, rel)
	return nil
}

func (a *applier) release(rel string) error {
	managed, err := a.strategy.Manages(rel)
	if err != nil {
		return err
	}
	if managed {
		if err = a.strategy.Release(rel); err != nil {
			return err
		}
		a.report.Released = append(a.report.Released, rel)
		a.touch(rel)
	}

	exists, err := afero.Exists(a.fs, a.layout.DocsPath(rel))
	if err != nil {
		return err
	}
	if !exists {
		a.report.Missing = append(a.report.Missing, rel)
	}
	return nil
}

func (a *applier) retract(rel string) error {
	managed, err := a.strategy.Manages(rel)
	if err != nil {
		return err
	}
	if managed {
		err = a.strategy.Retract(rel)
		switch {
		case err == nil:
			a.report.Removed = append(a.report.Removed, rel)
			a.touch(rel)
			return nil
		case errors.Is(err, status.ErrConflict):
			// the copy was edited: hand it over rather than removing it
			if err = a.strategy.Release(rel); err != nil {
				return err
			}
		default:
			return err
		}
	}

	exists, err := afero.Exists(a.fs, a.layout.DocsPath(rel))
	if err != nil {
		return err
	}
	if exists {
		a.report.Kept = append(a.report.Kept, rel)
	}
	return nil
}

// sweep retracts publications of paths which left the mirror
func (a *applier) sweep(listing model.Listing) {
	managed, err := a.strategy.Managed()
	if err != nil {
		a.collect("", err)
		return
	}
	for _, rel := range managed {
		if _, ok := listing.Lookup(rel); ok {
			continue
		}
		a.collect(rel, a.retract(rel))
	}
}

// prune removes directories left empty by retracted publications
func (a *applier) prune() {
	root := a.layout.DocsDir()
	dirs := make([]string, 0, len(a.touched))
	for dir := range a.touched {
		dirs = append(dirs, dir)
	}
	// deepest first
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, dir := range dirs {
		for dir != root && len(dir) > len(root) {
			entries, err := afero.ReadDir(a.fs, dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err = a.fs.Remove(dir); err != nil && !os.IsNotExist(err) {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}
