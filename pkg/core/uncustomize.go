package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/core/status"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// UncustomizeOptions tune an uncustomization
type UncustomizeOptions struct {
	// DryRun reports what would be discarded, without changing anything
	DryRun bool

	// Force discards modified and local-only files
	Force bool
}

// EntryResult is the outcome of uncustomizing a single customized path
type EntryResult struct {
	Path    string     `json:"path"`
	Diff    DiffResult `json:"diff"`
	Removed []string   `json:"removed,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// AtRisk lists the files which are (or would be) lost
func (e EntryResult) AtRisk() []string {
	return e.Diff.AtRisk()
}

// UncustomizeResult reports the effects of an uncustomization
type UncustomizeResult struct {
	DryRun  bool           `json:"dry_run"`
	Entries []EntryResult  `json:"entries"`
	Publish overlay.Report `json:"publish"`
}

// AtRisk lists the files of all entries which are (or would be) lost
func (r UncustomizeResult) AtRisk() []string {
	var res []string
	for _, e := range r.Entries {
		res = append(res, e.AtRisk()...)
	}
	return res
}

// Uncustomize demotes a customized path back to mirror publications.
//
// Every customized entry equal to or nested under rel is uncustomized. When some local files differ from
// the mirror or have no mirror counterpart, the operation fails with ErrDestructiveLoss and changes nothing,
// unless forced. A dry run only reports the files at risk.
func (m *Manager) Uncustomize(ctx context.Context, rel string, opts UncustomizeOptions) (UncustomizeResult, error) {
	s, err := m.Settings()
	if err != nil {
		return UncustomizeResult{}, err
	}
	if s.Mode == model.ModeFull {
		return UncustomizeResult{}, status.ErrFullMode.WrapMessage("every path is locally owned: change the mode first")
	}

	clean, err := pathset.Clean(rel)
	if err != nil {
		return UncustomizeResult{}, status.ErrInvalidSelector.Wrap(err)
	}
	entries := s.CustomizedPaths.Under(clean)
	if len(entries) == 0 {
		if covering, ok := s.CustomizedPaths.Covering(clean); ok {
			return UncustomizeResult{}, status.ErrPathNotCustomized.WrapMessage(
				"%s is covered by the customized path %s: uncustomize %s instead", clean, covering, covering)
		}
		return UncustomizeResult{}, status.ErrPathNotCustomized.WrapMessage("%s", clean)
	}

	inspector, err := m.inspector()
	if err != nil {
		return UncustomizeResult{}, err
	}

	result := UncustomizeResult{DryRun: opts.DryRun}
	var atRisk []string
	for _, entry := range entries {
		d, err := m.diff(ctx, entry, inspector)
		if err != nil {
			return result, err
		}
		result.Entries = append(result.Entries, EntryResult{Path: entry, Diff: d})
		atRisk = append(atRisk, d.AtRisk()...)
	}

	if opts.DryRun {
		return result, nil
	}
	if len(atRisk) > 0 && !opts.Force {
		return result, destructiveLoss(atRisk)
	}

	p, err := m.publisher()
	if err != nil {
		return result, err
	}
	customized := s.CustomizedPaths
	for i, entry := range entries {
		removed, err := m.discard(result.Entries[i].Diff)
		result.Entries[i].Removed = removed
		if err != nil {
			return result, err
		}
		customized = customized.Remove(entry)
	}
	s = s.WithCustomizedPaths(customized)

	return m.finishUncustomize(ctx, s, p, result)
}

// UncustomizeAll uncustomizes every customized path independently.
//
// A path which fails, including because local changes would be lost, does not prevent the others from being
// processed. All outcomes are reported, and all errors are returned together.
func (m *Manager) UncustomizeAll(ctx context.Context, opts UncustomizeOptions) (UncustomizeResult, error) {
	s, err := m.Settings()
	if err != nil {
		return UncustomizeResult{}, err
	}
	if s.Mode == model.ModeFull {
		return UncustomizeResult{}, status.ErrFullMode.WrapMessage("every path is locally owned: change the mode first")
	}
	entries := s.CustomizedPathList()
	if len(entries) == 0 {
		return UncustomizeResult{DryRun: opts.DryRun, Entries: []EntryResult{}}, nil
	}

	inspector, err := m.inspector()
	if err != nil {
		return UncustomizeResult{}, err
	}

	result := UncustomizeResult{DryRun: opts.DryRun}
	customized := s.CustomizedPaths
	var errs error
	for _, entry := range entries {
		er, err := m.uncustomizeEntry(ctx, entry, opts, inspector)
		if err != nil {
			er.Error = err.Error()
			errs = multierr.Append(errs, err)
			m.l.Warn("cannot uncustomize", zap.String("path", entry), zap.Error(err))
		} else if !opts.DryRun {
			customized = customized.Remove(entry)
		}
		result.Entries = append(result.Entries, er)
	}
	if opts.DryRun || customized.Equal(s.CustomizedPaths) {
		// nothing was uncustomized
		return result, errs
	}

	p, err := m.publisher()
	if err != nil {
		return result, multierr.Append(errs, err)
	}
	result, err = m.finishUncustomize(ctx, s.WithCustomizedPaths(customized), p, result)
	return result, multierr.Append(errs, err)
}

func (m *Manager) uncustomizeEntry(ctx context.Context, entry string, opts UncustomizeOptions, strategy overlay.LinkStrategy) (EntryResult, error) {
	er := EntryResult{Path: entry}
	d, err := m.diff(ctx, entry, strategy)
	if err != nil {
		return er, err
	}
	er.Diff = d
	if opts.DryRun {
		return er, nil
	}
	if atRisk := d.AtRisk(); len(atRisk) > 0 && !opts.Force {
		return er, destructiveLoss(atRisk)
	}
	er.Removed, err = m.discard(d)
	return er, err
}

// discard removes the local files of a diff
func (m *Manager) discard(d DiffResult) ([]string, error) {
	removed := make([]string, 0, len(d.Entries))
	dirs := make(map[string]struct{})
	for _, e := range d.Entries {
		pth := m.layout.DocsPath(e.Name)
		if err := m.fs.Remove(pth); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, e.Name)
		dirs[filepath.Dir(pth)] = struct{}{}
	}
	for dir := range dirs {
		m.pruneEmpty(dir)
	}
	return removed, nil
}

func (m *Manager) finishUncustomize(ctx context.Context, s model.Settings, p *overlay.Publisher, result UncustomizeResult) (UncustomizeResult, error) {
	listing, err := m.listing(ctx)
	if err != nil {
		return result, err
	}
	report, applyErr := m.publish(s, listing, p)
	result.Publish = report
	if err = m.save(s); err != nil {
		return result, err
	}
	return result, applyErr
}

func destructiveLoss(files []string) error {
	const maxListed = 10
	listed := files
	more := ""
	if len(listed) > maxListed {
		listed = listed[:maxListed]
		more = ", ..."
	}
	return status.ErrDestructiveLoss.WrapMessage("%d file(s) modified or local-only: %s%s (use --force to discard, or --dry-run to review)",
		len(files), strings.Join(listed, ", "), more)
}
