package overlay

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/errors"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay/status"
)

// AutoName selects the strategy by probing the capabilities of the file system
const AutoName = "auto"

const probeName = ".link-probe"

// StrategyNames lists the accepted strategy names
var StrategyNames = []string{AutoName, SymlinkName, CopyName}

// NewStrategy builds a link strategy by name.
//
// The symlink strategy falls back to copies for paths where links cannot be created. The auto strategy
// uses links only if the file system accepts them.
func NewStrategy(fs afero.Fs, layout model.Layout, name string, l *zap.Logger) (LinkStrategy, error) {
	if l == nil {
		l = zap.NewNop()
	}
	copies, err := NewCopyStrategy(fs, layout)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case CopyName:
		return copies, nil
	case SymlinkName:
		links, err := NewSymlinkStrategy(fs, layout)
		if err != nil {
			l.Warn("symbolic links are not supported, publishing copies", zap.Error(err))
			return copies, nil
		}
		return WithFallback(links, copies, l), nil
	case AutoName, "":
		return Probe(fs, layout, copies, l), nil
	default:
		return nil, fmt.Errorf("unknown link strategy %q: expected one of %s", name, strings.Join(StrategyNames, ", "))
	}
}

// NewInspector builds a strategy recognizing every kind of publication, without probing the file system.
// It only serves read-only inspections: it never writes anything until Publish is called.
func NewInspector(fs afero.Fs, layout model.Layout) (LinkStrategy, error) {
	copies, err := NewCopyStrategy(fs, layout)
	if err != nil {
		return nil, err
	}
	links, err := NewSymlinkStrategy(fs, layout)
	if err != nil {
		return copies, nil
	}
	return WithFallback(links, copies, zap.NewNop()), nil
}

// Probe selects symbolic links when the file system supports them, and copies otherwise
func Probe(fs afero.Fs, layout model.Layout, copies LinkStrategy, l *zap.Logger) LinkStrategy {
	links, err := NewSymlinkStrategy(fs, layout)
	if err == nil {
		err = probeLink(fs, links, layout.StateDir())
	}
	if err != nil {
		l.Warn("symbolic links are not available, publishing copies", zap.Error(err))
		return copies
	}
	return WithFallback(links, copies, l)
}

func probeLink(fs afero.Fs, links *SymlinkStrategy, dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, probeName)
	_ = fs.Remove(probe)
	if err := links.linker.SymlinkIfPossible(probeName+".target", probe); err != nil {
		return status.ErrLinkCreation.Wrap(err)
	}
	return fs.Remove(probe)
}

// WithFallback combines a primary strategy with a secondary one, used for paths where the primary
// strategy fails to create a link
func WithFallback(primary, secondary LinkStrategy, l *zap.Logger) LinkStrategy {
	return &fallbackStrategy{primary: primary, secondary: secondary, l: l}
}

type fallbackStrategy struct {
	primary   LinkStrategy
	secondary LinkStrategy
	l         *zap.Logger
}

func (f *fallbackStrategy) Name() string {
	return f.primary.Name()
}

func (f *fallbackStrategy) pick(rel string) (LinkStrategy, error) {
	managed, err := f.secondary.Manages(rel)
	if err != nil {
		return nil, err
	}
	if managed {
		return f.secondary, nil
	}
	return f.primary, nil
}

func (f *fallbackStrategy) Inspect(rel, mirrorHash string) (LinkState, error) {
	s, err := f.pick(rel)
	if err != nil {
		return LinkAbsent, err
	}
	return s.Inspect(rel, mirrorHash)
}

func (f *fallbackStrategy) Manages(rel string) (bool, error) {
	managed, err := f.secondary.Manages(rel)
	if err != nil || managed {
		return managed, err
	}
	return f.primary.Manages(rel)
}

func (f *fallbackStrategy) Publish(rel string) error {
	if err := f.secondary.Retract(rel); err != nil {
		return err
	}
	err := f.primary.Publish(rel)
	if err == nil || !errors.Is(err, status.ErrLinkCreation) {
		return err
	}
	f.l.Warn("cannot link, publishing a copy", zap.String("path", rel), zap.Error(err))
	return f.secondary.Publish(rel)
}

func (f *fallbackStrategy) Retract(rel string) error {
	s, err := f.pick(rel)
	if err != nil {
		return err
	}
	return s.Retract(rel)
}

func (f *fallbackStrategy) Release(rel string) error {
	s, err := f.pick(rel)
	if err != nil {
		return err
	}
	return s.Release(rel)
}

func (f *fallbackStrategy) Managed() ([]string, error) {
	primary, err := f.primary.Managed()
	if err != nil {
		return nil, err
	}
	secondary, err := f.secondary.Managed()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	res := make([]string, 0, len(primary)+len(secondary))
	for _, rel := range append(primary, secondary...) {
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		res = append(res, rel)
	}
	sort.Strings(res)
	return res, nil
}

func (f *fallbackStrategy) Commit() error {
	if err := f.primary.Commit(); err != nil {
		return err
	}
	return f.secondary.Commit()
}
