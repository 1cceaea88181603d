package overlay

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay/status"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// SymlinkName is the name of the symbolic link strategy
const SymlinkName = "symlink"

// SymlinkStrategy publishes mirror paths as relative symbolic links
type SymlinkStrategy struct {
	fs     afero.Fs
	linker afero.Symlinker
	layout model.Layout
}

// NewSymlinkStrategy builds a symbolic link strategy. It fails when the file system cannot handle links.
func NewSymlinkStrategy(fs afero.Fs, layout model.Layout) (*SymlinkStrategy, error) {
	linker, ok := fs.(afero.Symlinker)
	if !ok {
		return nil, status.ErrLinkCreation.WrapMessage("file system %s does not support symbolic links", fs.Name())
	}
	return &SymlinkStrategy{fs: fs, linker: linker, layout: layout}, nil
}

// Name of the strategy
func (s *SymlinkStrategy) Name() string {
	return SymlinkName
}

// readLink returns the target of a link and true, or false if the path is not a link
func (s *SymlinkStrategy) readLink(pth string) (string, bool, error) {
	fi, _, err := s.linker.LstatIfPossible(pth)
	if err != nil {
		return "", false, err
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return "", false, nil
	}
	target, err := s.linker.ReadlinkIfPossible(pth)
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}

// pointsIntoMirror tells if a link target resolves inside the mirror
func (s *SymlinkStrategy) pointsIntoMirror(linkPath, target string) bool {
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	rel, err := filepath.Rel(s.layout.MirrorDir(), filepath.Clean(target))
	if err != nil {
		return false
	}
	_, err = pathset.Clean(filepath.ToSlash(rel))
	return err == nil
}

// Inspect a published path
func (s *SymlinkStrategy) Inspect(rel, _ string) (LinkState, error) {
	pth := s.layout.DocsPath(rel)
	target, isLink, err := s.readLink(pth)
	if err != nil {
		if os.IsNotExist(err) {
			return LinkAbsent, nil
		}
		return LinkAbsent, err
	}
	if !isLink {
		return LinkOwned, nil
	}

	expected, err := s.layout.LinkTarget(rel)
	if err != nil {
		return LinkAbsent, err
	}
	if target == expected {
		return LinkCurrent, nil
	}
	if s.pointsIntoMirror(pth, target) {
		return LinkStale, nil
	}
	return LinkOwned, nil
}

// Manages tells if a mirror link stands at the path
func (s *SymlinkStrategy) Manages(rel string) (bool, error) {
	pth := s.layout.DocsPath(rel)
	target, isLink, err := s.readLink(pth)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return isLink && s.pointsIntoMirror(pth, target), nil
}

// Publish a relative link to the mirror
func (s *SymlinkStrategy) Publish(rel string) error {
	pth := s.layout.DocsPath(rel)
	target, err := s.layout.LinkTarget(rel)
	if err != nil {
		return err
	}
	if err = s.fs.MkdirAll(filepath.Dir(pth), 0755); err != nil {
		return err
	}
	if err = s.Retract(rel); err != nil {
		return err
	}
	if err = s.linker.SymlinkIfPossible(target, pth); err != nil {
		return status.ErrLinkCreation.Wrap(err)
	}
	return nil
}

// Retract a mirror link
func (s *SymlinkStrategy) Retract(rel string) error {
	managed, err := s.Manages(rel)
	if err != nil || !managed {
		return err
	}
	return s.fs.Remove(s.layout.DocsPath(rel))
}

// Release removes the link: the path is left for a locally owned copy
func (s *SymlinkStrategy) Release(rel string) error {
	return s.Retract(rel)
}

// Managed lists all mirror links in the published view
func (s *SymlinkStrategy) Managed() ([]string, error) {
	root := s.layout.DocsDir()
	exists, err := afero.DirExists(s.fs, root)
	if err != nil || !exists {
		return []string{}, err
	}

	res := make([]string, 0, 100)
	err = afero.Walk(s.fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		target, err := s.linker.ReadlinkIfPossible(pth)
		if err != nil {
			return err
		}
		if !s.pointsIntoMirror(pth, target) {
			return nil
		}
		rel, err := s.layout.DocsRel(pth)
		if err != nil {
			return err
		}
		res = append(res, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(res)
	return res, nil
}

// Commit is a no-op: links are their own record
func (s *SymlinkStrategy) Commit() error {
	return nil
}
