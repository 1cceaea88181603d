package mirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/docoverlay/pkg/mirror/status"
	"github.com/oneconcern/docoverlay/pkg/storage"
	"github.com/oneconcern/docoverlay/pkg/storage/localfs"
)

// Syncer populates a store with the complete upstream content
type Syncer interface {
	String() string
	Sync(context.Context, storage.Store) (int, error)
}

// DirSyncer copies upstream content from a local directory.
//
// Version control metadata directories are skipped.
type DirSyncer struct {
	fs  afero.Fs
	dir string
}

// NewDirSyncer builds a syncer copying the content of a local directory
func NewDirSyncer(fs afero.Fs, dir string) *DirSyncer {
	return &DirSyncer{fs: fs, dir: filepath.Clean(dir)}
}

func (d *DirSyncer) String() string {
	return d.dir
}

var skippedDirs = []string{".git", ".hg", ".svn"}

func keepUpstream(key string) bool {
	first := strings.SplitN(key, "/", 2)[0]
	for _, skipped := range skippedDirs {
		if first == skipped {
			return false
		}
	}
	return true
}

// Sync copies all upstream files into the destination store
func (d *DirSyncer) Sync(ctx context.Context, dest storage.Store) (int, error) {
	isDir, err := afero.IsDir(d.fs, d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, status.ErrSourceNotFound.WrapMessage("%s", d.dir)
		}
		return 0, err
	}
	if !isDir {
		return 0, status.ErrSourceNotFound.WrapMessage("%s is not a directory", d.dir)
	}
	return storage.Copy(ctx, storage.Filtered(localfs.New(d.fs, d.dir), keepUpstream), dest)
}

// IsRemote tells if a docs repo designates a remote source, such as "gh:owner/repo" or a URL
func IsRemote(repo string) bool {
	return strings.HasPrefix(repo, "gh:") || strings.Contains(repo, "://") || strings.HasPrefix(repo, "git@")
}

// SourceFor resolves the syncer for a docs repo. Relative local paths are resolved against the workspace root.
//
// Remote sources are not fetched here: they must be checked out by an external tool, then synced from the local checkout.
func SourceFor(fs afero.Fs, root, repo string) (Syncer, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, status.ErrSourceNotFound.WrapMessage("no upstream source configured")
	}
	if IsRemote(repo) {
		return nil, status.ErrUnsupportedSource.WrapMessage("%s: check it out locally, then sync from the checkout directory", repo)
	}
	if !filepath.IsAbs(repo) {
		repo = filepath.Join(root, repo)
	}
	return NewDirSyncer(fs, repo), nil
}

// Refresh replaces the content of the mirror with the content provided by the syncer.
//
// The new content is assembled in a staging directory, then swapped in: on failure the mirror is left untouched.
func (m *Mirror) Refresh(ctx context.Context, syncer Syncer) (int, error) {
	staging := m.layout.MirrorStagingDir()
	retired := m.layout.MirrorRetiredDir()

	if err := m.fs.RemoveAll(staging); err != nil {
		return 0, status.ErrSync.Wrap(err)
	}
	if err := m.fs.MkdirAll(staging, 0755); err != nil {
		return 0, status.ErrSync.Wrap(err)
	}

	n, err := syncer.Sync(ctx, localfs.New(m.fs, staging))
	if err != nil {
		_ = m.fs.RemoveAll(staging)
		return 0, status.ErrSync.Wrap(err)
	}
	m.l.Debug("staged upstream content", zap.Stringer("source", syncer), zap.Int("files", n))

	if err = m.swap(staging, retired); err != nil {
		_ = m.fs.RemoveAll(staging)
		return 0, status.ErrSync.Wrap(err)
	}
	return n, nil
}

func (m *Mirror) swap(staging, retired string) error {
	root := m.Root()
	if err := m.fs.RemoveAll(retired); err != nil {
		return err
	}

	exists, err := m.Exists()
	if err != nil {
		return err
	}
	if exists {
		if err = m.fs.Rename(root, retired); err != nil {
			return err
		}
	}

	if err = m.fs.Rename(staging, root); err != nil {
		if exists {
			// restore the previous mirror
			_ = m.fs.Rename(retired, root)
		}
		return err
	}
	return m.fs.RemoveAll(retired)
}
