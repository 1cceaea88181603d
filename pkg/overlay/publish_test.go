package overlay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oneconcern/docoverlay/pkg/mirror"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay/status"
	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// noLinks hides the link capabilities of a file system
type noLinks struct {
	afero.Fs
}

// brokenLinks refuses to create links whose path contains one of the fragments
type brokenLinks struct {
	afero.Fs
	linker    afero.Symlinker
	fragments []string
}

func newBrokenLinks(fs afero.Fs, fragments ...string) *brokenLinks {
	return &brokenLinks{Fs: fs, linker: fs.(afero.Symlinker), fragments: fragments}
}

func (b *brokenLinks) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	return b.linker.LstatIfPossible(name)
}

func (b *brokenLinks) ReadlinkIfPossible(name string) (string, error) {
	return b.linker.ReadlinkIfPossible(name)
}

func (b *brokenLinks) SymlinkIfPossible(oldname, newname string) error {
	for _, fragment := range b.fragments {
		if strings.Contains(filepath.ToSlash(newname), fragment) {
			return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: errors.New("operation not permitted")}
		}
	}
	return b.linker.SymlinkIfPossible(oldname, newname)
}

var upstream = map[string]string{
	"general/a.md":       "---\ntags: [python]\n---\nA",
	"general/b.md":       "---\ntags: [go]\n---\nB",
	"project/specs/c.md": "C",
	"project/d.md":       "D",
}

func workspace(t testing.TB, fs afero.Fs, root string) (model.Layout, model.Listing) {
	t.Helper()
	layout := model.NewLayout(root)
	for rel, content := range upstream {
		require.NoError(t, afero.WriteFile(fs, layout.MirrorPath(rel), []byte(content), 0644))
	}
	return layout, listingOf(t, fs, layout)
}

func listingOf(t testing.TB, fs afero.Fs, layout model.Layout) model.Listing {
	t.Helper()
	listing, err := mirror.New(fs, layout).Entries(context.Background())
	require.NoError(t, err)
	return listing
}

func readDoc(t testing.TB, fs afero.Fs, layout model.Layout, rel string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, layout.DocsPath(rel))
	require.NoError(t, err)
	return string(b)
}

func TestApplyCopies(t *testing.T) {
	fs := noLinks{Fs: afero.NewMemMapFs()}
	layout, listing := workspace(t, fs, "/work")

	strategy, err := NewStrategy(fs, layout, AutoName, nil)
	require.NoError(t, err)
	require.Equal(t, CopyName, strategy.Name())
	p := NewPublisher(fs, layout, strategy, nil)

	res := Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing)
	report, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Len(t, report.Created, 4)
	assert.Equal(t, "C", readDoc(t, fs, layout, "project/specs/c.md"))

	exists, err := afero.Exists(fs, layout.ManifestFile())
	require.NoError(t, err)
	assert.True(t, exists)

	// idempotent
	again, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Zero(t, again.Changed())
	assert.Equal(t, 4, again.Unchanged)

	// a new strategy reads the manifest back
	reloaded, err := NewCopyStrategy(fs, layout)
	require.NoError(t, err)
	managed, err := reloaded.Managed()
	require.NoError(t, err)
	assert.Len(t, managed, 4)
}

func TestApplyCopiesLifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout, listing := workspace(t, fs, "/work")
	strategy, err := NewStrategy(fs, layout, CopyName, nil)
	require.NoError(t, err)
	p := NewPublisher(fs, layout, strategy, nil)

	_, err = p.Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing), listing)
	require.NoError(t, err)

	// the user edits a mirrored copy
	require.NoError(t, afero.WriteFile(fs, layout.DocsPath("general/a.md"), []byte("mine"), 0644))
	state, err := strategy.Inspect("general/a.md", listing[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, LinkOwned, state)

	report, err := p.Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing), listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"general/a.md"}, report.Conflicts)
	assert.Equal(t, "mine", readDoc(t, fs, layout, "general/a.md"))

	// upstream changes are picked up by unmodified copies
	require.NoError(t, afero.WriteFile(fs, layout.MirrorPath("project/d.md"), []byte("D2"), 0644))
	require.NoError(t, fs.Remove(layout.MirrorPath("project/specs/c.md")))
	listing = listingOf(t, fs, layout)

	excludeGo := model.Filters{ExcludeTags: model.NewTags("go", "python")}
	report, err = p.Apply(Resolve(model.ModeMirror, pathset.New(), excludeGo, listing), listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md"}, report.Updated)
	assert.ElementsMatch(t, []string{"general/b.md", "project/specs/c.md"}, report.Removed)
	assert.Equal(t, []string{"general/a.md"}, report.Kept, "edited copies are never removed")
	assert.Equal(t, "D2", readDoc(t, fs, layout, "project/d.md"))

	exists, err := afero.Exists(fs, layout.DocsPath("general/b.md"))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.DirExists(fs, filepath.Dir(layout.DocsPath("project/specs/c.md")))
	require.NoError(t, err)
	assert.False(t, exists, "emptied directories are pruned")

	// the mirror is never touched
	assert.Equal(t, len(upstream)-1, len(listingOf(t, fs, layout)))
}

func TestApplyOwnedInTheWay(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout, listing := workspace(t, fs, "/work")
	require.NoError(t, afero.WriteFile(fs, layout.DocsPath("project/d.md"), []byte("D"), 0644))
	require.NoError(t, afero.WriteFile(fs, layout.DocsPath("general/b.md"), []byte("different"), 0644))

	strategy, err := NewCopyStrategy(fs, layout)
	require.NoError(t, err)
	p := NewPublisher(fs, layout, strategy, nil)

	report, err := p.Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing), listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md"}, report.Replaced)
	assert.Equal(t, []string{"general/b.md"}, report.Conflicts)
	assert.Equal(t, "different", readDoc(t, fs, layout, "general/b.md"))
}

func TestApplyCustomized(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout, listing := workspace(t, fs, "/work")
	strategy, err := NewCopyStrategy(fs, layout)
	require.NoError(t, err)
	p := NewPublisher(fs, layout, strategy, nil)

	_, err = p.Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing), listing)
	require.NoError(t, err)

	report, err := p.Apply(Resolve(model.ModeMirror, pathset.New("project"), model.Filters{}, listing), listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md", "project/specs/c.md"}, report.Released)
	assert.Empty(t, report.Missing)

	managed, err := strategy.Managed()
	require.NoError(t, err)
	assert.Equal(t, []string{"general/a.md", "general/b.md"}, managed)

	// released copies are owned: excluding them keeps them
	report, err = p.Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{IncludeTags: model.NewTags("go")}, listing), listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md", "project/specs/c.md"}, report.Kept)
	assert.Equal(t, []string{"general/a.md"}, report.Removed)
}

func TestApplySymlinks(t *testing.T) {
	fs := afero.NewOsFs()
	layout, listing := workspace(t, fs, t.TempDir())

	strategy, err := NewStrategy(fs, layout, AutoName, nil)
	require.NoError(t, err)
	require.Equal(t, SymlinkName, strategy.Name())
	p := NewPublisher(fs, layout, strategy, nil)

	res := Resolve(model.ModeMirror, pathset.New("general/b.md"), model.Filters{}, listing)
	report, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Len(t, report.Created, 3)
	assert.Equal(t, []string{"general/b.md"}, report.Missing)

	target, err := os.Readlink(layout.DocsPath("project/specs/c.md"))
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target))
	assert.Equal(t, "C", readDoc(t, fs, layout, "project/specs/c.md"))

	again, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Zero(t, again.Changed())
	assert.Equal(t, 3, again.Unchanged)

	// a link to a stale location is replaced
	pth := layout.DocsPath("project/d.md")
	require.NoError(t, os.Remove(pth))
	require.NoError(t, os.Symlink(filepath.Join(layout.MirrorDir(), "project", "specs", "c.md"), pth))
	state, err := strategy.Inspect("project/d.md", "")
	require.NoError(t, err)
	assert.Equal(t, LinkStale, state)

	report, err = p.Apply(res, listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md"}, report.Updated)
	assert.Equal(t, "D", readDoc(t, fs, layout, "project/d.md"))

	// customizing releases the link
	res = Resolve(model.ModeMirror, pathset.New("project"), model.Filters{}, listing)
	report, err = p.Apply(res, listing)
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md", "project/specs/c.md"}, report.Released)
	assert.ElementsMatch(t, []string{"project/d.md", "project/specs/c.md"}, report.Missing)

	assert.Equal(t, []string{"general/b.md"}, report.Created)

	managed, err := strategy.Managed()
	require.NoError(t, err)
	assert.Equal(t, []string{"general/a.md", "general/b.md"}, managed)
}

func TestCopyStrategyRetract(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout, _ := workspace(t, fs, "/work")
	c, err := NewCopyStrategy(fs, layout)
	require.NoError(t, err)

	require.NoError(t, c.Publish("general/a.md"))
	require.NoError(t, afero.WriteFile(fs, layout.DocsPath("general/a.md"), []byte("edited"), 0644))
	err = c.Retract("general/a.md")
	require.ErrorIs(t, err, status.ErrConflict)

	require.NoError(t, c.Release("general/a.md"))
	managed, err := c.Manages("general/a.md")
	require.NoError(t, err)
	assert.False(t, managed)
	assert.Equal(t, "edited", readDoc(t, fs, layout, "general/a.md"))

	require.NoError(t, c.Commit())
	exists, err := afero.Exists(fs, layout.ManifestFile())
	require.NoError(t, err)
	assert.False(t, exists, "empty manifests are removed")

	require.NoError(t, afero.WriteFile(fs, layout.ManifestFile(), []byte("files: [not, a, map"), 0644))
	_, err = NewCopyStrategy(fs, layout)
	require.ErrorIs(t, err, status.ErrManifestCorrupt)
}

func TestUnknownStrategy(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := NewStrategy(fs, model.NewLayout("/work"), "hardlink", nil)
	require.Error(t, err)

	s, err := NewStrategy(noLinks{Fs: fs}, model.NewLayout("/work"), SymlinkName, nil)
	require.NoError(t, err)
	assert.Equal(t, CopyName, s.Name())
}

func TestLinkCreationFallsBackToCopies(t *testing.T) {
	fs := newBrokenLinks(afero.NewOsFs(), "/docs/project/")
	layout, listing := workspace(t, fs, t.TempDir())
	core, logs := observer.New(zapcore.WarnLevel)

	strategy, err := NewStrategy(fs, layout, SymlinkName, zap.New(core))
	require.NoError(t, err)
	require.Equal(t, SymlinkName, strategy.Name())
	p := NewPublisher(fs, layout, strategy, nil)

	res := Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing)
	report, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Len(t, report.Created, 4)
	assert.Empty(t, report.Missing)
	assert.Equal(t, 2, logs.FilterMessage("cannot link, publishing a copy").Len())

	// paths refused by the file system are published as managed copies
	for _, rel := range []string{"project/d.md", "project/specs/c.md"} {
		fi, err := os.Lstat(layout.DocsPath(rel))
		require.NoError(t, err)
		assert.True(t, fi.Mode().IsRegular(), rel)
	}
	assert.Equal(t, "D", readDoc(t, fs, layout, "project/d.md"))
	fi, err := os.Lstat(layout.DocsPath("general/a.md"))
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink)

	copies, err := NewCopyStrategy(fs, layout)
	require.NoError(t, err)
	managed, err := copies.Managed()
	require.NoError(t, err)
	assert.Equal(t, []string{"project/d.md", "project/specs/c.md"}, managed)

	all, err := strategy.Managed()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	again, err := p.Apply(res, listing)
	require.NoError(t, err)
	assert.Zero(t, again.Changed())
	assert.Equal(t, 4, again.Unchanged)
	assert.Equal(t, 2, logs.FilterMessage("cannot link, publishing a copy").Len())
}

func TestAutoStrategyWithoutLinks(t *testing.T) {
	fs := newBrokenLinks(afero.NewOsFs(), "/")
	layout, listing := workspace(t, fs, t.TempDir())

	strategy, err := NewStrategy(fs, layout, AutoName, nil)
	require.NoError(t, err)
	assert.Equal(t, CopyName, strategy.Name())

	report, err := NewPublisher(fs, layout, strategy, nil).Apply(Resolve(model.ModeMirror, pathset.New(), model.Filters{}, listing), listing)
	require.NoError(t, err)
	assert.Len(t, report.Created, 4)
}
