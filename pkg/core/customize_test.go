package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/docoverlay/pkg/core/status"
	"github.com/oneconcern/docoverlay/pkg/model"
)

func TestCustomizeProject(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)

	res, err := f.m.Customize(ctx, Selector{Path: "project"})
	require.NoError(t, err)
	assert.Equal(t, []string{"project"}, res.Added)
	assert.Len(t, res.Copied, 5)
	assert.Empty(t, res.Kept)

	s, err := f.m.Settings()
	require.NoError(t, err)
	assert.Equal(t, []string{"project"}, s.CustomizedPathList())

	for rel, content := range baseFiles() {
		assert.Equal(t, content, f.readDoc(t, rel), rel)
	}

	st, err := f.m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Owned)
	assert.Equal(t, 5, st.Mirrored)
	assert.Zero(t, st.Excluded)
	assert.Empty(t, st.Missing)
	assert.Empty(t, st.Unpublished)

	// customizing again changes nothing
	again, err := f.m.Customize(ctx, Selector{Path: "project/p1.md"})
	require.NoError(t, err)
	assert.Empty(t, again.Added)
	assert.Equal(t, []string{"project/p1.md"}, again.AlreadyCustomized)
}

func TestCustomizeByTag(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)
	_, err := f.m.Configure(ctx, ConfigChange{IncludeTags: []string{"python"}})
	require.NoError(t, err)

	res, err := f.m.Customize(ctx, Selector{Tags: []string{"python"}})
	require.NoError(t, err)

	expected := []string{"general/g1.md", "project/p1.md", "ref/r1.md"}
	assert.Equal(t, expected, res.Added)
	assert.Equal(t, expected, res.Copied)

	s, err := f.m.Settings()
	require.NoError(t, err)
	assert.Equal(t, expected, s.CustomizedPathList())
}

func TestCustomizeByTagExclusionWins(t *testing.T) {
	ctx := context.Background()
	files := baseFiles()
	files["ref/r3.md"] = tagged("r3", "python", "excludeMe")
	f := memFixture(t, files, model.ModeMirror)
	_, err := f.m.Configure(ctx, ConfigChange{ExcludeTags: []string{"excludeMe"}})
	require.NoError(t, err)

	res, err := f.m.Customize(ctx, Selector{Tags: []string{"python"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"general/g1.md", "project/p1.md", "ref/r1.md"}, res.Added)
	assert.False(t, f.docExists(t, "ref/r3.md"))
}

func TestCustomizeKeepsLocalContent(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)

	// an owned file already stands in the workspace
	_, err := f.m.Configure(ctx, ConfigChange{ExcludeTags: []string{"go"}})
	require.NoError(t, err)
	f.writeDoc(t, "general/g2.md", "mine")
	_, err = f.m.Configure(ctx, ConfigChange{ExcludeTags: []string{}})
	require.Error(t, err)
	require.ErrorIs(t, err, status.ErrPublishConflict)

	res, err := f.m.Customize(ctx, Selector{Path: "general"})
	require.NoError(t, err)
	assert.Equal(t, []string{"general/g2.md"}, res.Kept)
	assert.Equal(t, []string{"general/g1.md", "general/g3.md"}, res.Copied)
	assert.Equal(t, "mine", f.readDoc(t, "general/g2.md"))
}

func TestCustomizeSelectors(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)

	_, err := f.m.Customize(ctx, Selector{Path: "nowhere"})
	require.ErrorIs(t, err, status.ErrNothingToCustomize)

	_, err = f.m.Customize(ctx, Selector{Tags: []string{"rust"}})
	require.ErrorIs(t, err, status.ErrNothingToCustomize)

	_, err = f.m.Customize(ctx, Selector{})
	require.ErrorIs(t, err, status.ErrInvalidSelector)

	_, err = f.m.Customize(ctx, Selector{Path: "../escape"})
	require.ErrorIs(t, err, status.ErrInvalidSelector)

	_, err = f.m.Customize(ctx, Selector{Path: "ref", Tags: []string{"python"}})
	require.ErrorIs(t, err, status.ErrInvalidSelector)

	_, err = f.m.Configure(ctx, ConfigChange{ExcludeTags: []string{"go"}})
	require.NoError(t, err)
	_, err = f.m.Customize(ctx, Selector{Path: "general/g2.md"})
	require.ErrorIs(t, err, status.ErrNothingToCustomize)
}

func TestCustomizeProjectMode(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeProject)

	st, err := f.m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Customizable)
	assert.Zero(t, st.Owned)

	res, err := f.m.Customize(ctx, Selector{})
	require.NoError(t, err)
	assert.Equal(t, []string{"project"}, res.Added)
	assert.Len(t, res.Copied, 5)
}

func TestCustomizeFullMode(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeFull)

	res, err := f.m.Customize(ctx, Selector{Path: "ref"})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, []string{"ref/r1.md", "ref/r2.md"}, res.AlreadyCustomized)

	_, err = f.m.Uncustomize(ctx, "ref", UncustomizeOptions{})
	require.ErrorIs(t, err, status.ErrFullMode)
}

func TestCustomizeByPattern(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)

	res, err := f.m.Customize(ctx, Selector{Path: "**/g*.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"general/g1.md", "general/g2.md", "general/g3.md"}, res.Added)
	assert.Len(t, res.Copied, 3)

	res, err = f.m.Customize(ctx, Selector{Path: "{ref,project}/?1.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"project/p1.md", "ref/r1.md"}, res.Added)

	s, err := f.m.Settings()
	require.NoError(t, err)
	assert.Len(t, s.CustomizedPathList(), 5)

	_, err = f.m.Customize(ctx, Selector{Path: "**/*.txt"})
	require.ErrorIs(t, err, status.ErrNothingToCustomize)
}

func TestCustomizeKeepsEditedCopy(t *testing.T) {
	ctx := context.Background()
	f := memFixture(t, baseFiles(), model.ModeMirror)

	// the published copy was edited in place
	f.writeDoc(t, "ref/r2.md", "my edits\n")

	res, err := f.m.Customize(ctx, Selector{Path: "ref/r2.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ref/r2.md"}, res.Added)
	assert.Empty(t, res.Copied)
	assert.Equal(t, []string{"ref/r2.md"}, res.Kept)
	assert.Equal(t, "my edits\n", f.readDoc(t, "ref/r2.md"))

	p, err := f.m.publisher()
	require.NoError(t, err)
	managed, err := p.Strategy().Manages("ref/r2.md")
	require.NoError(t, err)
	assert.False(t, managed)

	// the edits are now guarded like any owned content
	_, err = f.m.Uncustomize(ctx, "ref/r2.md", UncustomizeOptions{})
	require.ErrorIs(t, err, status.ErrDestructiveLoss)
	assert.Equal(t, "my edits\n", f.readDoc(t, "ref/r2.md"))
}
