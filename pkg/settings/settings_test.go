package settings

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/pathset"
	"github.com/oneconcern/docoverlay/pkg/settings/status"
)

const testPath = "/work/.docoverlay/settings.yml"

func writeSettings(t testing.TB, fs afero.Fs, content string) *Store {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, testPath, []byte(content), 0644))
	return NewStore(fs, testPath)
}

func TestLegacyUpgrade(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := writeSettings(t, fs, "last_update: \"2025-01-01\"\nmy_key: keep me\nnested:\n  a: 1\n")

	f, err := store.ReadFormat()
	require.NoError(t, err)
	assert.Equal(t, Legacy, f)

	s, results, err := store.Load()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "v0.1", results[0].From.Tag)
	assert.Equal(t, "v0.3", results[1].To.Tag)

	assert.Equal(t, model.CurrentFormat, s.Format)
	assert.Equal(t, model.ModeFull, s.Mode)
	assert.Equal(t, model.DefaultDocsRepo, s.DocsRepo)
	assert.Equal(t, "2025-01-01", s.LastUpdate)
	assert.Equal(t, 0, s.CustomizedPaths.Len())
	assert.True(t, s.Filters.IsEmpty())
	require.Len(t, s.Extra, 2)
	assert.Equal(t, "my_key", s.Extra[0].Key)
	assert.Equal(t, "keep me", s.Extra[0].Value)
	assert.Equal(t, "nested", s.Extra[1].Key)

	// the upgraded payload keeps unknown keys through a save
	require.NoError(t, store.Save(s))
	f, err = store.ReadFormat()
	require.NoError(t, err)
	assert.Equal(t, Latest, f)

	reloaded, results, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, s.Extra, reloaded.Extra)
	assert.Equal(t, s.Mode, reloaded.Mode)
}

func TestMigrationsOnlySetAbsentKeys(t *testing.T) {
	doc := NewDocument(yaml.MapSlice{
		{Key: "mode", Value: "project"},
		{Key: "zzz", Value: "untouched"},
	})

	upgraded, results, err := DefaultMigrator().Upgrade(doc)
	require.NoError(t, err)
	require.Len(t, results, 2)

	mode, _ := upgraded.GetString("mode")
	assert.Equal(t, "project", mode)
	zzz, _ := upgraded.GetString("zzz")
	assert.Equal(t, "untouched", zzz)

	// input document is left as is
	assert.False(t, doc.Has(formatKey))

	tag, _ := upgraded.GetString(formatKey)
	assert.Equal(t, model.CurrentFormat, tag)
}

func TestPartialUpgrade(t *testing.T) {
	doc := NewDocument(yaml.MapSlice{
		{Key: "format", Value: "v0.2"},
		{Key: "mode", Value: "mirror"},
		{Key: "docs_repo", Value: "gh:someone/docs"},
	})

	upgraded, results, err := DefaultMigrator().Upgrade(doc)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v0.2", results[0].From.Tag)

	s, err := Decode(upgraded)
	require.NoError(t, err)
	assert.Equal(t, model.ModeMirror, s.Mode)
	assert.Equal(t, "gh:someone/docs", s.DocsRepo)
	assert.Equal(t, "v0.3", s.Format)
}

func TestFormatUnknown(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := writeSettings(t, fs, "format: v9.0\nmode: mirror\n")

	f, err := store.ReadFormat()
	require.NoError(t, err)
	assert.Equal(t, "v9.0", f.Tag)

	_, _, err = store.Load()
	require.ErrorIs(t, err, status.ErrFormatUnknown)
}

func TestNumericFormatTag(t *testing.T) {
	f, err := FormatOf(NewDocument(yaml.MapSlice{{Key: "format", Value: 0.2}}))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Compare(MustParseFormat("v0.2")))
}

func TestCorrupt(t *testing.T) {
	for _, toPin := range []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "mode: [unterminated\n"},
		{name: "bad format", content: "format: not-a-version\n"},
		{name: "bad mode", content: "format: v0.3\nmode: sideways\n"},
	} {
		tc := toPin
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			store := writeSettings(t, fs, tc.content)
			_, _, err := store.Load()
			require.ErrorIs(t, err, status.ErrSettingsCorrupt)
		})
	}
}

func TestNotInitialized(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), testPath)
	exists, err := store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = store.Load()
	require.ErrorIs(t, err, status.ErrNotInitialized)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, testPath)

	s := model.DefaultSettings().
		WithMode(model.ModeProject).
		WithCustomizedPaths(pathset.New("project/specs", "project", "agents/a.md")).
		WithFilters(model.Filters{IncludeTags: model.NewTags("python", " go "), ExcludeTags: model.NewTags("legacy")}).
		WithContentState(model.ContentState{"agents/a.md": "abc"}).
		WithInstallInfo("2026-01-02T03:04:05Z", "v1.0.0", "")

	require.NoError(t, store.Save(s))
	exists, err := store.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := afero.ReadDir(fs, "/work/.docoverlay")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded, results, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, model.ModeProject, loaded.Mode)
	assert.Equal(t, []string{"agents/a.md", "project"}, loaded.CustomizedPathList())
	assert.Equal(t, model.Tags{"go", "python"}, loaded.Filters.IncludeTags)
	assert.Equal(t, model.Tags{"legacy"}, loaded.Filters.ExcludeTags)
	assert.Equal(t, "abc", loaded.ContentState["agents/a.md"])
	assert.Equal(t, "2026-01-02T03:04:05Z", loaded.LastUpdate)
	assert.Empty(t, loaded.LastDocsVersion)

	data, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	again, err := Encode(loaded).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "encoding is stable")
}

func TestNestedUnknownKeysRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := writeSettings(t, fs, `format: v0.3
mode: mirror
docs_repo: upstream
customized_paths: []
filters:
  include_tags: [go]
  future_key: keep-me
  exclude_tags: []
  future_map:
    a: 1
content_state: {}
`)

	s, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Tags{"go"}, s.Filters.IncludeTags)
	require.Len(t, s.FilterExtra, 2)
	assert.Equal(t, "future_key", s.FilterExtra[0].Key)
	assert.Equal(t, "keep-me", s.FilterExtra[0].Value)
	assert.Equal(t, "future_map", s.FilterExtra[1].Key)
	assert.Empty(t, s.Extra)

	// changing the filters keeps the unknown nested keys
	s = s.WithFilters(model.Filters{ExcludeTags: model.NewTags("legacy")})
	require.NoError(t, store.Save(s))

	data, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	var raw struct {
		Filters map[string]interface{} `yaml:"filters"`
	}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "keep-me", raw.Filters["future_key"])
	assert.Contains(t, raw.Filters, "future_map")
	assert.Equal(t, []interface{}{"legacy"}, raw.Filters["exclude_tags"])

	reloaded, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s.FilterExtra, reloaded.FilterExtra)
	assert.Empty(t, reloaded.Filters.IncludeTags)
}

func TestMigratorRegistration(t *testing.T) {
	m := NewMigrator(MustParseFormat("v0.2"))
	m.Register(Migration{
		From:  Legacy,
		To:    MustParseFormat("v0.2"),
		Apply: func(d Document) (Document, error) { return d.SetDefault("x", 1), nil },
	})

	needs, err := m.NeedsUpgrade(NewDocument(nil))
	require.NoError(t, err)
	assert.True(t, needs)

	doc, results, err := m.Upgrade(NewDocument(nil))
	require.NoError(t, err)
	require.Len(t, results, 1)
	tag, _ := doc.GetString(formatKey)
	assert.Equal(t, "v0.2", tag)

	needs, err = m.NeedsUpgrade(doc)
	require.NoError(t, err)
	assert.False(t, needs)

	// a gap in the chain is reported
	gap := NewMigrator(MustParseFormat("v0.3"))
	_, _, err = gap.Upgrade(NewDocument(nil))
	require.ErrorIs(t, err, status.ErrMigration)
}
