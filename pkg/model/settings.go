package model

import (
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/docoverlay/pkg/pathset"
)

// ContentState maps published relative paths to their content hash
type ContentState map[string]string

// Clone the content state
func (c ContentState) Clone() ContentState {
	res := make(ContentState, len(c))
	for k, v := range c {
		res[k] = v
	}
	return res
}

// Settings is the persisted overlay configuration of a workspace.
//
// Settings are handled as immutable values: With* methods return an updated copy.
// Extra holds the keys of the persisted payload not known to this version, in their original order.
// FilterExtra does the same for the keys nested under filters.
type Settings struct {
	Format          string        `json:"format" yaml:"format"`
	Mode            Mode          `json:"mode" yaml:"mode"`
	DocsRepo        string        `json:"docs_repo" yaml:"docs_repo"`
	CustomizedPaths pathset.Set   `json:"-" yaml:"customized_paths"`
	Filters         Filters       `json:"filters" yaml:"filters"`
	ContentState    ContentState  `json:"content_state" yaml:"content_state"`
	LastUpdate      string        `json:"last_update,omitempty" yaml:"last_update,omitempty"`
	LastCLIVersion  string        `json:"last_cli_version,omitempty" yaml:"last_cli_version,omitempty"`
	LastDocsVersion string        `json:"last_docs_version,omitempty" yaml:"last_docs_version,omitempty"`
	Extra           yaml.MapSlice `json:"-" yaml:"-"`

	// FilterExtra holds the keys of the persisted filters not known to this version
	FilterExtra yaml.MapSlice `json:"-" yaml:"-"`
}

// KnownSettingsKeys lists the payload keys owned by Settings
var KnownSettingsKeys = []string{
	"format",
	"mode",
	"docs_repo",
	"customized_paths",
	"filters",
	"content_state",
	"last_update",
	"last_cli_version",
	"last_docs_version",
}

// DefaultSettings returns the settings of a freshly initialized workspace
func DefaultSettings() Settings {
	return Settings{
		Format:       CurrentFormat,
		Mode:         ModeMirror,
		DocsRepo:     DefaultDocsRepo,
		ContentState: ContentState{},
	}
}

// WithMode returns settings with the given mode
func (s Settings) WithMode(m Mode) Settings {
	s.Mode = m
	return s
}

// WithDocsRepo returns settings with the given upstream docs repo
func (s Settings) WithDocsRepo(repo string) Settings {
	s.DocsRepo = repo
	return s
}

// WithCustomizedPaths returns settings with the given customized paths
func (s Settings) WithCustomizedPaths(paths pathset.Set) Settings {
	s.CustomizedPaths = paths
	return s
}

// WithFilters returns settings with the given tag filters
func (s Settings) WithFilters(f Filters) Settings {
	s.Filters = Filters{
		IncludeTags: NewTags(f.IncludeTags...),
		ExcludeTags: NewTags(f.ExcludeTags...),
	}
	return s
}

// WithContentState returns settings with a copy of the given content state
func (s Settings) WithContentState(state ContentState) Settings {
	s.ContentState = state.Clone()
	return s
}

// WithInstallInfo returns settings stamped with the last update metadata
func (s Settings) WithInstallInfo(at, cliVersion, docsVersion string) Settings {
	s.LastUpdate = at
	s.LastCLIVersion = cliVersion
	if docsVersion != "" {
		s.LastDocsVersion = docsVersion
	}
	return s
}

// CustomizedPathList returns the customized paths in lexical order
func (s Settings) CustomizedPathList() []string {
	return s.CustomizedPaths.Paths()
}
