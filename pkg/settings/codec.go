package settings

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/settings/status"
)

func defaultFilters() yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "include_tags", Value: []string{}},
		{Key: "exclude_tags", Value: []string{}},
	}
}

var knownFilterKeys = []string{"include_tags", "exclude_tags"}

func isKnownKey(key interface{}) bool {
	return isOneOf(key, model.KnownSettingsKeys)
}

func isOneOf(key interface{}, known []string) bool {
	k, ok := key.(string)
	if !ok {
		return false
	}
	for _, candidate := range known {
		if k == candidate {
			return true
		}
	}
	return false
}

// unknownFilterKeys extracts the filters keys not owned by Filters, in their original order
func unknownFilterKeys(doc Document) yaml.MapSlice {
	raw, ok := doc.Get("filters")
	if !ok {
		return nil
	}
	var items yaml.MapSlice
	switch v := raw.(type) {
	case yaml.MapSlice:
		items = v
	case map[interface{}]interface{}:
		keys := make([]string, 0, len(v))
		byName := make(map[string]interface{}, len(v))
		for k, val := range v {
			name := fmt.Sprint(k)
			keys = append(keys, name)
			byName[name] = val
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, yaml.MapItem{Key: k, Value: byName[k]})
		}
	}

	var res yaml.MapSlice
	for _, item := range items {
		if !isOneOf(item.Key, knownFilterKeys) {
			res = append(res, item)
		}
	}
	return res
}

// Decode typed settings from a document at the latest format.
//
// Keys not owned by Settings are kept in Extra, in their original order. Unknown keys nested
// under filters are kept in FilterExtra.
func Decode(doc Document) (model.Settings, error) {
	data, err := doc.Marshal()
	if err != nil {
		return model.Settings{}, status.ErrSettingsCorrupt.Wrap(err)
	}

	s := model.DefaultSettings()
	if err = yaml.Unmarshal(data, &s); err != nil {
		return model.Settings{}, status.ErrSettingsCorrupt.Wrap(err)
	}

	f, err := FormatOf(doc)
	if err != nil {
		return model.Settings{}, status.ErrSettingsCorrupt.Wrap(err)
	}
	s.Format = f.Tag
	if s.ContentState == nil {
		s.ContentState = model.ContentState{}
	}
	s = s.WithFilters(s.Filters)

	for _, item := range doc.items {
		if !isKnownKey(item.Key) {
			s.Extra = append(s.Extra, item)
		}
	}
	s.FilterExtra = unknownFilterKeys(doc)
	return s, nil
}

// Encode settings as a document: owned keys come first in a fixed order,
// followed by the extra keys.
func Encode(s model.Settings) Document {
	format := s.Format
	if format == "" {
		format = model.CurrentFormat
	}
	state := s.ContentState
	if state == nil {
		state = model.ContentState{}
	}
	includes, excludes := []string(s.Filters.IncludeTags), []string(s.Filters.ExcludeTags)
	if includes == nil {
		includes = []string{}
	}
	if excludes == nil {
		excludes = []string{}
	}

	filters := yaml.MapSlice{
		{Key: "include_tags", Value: includes},
		{Key: "exclude_tags", Value: excludes},
	}
	for _, item := range s.FilterExtra {
		if !isOneOf(item.Key, knownFilterKeys) {
			filters = append(filters, item)
		}
	}

	items := yaml.MapSlice{
		{Key: "format", Value: format},
		{Key: "mode", Value: s.Mode.String()},
		{Key: "docs_repo", Value: s.DocsRepo},
		{Key: "customized_paths", Value: s.CustomizedPathList()},
		{Key: "filters", Value: filters},
		{Key: "content_state", Value: map[string]string(state)},
	}
	if s.LastUpdate != "" {
		items = append(items, yaml.MapItem{Key: "last_update", Value: s.LastUpdate})
	}
	if s.LastCLIVersion != "" {
		items = append(items, yaml.MapItem{Key: "last_cli_version", Value: s.LastCLIVersion})
	}
	if s.LastDocsVersion != "" {
		items = append(items, yaml.MapItem{Key: "last_docs_version", Value: s.LastDocsVersion})
	}

	for _, item := range s.Extra {
		if !isKnownKey(item.Key) {
			items = append(items, item)
		}
	}
	return NewDocument(items)
}
