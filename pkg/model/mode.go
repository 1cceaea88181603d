package model

import (
	"fmt"
	"strings"
)

// Mode selects how mirror paths are exposed by default
type Mode uint8

const (
	// ModeMirror exposes every path as a link to the mirror, unless customized
	ModeMirror Mode = iota
	// ModeProject behaves like ModeMirror, but flags the project subtree as customizable by default
	ModeProject
	// ModeFull exposes every path as a locally owned copy
	ModeFull
)

// ProjectPrefix is the structural subtree customizable by default in ModeProject
const ProjectPrefix = "project"

var modeNames = map[Mode]string{
	ModeMirror:  "mirror",
	ModeProject: "project",
	ModeFull:    "full",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode reads a mode from its name
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return m, nil
		}
	}
	return ModeMirror, fmt.Errorf("unknown mode %q: expected one of mirror, project, full", s)
}

// MarshalYAML renders the mode name
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML reads a mode name
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
