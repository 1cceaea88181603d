package settings

import (
	"fmt"

	"github.com/blang/semver"

	"github.com/oneconcern/docoverlay/pkg/model"
)

const formatKey = "format"

// Format is a parsed format tag
type Format struct {
	Tag     string
	Version semver.Version
}

// ParseFormat parses a format tag such as "v0.2"
func ParseFormat(tag string) (Format, error) {
	v, err := semver.ParseTolerant(tag)
	if err != nil {
		return Format{}, err
	}
	return Format{Tag: tag, Version: v}, nil
}

// MustParseFormat parses a format tag or panics
func MustParseFormat(tag string) Format {
	f, err := ParseFormat(tag)
	if err != nil {
		panic(err)
	}
	return f
}

// Compare two formats. Returns -1 if f < other, 0 if f == other, 1 if f > other.
func (f Format) Compare(other Format) int {
	return f.Version.Compare(other.Version)
}

func (f Format) String() string {
	return f.Tag
}

var (
	// Legacy is the implicit format of payloads without a format tag
	Legacy = MustParseFormat(model.LegacyFormat)

	// Latest is the most recent format understood by this implementation
	Latest = MustParseFormat(model.CurrentFormat)
)

// FormatOf reads the format tag of a document.
//
// A missing tag yields the legacy format, never an error.
func FormatOf(doc Document) (Format, error) {
	raw, ok := doc.Get(formatKey)
	if !ok || raw == nil {
		return Legacy, nil
	}
	tag, ok := raw.(string)
	if !ok {
		// unquoted tags such as 0.2 are decoded as numbers
		tag = fmt.Sprint(raw)
	}
	return ParseFormat(tag)
}
