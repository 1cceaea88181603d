// Package tags extracts classification tags from the YAML front-matter of documents
// and applies tag filters to mirror entries.
package tags

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/tags/status"
)

const delimiter = "---"

var bom = []byte("\xef\xbb\xbf")

type frontMatter struct {
	Tags interface{} `yaml:"tags"`
}

// split isolates the front-matter block at the head of a document.
// It returns false when the document does not start with a front-matter delimiter.
func split(content []byte) ([]byte, bool, error) {
	content = bytes.TrimPrefix(content, bom)
	first, rest, found := cutLine(content)
	if strings.TrimSpace(string(first)) != delimiter {
		return nil, false, nil
	}
	if !found {
		return nil, true, status.ErrFrontmatterParse.WrapMessage("unterminated front-matter")
	}

	var block []byte
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		trimmed := strings.TrimSpace(string(line))
		if trimmed == delimiter || trimmed == "..." {
			return block, true, nil
		}
		block = append(block, line...)
		block = append(block, '\n')
		rest = next
	}
	return nil, true, status.ErrFrontmatterParse.WrapMessage("unterminated front-matter")
}

func cutLine(b []byte) ([]byte, []byte, bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return bytes.TrimSuffix(b, []byte{'\r'}), nil, false
	}
	return bytes.TrimSuffix(b[:i], []byte{'\r'}), b[i+1:], true
}

// Parse the tags declared in the front-matter of a document.
//
// Tags may be declared as a YAML list or as a comma-separated string.
// A document without front-matter has no tags. A malformed front-matter yields
// no tags and an ErrFrontmatterParse error, which callers should treat as a warning.
func Parse(content []byte) (model.Tags, error) {
	block, ok, err := split(content)
	if err != nil {
		return model.NewTags(), err
	}
	if !ok || len(bytes.TrimSpace(block)) == 0 {
		return model.NewTags(), nil
	}

	var fm frontMatter
	if err = yaml.Unmarshal(block, &fm); err != nil {
		return model.NewTags(), status.ErrFrontmatterParse.Wrap(err)
	}

	switch v := fm.Tags.(type) {
	case nil:
		return model.NewTags(), nil
	case string:
		return model.NewTags(strings.Split(v, ",")...), nil
	case []interface{}:
		res := make([]string, 0, len(v))
		for _, item := range v {
			switch tag := item.(type) {
			case string:
				res = append(res, tag)
			case int, float64, bool:
				res = append(res, fmt.Sprint(tag))
			default:
				return model.NewTags(), status.ErrFrontmatterParse.WrapMessage("unsupported tag value %v", item)
			}
		}
		return model.NewTags(res...), nil
	default:
		return model.NewTags(), status.ErrFrontmatterParse.WrapMessage("tags must be a list or a string, got %T", v)
	}
}
