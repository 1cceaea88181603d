// Package status exports errors produced by the tags package.
package status

import (
	"github.com/oneconcern/docoverlay/pkg/errors"
)

// ErrFrontmatterParse indicates a malformed front-matter block.
//
// This error is reported as a warning: the document is handled as having no tags.
var ErrFrontmatterParse = errors.New("front-matter parse error")
