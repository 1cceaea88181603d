// Package status exports errors produced by the mirror package.
package status

import (
	"github.com/oneconcern/docoverlay/pkg/errors"
)

var (
	// ErrUnsupportedSource indicates an upstream source which must be fetched by an external tool
	ErrUnsupportedSource = errors.New("unsupported upstream source")

	// ErrSourceNotFound indicates an upstream directory which does not exist
	ErrSourceNotFound = errors.New("upstream source not found")

	// ErrNotInMirror indicates a path which is not held by the mirror
	ErrNotInMirror = errors.New("path not in mirror")

	// ErrSync indicates a failed refresh: the mirror is left untouched
	ErrSync = errors.New("mirror sync failed")
)
