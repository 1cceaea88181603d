// Package status exports errors produced by the overlay package.
package status

import (
	"github.com/oneconcern/docoverlay/pkg/errors"
)

var (
	// ErrLinkCreation indicates that the platform could not create a link.
	// Publishers fall back to copies when this happens.
	ErrLinkCreation = errors.New("cannot create link")

	// ErrConflict indicates a locally owned file standing where a mirror publication is expected
	ErrConflict = errors.New("publish conflict")

	// ErrManifestCorrupt indicates that the manifest of published copies cannot be parsed
	ErrManifestCorrupt = errors.New("copy manifest corrupt")
)
