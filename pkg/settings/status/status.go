// Package status exports errors produced by the settings package.
package status

import (
	"github.com/oneconcern/docoverlay/pkg/errors"
)

var (
	// ErrSettingsCorrupt indicates that the persisted settings cannot be parsed
	ErrSettingsCorrupt = errors.New("settings corrupt")

	// ErrFormatUnknown indicates that the persisted settings were written by a newer version
	ErrFormatUnknown = errors.New("settings format unknown")

	// ErrNotInitialized indicates that no settings have been persisted yet
	ErrNotInitialized = errors.New("workspace not initialized")

	// ErrMigration indicates that a format migration failed
	ErrMigration = errors.New("settings migration failed")
)
