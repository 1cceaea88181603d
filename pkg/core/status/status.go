// Package status exports errors produced by the core package.
package status

import (
	"github.com/oneconcern/docoverlay/pkg/errors"
)

var (
	// ErrNothingToCustomize indicates a selector matching no mirror path
	ErrNothingToCustomize = errors.New("nothing to customize")

	// ErrPathNotCustomized indicates an uncustomize target which is not a customized path
	ErrPathNotCustomized = errors.New("path not customized")

	// ErrDestructiveLoss indicates that uncustomizing would discard modified or local-only files
	ErrDestructiveLoss = errors.New("local changes would be lost")

	// ErrFullMode indicates an operation which makes no sense when every path is locally owned
	ErrFullMode = errors.New("workspace is in full mode")

	// ErrPublishConflict indicates locally owned files standing where mirror publications are expected
	ErrPublishConflict = errors.New("publish conflict")

	// ErrDrift indicates published content which changed since the last baseline
	ErrDrift = errors.New("published content drifted")

	// ErrInvalidSelector indicates a malformed customization selector
	ErrInvalidSelector = errors.New("invalid selector")
)
