/*
 * Copyright © 2019 One Concern
 *
 */

package model

const (
	// LegacyFormat is the implicit format of settings payloads written before format tags were introduced.
	LegacyFormat = "v0.1"

	// CurrentFormat indicates the latest version of the settings payload understood by this implementation.
	//
	// Change log:
	//   - v0.2: added mode and docs_repo
	//   - v0.3: added customized_paths, filters and content_state
	CurrentFormat = "v0.3"

	// DefaultDocsRepo is the upstream docs template used when none is configured
	DefaultDocsRepo = "gh:jlevy/speculate"
)
