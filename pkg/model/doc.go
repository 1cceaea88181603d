// Package model describes the base objects manipulated by docoverlay.
//
// The object model for docoverlay is composed of:
//
//	Mirror:
//	  A complete local copy of the upstream docs template, refreshed by a sync.
//	  Entries of the mirror are files identified by their relative path.
//
//	Settings:
//	  The persisted overlay configuration of a workspace: mode, customized paths,
//	  tag filters and the content state baseline.
//
//	Publish entries:
//	  For every mirror path, whether the workspace exposes it as a link to the mirror
//	  (mirrored), as a locally owned copy (customized), or not at all (excluded).
//	  Publish entries are always recomputed and never persisted.
//
//	Layout:
//	  Where the settings, the mirror and the published docs live in a workspace.
package model
