package model

import (
	"path/filepath"
)

const (
	// StateDirName holds docoverlay state in a workspace
	StateDirName = ".docoverlay"

	// DocsDirName holds the published view of the mirror
	DocsDirName = "docs"

	settingsFile = "settings.yml"
	mirrorDir    = "mirror"
	manifestFile = "published.yml"
	stagingDir   = "mirror.staging"
	retiredDir   = "mirror.retired"
)

// Layout locates the components of a workspace rooted at some project directory
type Layout struct {
	Root string
}

// NewLayout builds the layout of a workspace
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// StateDir is the directory holding settings, mirror and manifest
func (l Layout) StateDir() string {
	return filepath.Join(l.Root, StateDirName)
}

// SettingsFile is the path to the persisted settings
func (l Layout) SettingsFile() string {
	return filepath.Join(l.StateDir(), settingsFile)
}

// MirrorDir is the root of the mirror
func (l Layout) MirrorDir() string {
	return filepath.Join(l.StateDir(), mirrorDir)
}

// MirrorStagingDir is where a sync assembles the next mirror before swapping it in
func (l Layout) MirrorStagingDir() string {
	return filepath.Join(l.StateDir(), stagingDir)
}

// MirrorRetiredDir is where the previous mirror is moved while the next one is swapped in
func (l Layout) MirrorRetiredDir() string {
	return filepath.Join(l.StateDir(), retiredDir)
}

// ManifestFile is the path to the manifest of mirror-managed copies
func (l Layout) ManifestFile() string {
	return filepath.Join(l.StateDir(), manifestFile)
}

// DocsDir is the root of the published view
func (l Layout) DocsDir() string {
	return filepath.Join(l.Root, DocsDirName)
}

// MirrorPath locates a relative path in the mirror
func (l Layout) MirrorPath(rel string) string {
	return filepath.Join(l.MirrorDir(), filepath.FromSlash(rel))
}

// DocsPath locates a relative path in the published view
func (l Layout) DocsPath(rel string) string {
	return filepath.Join(l.DocsDir(), filepath.FromSlash(rel))
}

// DocsRel converts a path in the published view back to a slash-separated relative path
func (l Layout) DocsRel(pth string) (string, error) {
	rel, err := filepath.Rel(l.DocsDir(), pth)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// LinkTarget computes the relative symlink target from a published path to its mirror counterpart
func (l Layout) LinkTarget(rel string) (string, error) {
	return filepath.Rel(filepath.Dir(l.DocsPath(rel)), l.MirrorPath(rel))
}
