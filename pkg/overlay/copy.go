package overlay

import (
	"os"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/docoverlay/pkg/fingerprint"
	"github.com/oneconcern/docoverlay/pkg/model"
	"github.com/oneconcern/docoverlay/pkg/overlay/status"
	"github.com/oneconcern/docoverlay/pkg/storage/localfs"
)

// CopyName is the name of the copy strategy
const CopyName = "copy"

// manifest records the copies published from the mirror, with the hash of their content at publish time
type manifest struct {
	Strategy string            `yaml:"strategy"`
	Files    map[string]string `yaml:"files"`
}

// CopyStrategy publishes mirror paths as managed copies.
//
// A manifest records each copy with its content hash, so that copies left unmodified can be told apart
// from locally owned files. A managed copy modified by the user is considered locally owned.
type CopyStrategy struct {
	fs     afero.Fs
	layout model.Layout
	files  map[string]string
	dirty  bool
}

// NewCopyStrategy loads the manifest of managed copies
func NewCopyStrategy(fs afero.Fs, layout model.Layout) (*CopyStrategy, error) {
	c := &CopyStrategy{
		fs:     fs,
		layout: layout,
		files:  make(map[string]string),
	}

	data, err := afero.ReadFile(fs, layout.ManifestFile())
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	var m manifest
	if err = yaml.Unmarshal(data, &m); err != nil {
		return nil, status.ErrManifestCorrupt.Wrap(err)
	}
	for k, v := range m.Files {
		c.files[k] = v
	}
	return c, nil
}

// Name of the strategy
func (c *CopyStrategy) Name() string {
	return CopyName
}

// Inspect a published path
func (c *CopyStrategy) Inspect(rel, mirrorHash string) (LinkState, error) {
	pth := c.layout.DocsPath(rel)
	fi, err := c.fs.Stat(pth)
	if err != nil {
		if os.IsNotExist(err) {
			return LinkAbsent, nil
		}
		return LinkAbsent, err
	}
	published, managed := c.files[rel]
	if !managed || !fi.Mode().IsRegular() {
		return LinkOwned, nil
	}

	hash, err := fingerprint.File(c.fs, pth)
	if err != nil {
		return LinkAbsent, err
	}
	switch {
	case hash != published:
		// the copy was edited: it belongs to the user now
		return LinkOwned, nil
	case hash == mirrorHash:
		return LinkCurrent, nil
	default:
		return LinkStale, nil
	}
}

// Manages tells if the manifest holds the path
func (c *CopyStrategy) Manages(rel string) (bool, error) {
	_, ok := c.files[rel]
	return ok, nil
}

// Publish a copy of the mirror file
func (c *CopyStrategy) Publish(rel string) error {
	src := c.layout.MirrorPath(rel)
	content, err := afero.ReadFile(c.fs, src)
	if err != nil {
		return err
	}
	if err = localfs.WriteFileAtomic(c.fs, c.layout.DocsPath(rel), content, 0644); err != nil {
		return err
	}
	c.files[rel] = fingerprint.Bytes(content)
	c.dirty = true
	return nil
}

// Retract a managed copy. Copies modified since they were published are kept.
func (c *CopyStrategy) Retract(rel string) error {
	published, managed := c.files[rel]
	if !managed {
		return nil
	}
	pth := c.layout.DocsPath(rel)
	hash, err := fingerprint.File(c.fs, pth)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	case hash != published:
		return status.ErrConflict.WrapMessage("%s was modified since it was published", rel)
	default:
		if err = c.fs.Remove(pth); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	delete(c.files, rel)
	c.dirty = true
	return nil
}

// Release forgets a managed copy, leaving the file in place
func (c *CopyStrategy) Release(rel string) error {
	if _, managed := c.files[rel]; managed {
		delete(c.files, rel)
		c.dirty = true
	}
	return nil
}

// Managed lists the managed copies
func (c *CopyStrategy) Managed() ([]string, error) {
	res := make([]string, 0, len(c.files))
	for k := range c.files {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}

// Commit writes the manifest. An empty manifest is removed.
func (c *CopyStrategy) Commit() error {
	if !c.dirty {
		return nil
	}
	if len(c.files) == 0 {
		if err := c.fs.Remove(c.layout.ManifestFile()); err != nil && !os.IsNotExist(err) {
			return err
		}
		c.dirty = false
		return nil
	}

	data, err := yaml.Marshal(manifest{Strategy: CopyName, Files: c.files})
	if err != nil {
		return err
	}
	if err = localfs.WriteFileAtomic(c.fs, c.layout.ManifestFile(), data, 0644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
