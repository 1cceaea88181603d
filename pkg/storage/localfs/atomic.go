package localfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// tempPrefix marks files being staged for an atomic rename
const tempPrefix = ".tmp-"

func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// WriteAtomic writes the content of a reader to target, so that readers of target
// either see the previous version or the new one in full.
//
// The content is staged in a temporary file in the target directory, then renamed into place.
// Missing directories are created.
func WriteAtomic(fs afero.Fs, target string, source io.Reader, perm os.FileMode) (err error) {
	dir := filepath.Dir(target)
	if err = fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensuring directories for %q: %v", target, err)
	}

	tmp, err := afero.TempFile(fs, dir, tempPrefix+filepath.Base(target)+"-")
	if err != nil {
		return fmt.Errorf("staging %q: %v", target, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, source); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %q: %v", target, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %q: %v", target, err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err = fs.Rename(tmpName, target); err != nil {
		return fmt.Errorf("renaming staged file to %q: %v", target, err)
	}
	return nil
}

// WriteFileAtomic writes a buffer to target atomically
func WriteFileAtomic(fs afero.Fs, target string, data []byte, perm os.FileMode) error {
	return WriteAtomic(fs, target, bytes.NewReader(data), perm)
}

// CopyFileAtomic copies a file from source to target atomically
func CopyFileAtomic(fs afero.Fs, source, target string, perm os.FileMode) error {
	src, err := fs.Open(source)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()
	return WriteAtomic(fs, target, src, perm)
}
