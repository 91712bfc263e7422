package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path so that a concurrent reader observes
// either the prior complete content or the new complete content, never a
// partial write. The new content goes to a uniquely-named temp file in the
// same directory (rename within one filesystem is the atomicity primitive),
// gets the requested permission bits, and is renamed onto path. On any
// failure before the rename the temp file is removed and path is untouched.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IOError{Path: path, Err: err}
	}
	return nil
}

// ReadSafe reads path, returning fallback when the file does not exist.
// Any other failure (permission denied, path is a directory) is an IOError:
// "file not found" and "file unreadable" are distinct failure classes.
func ReadSafe(path string, fallback []byte) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallback, nil
		}
		return nil, &IOError{Path: path, Err: err}
	}
	return data, nil
}
