// Package replica implements offsite storage backends for compressed
// snapshot archives.
package replica

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"apikeep/internal/snapshot"
)

// FileSystemReplica stores archives as files under a root directory,
// e.g. a mounted network share or external drive.
type FileSystemReplica struct {
	name string
	root string
}

var _ snapshot.Replica = (*FileSystemReplica)(nil)

// NewFileSystemReplica creates a filesystem replica rooted at the given
// path, creating it if needed.
func NewFileSystemReplica(name, root string) (*FileSystemReplica, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating replica root: %w", err)
	}
	return &FileSystemReplica{name: name, root: root}, nil
}

// Put stores an archive under name. The write goes to a temp file and is
// renamed into place so a partial upload never looks like a complete
// archive.
func (r *FileSystemReplica) Put(name string, src io.Reader, size int64) error {
	dest := filepath.Join(r.root, name)

	tmp, err := os.CreateTemp(r.root, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing archive: %w", err)
	}
	if written != size {
		os.Remove(tmpName)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	return nil
}

// Get retrieves an archive by name and writes it to w.
func (r *FileSystemReplica) Get(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(r.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("archive not found: %s", name)
		}
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return nil
}

// ValidateSetup verifies the replica root exists and is a directory.
func (r *FileSystemReplica) ValidateSetup() error {
	info, err := os.Stat(r.root)
	if err != nil {
		return fmt.Errorf("replica root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("replica root is not a directory: %s", r.root)
	}
	return nil
}
