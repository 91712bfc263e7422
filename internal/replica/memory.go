package replica

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"apikeep/internal/snapshot"
)

// MemoryReplica holds archives in memory. Use in tests.
type MemoryReplica struct {
	name string

	mu       sync.Mutex
	archives map[string][]byte
}

var _ snapshot.Replica = (*MemoryReplica)(nil)

// NewMemoryReplica creates an empty in-memory replica.
func NewMemoryReplica(name string) *MemoryReplica {
	return &MemoryReplica{name: name, archives: make(map[string][]byte)}
}

func (r *MemoryReplica) Put(name string, src io.Reader, size int64) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives[name] = data
	return nil
}

func (r *MemoryReplica) Get(name string, w io.Writer) error {
	r.mu.Lock()
	data, ok := r.archives[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("archive not found: %s", name)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

func (r *MemoryReplica) ValidateSetup() error { return nil }

// Names returns the stored archive names. Test helper.
func (r *MemoryReplica) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.archives))
	for name := range r.archives {
		names = append(names, name)
	}
	return names
}
