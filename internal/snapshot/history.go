// Package snapshot creates, verifies, restores, compresses, and retires
// point-in-time backups of the provider store and an adjacent
// externally-owned settings tree.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"apikeep/internal/store"
)

// HistoryFileName is the snapshot index, stored next to the backups
// directory under the store root.
const HistoryFileName = "history.json"

// ManifestEntry describes one copied top-level item. DestPath is relative
// to the snapshot directory; Checksum is the canonical tree checksum of
// the copied bytes.
type ManifestEntry struct {
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath"`
	Size       int64  `json:"size"`
	Checksum   string `json:"checksum"`
}

// ArchiveInfo records the compressed form of a snapshot, captured when
// the directory is packed so verify can check the archive without
// unpacking it.
type ArchiveInfo struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// HostMetadata records where a snapshot was taken.
type HostMetadata struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
	Platform string `json:"platform"`
}

// Snapshot is one immutable point-in-time backup. The manifest is written
// last during creation, so its presence implies the copy completed.
// Restoring never mutates an existing snapshot.
type Snapshot struct {
	ID          string          `json:"timestampId"`
	Description string          `json:"description"`
	Manifest    []ManifestEntry `json:"manifest"`
	TotalSize   int64           `json:"totalSize"`
	CreatedAt   time.Time       `json:"createdAt"`
	Host        HostMetadata    `json:"hostMetadata"`
	Archive     *ArchiveInfo    `json:"archive,omitempty"`
}

// history is the on-disk index owning all known snapshots.
type history struct {
	Snapshots []*Snapshot `json:"snapshots"`
}

func (h *history) find(id string) *Snapshot {
	for _, snap := range h.Snapshots {
		if snap.ID == id {
			return snap
		}
	}
	return nil
}

func (h *history) remove(id string) {
	kept := h.Snapshots[:0]
	for _, snap := range h.Snapshots {
		if snap.ID != id {
			kept = append(kept, snap)
		}
	}
	h.Snapshots = kept
}

func (m *Manager) loadHistory() (*history, error) {
	data, err := store.ReadSafe(m.historyPath, nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &history{}, nil
	}
	var h history
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, &store.IOError{Path: m.historyPath, Err: fmt.Errorf("corrupt history index: %w", err)}
	}
	return &h, nil
}

func (m *Manager) saveHistory(h *history) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history index: %w", err)
	}
	return store.WriteAtomic(m.historyPath, append(data, '\n'), 0o600)
}
