package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"

	"apikeep/internal/store"
)

// BackupsDirName is the directory under the store root holding one
// subdirectory (or compressed archive) per snapshot.
const BackupsDirName = "backups"

const (
	// snapshot directory layout: copied store items under store/,
	// the adjacent settings tree under settings/.
	storeSubdir    = "store"
	settingsSubdir = "settings"

	manifestFileName = "manifest.json"
	archiveSuffix    = ".tar.gz"
)

// Replica stores compressed snapshot archives on a secondary backend.
type Replica interface {
	// Put stores an archive under name. size is the number of bytes
	// that will be read from r.
	Put(name string, r io.Reader, size int64) error

	// Get retrieves an archive by name and writes it to w.
	Get(name string, w io.Writer) error

	// ValidateSetup verifies the backend is accessible.
	ValidateSetup() error
}

// ArchiveEncryptor encrypts archives before replica upload.
type ArchiveEncryptor interface {
	Encrypt(r io.Reader, w io.Writer) error
	IsConfigured() bool
}

// Decryptor decrypts archives fetched from a replica.
type Decryptor interface {
	Decrypt(r io.Reader, w io.Writer) error
}

// Retention bounds how many snapshots the sweep after Create keeps.
// Zero values disable the corresponding rule.
type Retention struct {
	KeepCount int
	KeepDays  int
}

// Manager creates and maintains snapshots of the store root and an
// adjacent externally-owned settings tree. It deliberately does not take
// the store's operation lock: snapshot reads race mutating store calls at
// single-file granularity only, and the atomic write path keeps every
// individual file internally consistent.
type Manager struct {
	storeRoot   string
	backupsDir  string
	historyPath string
	settingsDir string
	retention   Retention

	clock     store.Clock
	logger    store.Logger
	replica   Replica
	encryptor ArchiveEncryptor
}

// Options configures a Manager. StoreRoot is required. SettingsDir,
// Replica, and Encryptor are optional.
type Options struct {
	StoreRoot   string
	SettingsDir string
	Retention   Retention
	Clock       store.Clock
	Logger      store.Logger
	Replica     Replica
	Encryptor   ArchiveEncryptor
}

// NewManager creates a Manager for the given store root.
func NewManager(opts Options) (*Manager, error) {
	if opts.StoreRoot == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if opts.Clock == nil {
		opts.Clock = store.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = store.NewNopLogger()
	}
	backupsDir := filepath.Join(opts.StoreRoot, BackupsDirName)
	if err := os.MkdirAll(backupsDir, 0o700); err != nil {
		return nil, &store.IOError{Path: backupsDir, Err: err}
	}
	return &Manager{
		storeRoot:   opts.StoreRoot,
		backupsDir:  backupsDir,
		historyPath: filepath.Join(opts.StoreRoot, HistoryFileName),
		settingsDir: opts.SettingsDir,
		retention:   opts.Retention,
		clock:       opts.Clock,
		logger:      opts.Logger,
		replica:     opts.Replica,
		encryptor:   opts.Encryptor,
	}, nil
}

// BackupsDir returns the directory holding snapshot directories and
// archives.
func (m *Manager) BackupsDir() string { return m.backupsDir }

// CreateOptions tunes snapshot creation.
type CreateOptions struct {
	// SkipSweep suppresses the retention sweep that normally follows a
	// successful create. Safety snapshots taken before a restore set it
	// so the restore target cannot be swept out from under the restore.
	SkipSweep bool
}

// Create copies the live tree into a new timestamp-named snapshot
// directory and records it in the history index. The manifest is written
// last, so a manifest's existence implies the copy completed.
func (m *Manager) Create(description string, opts CreateOptions) (*Snapshot, error) {
	h, err := m.loadHistory()
	if err != nil {
		return nil, err
	}

	id := m.newID(h)
	destDir := filepath.Join(m.backupsDir, id)
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return nil, &store.IOError{Path: destDir, Err: err}
	}

	snap, err := m.copyLiveTree(id, destDir, description)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}

	h.Snapshots = append(h.Snapshots, snap)
	if err := m.saveHistory(h); err != nil {
		os.RemoveAll(destDir)
		return nil, err
	}

	m.logger.Info("snapshot created", "id", id, "size", snap.TotalSize, "items", len(snap.Manifest))

	if !opts.SkipSweep && (m.retention.KeepCount > 0 || m.retention.KeepDays > 0) {
		if report, err := m.CleanOld(m.retention.KeepCount, m.retention.KeepDays); err != nil {
			m.logger.Warn("retention sweep failed", "error", err)
		} else {
			for _, f := range report.Failures {
				m.logger.Warn("retention sweep skipped snapshot", "id", f.ID, "error", f.Err)
			}
		}
	}

	return snap, nil
}

// copyLiveTree copies the store root (minus backups, history, and the
// transient lock file) and the settings tree into destDir, returning the
// snapshot record. The manifest file is written last.
func (m *Manager) copyLiveTree(id, destDir, description string) (*Snapshot, error) {
	storeDest := filepath.Join(destDir, storeSubdir)
	if err := os.MkdirAll(storeDest, 0o700); err != nil {
		return nil, &store.IOError{Path: storeDest, Err: err}
	}

	entries, err := os.ReadDir(m.storeRoot)
	if err != nil {
		return nil, &store.IOError{Path: m.storeRoot, Err: err}
	}

	snap := &Snapshot{
		ID:          id,
		Description: description,
		CreatedAt:   m.clock.Now().UTC(),
		Host:        collectHostMetadata(),
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == BackupsDirName || name == HistoryFileName || name == store.LockFileName {
			continue
		}
		src := filepath.Join(m.storeRoot, name)
		destRel := filepath.Join(storeSubdir, name)
		item, err := m.copyItem(src, destDir, destRel)
		if err != nil {
			return nil, err
		}
		snap.Manifest = append(snap.Manifest, *item)
		snap.TotalSize += item.Size
	}

	if m.settingsDir != "" {
		if _, err := os.Stat(m.settingsDir); err == nil {
			item, err := m.copyItem(m.settingsDir, destDir, settingsSubdir)
			if err != nil {
				return nil, err
			}
			snap.Manifest = append(snap.Manifest, *item)
			snap.TotalSize += item.Size
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, &store.IOError{Path: m.settingsDir, Err: err}
		}
	}

	manifest, err := marshalManifest(snap)
	if err != nil {
		return nil, err
	}
	if err := store.WriteAtomic(filepath.Join(destDir, manifestFileName), manifest, 0o600); err != nil {
		return nil, err
	}
	return snap, nil
}

// copyItem copies one live item into the snapshot and records its size
// and checksum. The checksum is computed over the copied bytes, so verify
// later checks the backup copy, not the live tree.
func (m *Manager) copyItem(src, destDir, destRel string) (*ManifestEntry, error) {
	dest := filepath.Join(destDir, destRel)
	if err := copyTree(src, dest); err != nil {
		return nil, fmt.Errorf("copying %s: %w", src, err)
	}
	size, err := TreeSize(dest)
	if err != nil {
		return nil, err
	}
	checksum, err := TreeChecksum(dest)
	if err != nil {
		return nil, err
	}
	return &ManifestEntry{
		SourcePath: src,
		DestPath:   filepath.ToSlash(destRel),
		Size:       size,
		Checksum:   checksum,
	}, nil
}

// newID returns a timestamp ID unique within the history and on disk.
func (m *Manager) newID(h *history) string {
	base := m.clock.Now().UTC().Format("20060102T150405Z")
	id := base
	for n := 2; ; n++ {
		if h.find(id) == nil {
			if _, err := os.Stat(filepath.Join(m.backupsDir, id)); errors.Is(err, fs.ErrNotExist) {
				if _, err := os.Stat(filepath.Join(m.backupsDir, id+archiveSuffix)); errors.Is(err, fs.ErrNotExist) {
					return id
				}
			}
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// ListEntry is a history entry annotated with its on-disk presence.
type ListEntry struct {
	*Snapshot
	Exists     bool
	Compressed bool
}

// List returns known snapshots. sortBy is "time" (newest first, default)
// or "size" (largest first). limit <= 0 returns all.
func (m *Manager) List(sortBy string, limit int) ([]ListEntry, error) {
	h, err := m.loadHistory()
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(h.Snapshots))
	for _, snap := range h.Snapshots {
		dirExists := pathExists(filepath.Join(m.backupsDir, snap.ID))
		archiveExists := pathExists(filepath.Join(m.backupsDir, snap.ID+archiveSuffix))
		entries = append(entries, ListEntry{
			Snapshot:   snap,
			Exists:     dirExists || archiveExists,
			Compressed: archiveExists && !dirExists,
		})
	}

	switch sortBy {
	case "size":
		sort.Slice(entries, func(i, j int) bool { return entries[i].TotalSize > entries[j].TotalSize })
	default:
		sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Issue is one verification finding: a missing, resized, or corrupted
// manifest item.
type Issue struct {
	Path     string
	Reason   string
	Expected string
	Actual   string
}

// VerifyReport lists every issue found for one snapshot.
type VerifyReport struct {
	ID     string
	Issues []Issue
}

// Valid reports whether verification found no issues.
func (r *VerifyReport) Valid() bool { return len(r.Issues) == 0 }

// Verify recomputes each manifest entry's size and checksum against the
// bytes in the backup copy and reports every mismatch or missing item.
// For a compressed snapshot the archive's recorded size and checksum are
// checked instead.
func (m *Manager) Verify(id string) (*VerifyReport, error) {
	h, err := m.loadHistory()
	if err != nil {
		return nil, err
	}
	snap := h.find(id)
	if snap == nil {
		return nil, fmt.Errorf("unknown snapshot: %s", id)
	}

	report := &VerifyReport{ID: id}
	dir := filepath.Join(m.backupsDir, id)

	if !pathExists(dir) {
		archive := dir + archiveSuffix
		if snap.Archive == nil || !pathExists(archive) {
			report.Issues = append(report.Issues, Issue{Path: dir, Reason: "snapshot missing on disk"})
			return report, nil
		}
		m.verifyArchive(snap, archive, report)
		return report, nil
	}

	for _, entry := range snap.Manifest {
		p := filepath.Join(dir, filepath.FromSlash(entry.DestPath))
		if !pathExists(p) {
			report.Issues = append(report.Issues, Issue{Path: p, Reason: "missing"})
			continue
		}
		size, err := TreeSize(p)
		if err != nil {
			return nil, err
		}
		if size != entry.Size {
			report.Issues = append(report.Issues, Issue{
				Path: p, Reason: "size mismatch",
				Expected: fmt.Sprintf("%d", entry.Size), Actual: fmt.Sprintf("%d", size),
			})
		}
		checksum, err := TreeChecksum(p)
		if err != nil {
			return nil, err
		}
		if checksum != entry.Checksum {
			report.Issues = append(report.Issues, Issue{
				Path: p, Reason: "checksum mismatch",
				Expected: entry.Checksum, Actual: checksum,
			})
		}
	}
	return report, nil
}

func (m *Manager) verifyArchive(snap *Snapshot, archive string, report *VerifyReport) {
	info, err := os.Stat(archive)
	if err != nil {
		report.Issues = append(report.Issues, Issue{Path: archive, Reason: "archive unreadable", Actual: err.Error()})
		return
	}
	if info.Size() != snap.Archive.Size {
		report.Issues = append(report.Issues, Issue{
			Path: archive, Reason: "archive size mismatch",
			Expected: fmt.Sprintf("%d", snap.Archive.Size), Actual: fmt.Sprintf("%d", info.Size()),
		})
	}
	checksum, err := TreeChecksum(archive)
	if err != nil {
		report.Issues = append(report.Issues, Issue{Path: archive, Reason: "archive unreadable", Actual: err.Error()})
		return
	}
	if checksum != snap.Archive.Checksum {
		report.Issues = append(report.Issues, Issue{
			Path: archive, Reason: "archive checksum mismatch",
			Expected: snap.Archive.Checksum, Actual: checksum,
		})
	}
}

// VerifyAll verifies every known snapshot and returns the per-snapshot
// reports along with valid/invalid counts.
func (m *Manager) VerifyAll() (valid int, invalid int, reports []*VerifyReport, err error) {
	h, err := m.loadHistory()
	if err != nil {
		return 0, 0, nil, err
	}
	for _, snap := range h.Snapshots {
		report, verr := m.Verify(snap.ID)
		if verr != nil {
			return valid, invalid, reports, verr
		}
		reports = append(reports, report)
		if report.Valid() {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid, reports, nil
}

// Restore overwrites the live tree from the target snapshot. A fresh
// safety snapshot of the current live state is always created first, so a
// bad restore is itself recoverable; no destructive overwrite begins
// until the safety snapshot exists. Returns the safety snapshot.
func (m *Manager) Restore(id string) (*Snapshot, error) {
	h, err := m.loadHistory()
	if err != nil {
		return nil, err
	}
	snap := h.find(id)
	if snap == nil {
		return nil, fmt.Errorf("unknown snapshot: %s", id)
	}

	dir := filepath.Join(m.backupsDir, id)
	if !pathExists(dir) {
		if snap.Archive != nil && pathExists(dir+archiveSuffix) {
			if err := m.Decompress(id); err != nil {
				return nil, fmt.Errorf("unpacking snapshot for restore: %w", err)
			}
		} else {
			return nil, &store.IntegrityError{Path: dir, Expected: "snapshot directory or archive", Actual: "missing"}
		}
	}
	manifestPath := filepath.Join(dir, manifestFileName)
	if !pathExists(manifestPath) {
		return nil, &store.IntegrityError{Path: manifestPath, Expected: "manifest", Actual: "missing"}
	}

	safety, err := m.Create(fmt.Sprintf("pre-restore safety snapshot (restoring %s)", id), CreateOptions{SkipSweep: true})
	if err != nil {
		return nil, fmt.Errorf("creating safety snapshot: %w", err)
	}

	for _, entry := range snap.Manifest {
		src := filepath.Join(dir, filepath.FromSlash(entry.DestPath))
		if err := os.RemoveAll(entry.SourcePath); err != nil {
			return safety, &store.IOError{Path: entry.SourcePath, Err: err}
		}
		if err := os.MkdirAll(filepath.Dir(entry.SourcePath), 0o700); err != nil {
			return safety, &store.IOError{Path: entry.SourcePath, Err: err}
		}
		if err := copyTree(src, entry.SourcePath); err != nil {
			return safety, fmt.Errorf("restoring %s: %w", entry.SourcePath, err)
		}
	}

	m.logger.Info("snapshot restored", "id", id, "safety", safety.ID)
	return safety, nil
}

// CleanFailure is one snapshot the sweep could not remove.
type CleanFailure struct {
	ID  string
	Err error
}

// CleanReport summarizes a retention sweep.
type CleanReport struct {
	Removed  []string
	Failures []CleanFailure
}

// CleanOld removes snapshots beyond the keepCount most recent, plus any
// older than keepDays. A zero bound disables that rule. Failure to remove
// one candidate does not abort cleanup of the others; per-item failures
// are collected in the report.
func (m *Manager) CleanOld(keepCount, keepDays int) (*CleanReport, error) {
	h, err := m.loadHistory()
	if err != nil {
		return nil, err
	}

	byAge := make([]*Snapshot, len(h.Snapshots))
	copy(byAge, h.Snapshots)
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].CreatedAt.After(byAge[j].CreatedAt) })

	candidates := map[string]bool{}
	if keepCount > 0 {
		for _, snap := range byAge[min(keepCount, len(byAge)):] {
			candidates[snap.ID] = true
		}
	}
	if keepDays > 0 {
		cutoff := m.clock.Now().UTC().AddDate(0, 0, -keepDays)
		for _, snap := range byAge {
			if snap.CreatedAt.Before(cutoff) {
				candidates[snap.ID] = true
			}
		}
	}

	report := &CleanReport{}
	for _, snap := range byAge {
		if !candidates[snap.ID] {
			continue
		}
		if err := m.deleteSnapshotFiles(snap.ID); err != nil {
			report.Failures = append(report.Failures, CleanFailure{ID: snap.ID, Err: err})
			continue
		}
		h.remove(snap.ID)
		report.Removed = append(report.Removed, snap.ID)
		m.logger.Info("snapshot retired", "id", snap.ID)
	}

	if err := m.saveHistory(h); err != nil {
		return report, err
	}
	return report, nil
}

// Delete removes a single snapshot and its history entry.
func (m *Manager) Delete(id string) error {
	h, err := m.loadHistory()
	if err != nil {
		return err
	}
	if h.find(id) == nil {
		return fmt.Errorf("unknown snapshot: %s", id)
	}
	if err := m.deleteSnapshotFiles(id); err != nil {
		return err
	}
	h.remove(id)
	return m.saveHistory(h)
}

func (m *Manager) deleteSnapshotFiles(id string) error {
	dir := filepath.Join(m.backupsDir, id)
	if err := os.RemoveAll(dir); err != nil {
		return &store.IOError{Path: dir, Err: err}
	}
	archive := dir + archiveSuffix
	if err := os.Remove(archive); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &store.IOError{Path: archive, Err: err}
	}
	return nil
}

// Compress packs a snapshot directory into a tar.gz archive. The
// directory is removed only after the archive is confirmed written and
// its size/checksum recorded in the history, so verify keeps working on
// the compressed form. If a replica is configured the archive is uploaded
// afterward, encrypted when an archive encryptor is configured.
func (m *Manager) Compress(id string) error {
	h, err := m.loadHistory()
	if err != nil {
		return err
	}
	snap := h.find(id)
	if snap == nil {
		return fmt.Errorf("unknown snapshot: %s", id)
	}

	dir := filepath.Join(m.backupsDir, id)
	if !pathExists(dir) {
		return fmt.Errorf("snapshot %s has no directory to compress", id)
	}
	archive := dir + archiveSuffix

	if err := createArchive(dir, archive); err != nil {
		return err
	}

	info, err := os.Stat(archive)
	if err != nil {
		return &store.IOError{Path: archive, Err: err}
	}
	checksum, err := TreeChecksum(archive)
	if err != nil {
		return err
	}
	snap.Archive = &ArchiveInfo{Size: info.Size(), Checksum: checksum}
	if err := m.saveHistory(h); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return &store.IOError{Path: dir, Err: err}
	}
	m.logger.Info("snapshot compressed", "id", id, "archiveSize", info.Size())

	if m.replica != nil {
		if err := m.replicate(id, archive); err != nil {
			return fmt.Errorf("replicating snapshot %s: %w", id, err)
		}
	}
	return nil
}

// Decompress unpacks a snapshot archive back into directory form. The
// archive is removed only after the directory is confirmed present, so
// the two forms stay mutually exclusive.
func (m *Manager) Decompress(id string) error {
	h, err := m.loadHistory()
	if err != nil {
		return err
	}
	snap := h.find(id)
	if snap == nil {
		return fmt.Errorf("unknown snapshot: %s", id)
	}

	dir := filepath.Join(m.backupsDir, id)
	archive := dir + archiveSuffix
	if !pathExists(archive) {
		return fmt.Errorf("snapshot %s has no archive to decompress", id)
	}
	if pathExists(dir) {
		return fmt.Errorf("snapshot %s already has a directory form", id)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &store.IOError{Path: dir, Err: err}
	}
	if err := extractArchive(archive, dir); err != nil {
		os.RemoveAll(dir)
		return err
	}
	if !pathExists(filepath.Join(dir, manifestFileName)) {
		os.RemoveAll(dir)
		return &store.IntegrityError{Path: dir, Expected: "manifest in unpacked snapshot", Actual: "missing"}
	}

	snap.Archive = nil
	if err := m.saveHistory(h); err != nil {
		return err
	}
	if err := os.Remove(archive); err != nil {
		return &store.IOError{Path: archive, Err: err}
	}
	m.logger.Info("snapshot decompressed", "id", id)
	return nil
}

// replicate uploads an archive to the replica, encrypting first when an
// archive encryptor is configured.
func (m *Manager) replicate(id, archive string) error {
	name := id + archiveSuffix
	path := archive

	if m.encryptor != nil && m.encryptor.IsConfigured() {
		enc, err := os.CreateTemp(m.backupsDir, "."+name+".enc-*")
		if err != nil {
			return fmt.Errorf("creating encrypted upload temp file: %w", err)
		}
		defer os.Remove(enc.Name())
		defer enc.Close()

		src, err := os.Open(archive)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		err = m.encryptor.Encrypt(src, enc)
		src.Close()
		if err != nil {
			return fmt.Errorf("encrypting archive: %w", err)
		}
		name += ".age"
		path = enc.Name()
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening upload source: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat upload source: %w", err)
	}

	if err := m.replica.Put(name, f, info.Size()); err != nil {
		return err
	}
	m.logger.Info("snapshot replicated", "id", id, "name", name, "size", info.Size())
	return nil
}

// Fetch downloads a snapshot archive from the replica into the backups
// directory. dec must be supplied when the replica copy was encrypted;
// pass nil for plaintext replicas.
func (m *Manager) Fetch(id string, dec Decryptor) error {
	if m.replica == nil {
		return fmt.Errorf("no replica configured")
	}
	archive := filepath.Join(m.backupsDir, id+archiveSuffix)
	if pathExists(archive) || pathExists(filepath.Join(m.backupsDir, id)) {
		return fmt.Errorf("snapshot %s already present locally", id)
	}

	tmp, err := os.CreateTemp(m.backupsDir, "."+id+".fetch-*")
	if err != nil {
		return fmt.Errorf("creating fetch temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	name := id + archiveSuffix
	if dec != nil {
		name += ".age"
	}
	if err := m.replica.Get(name, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("fetching %s from replica: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return &store.IOError{Path: tmpName, Err: err}
	}

	if dec != nil {
		in, err := os.Open(tmpName)
		if err != nil {
			return &store.IOError{Path: tmpName, Err: err}
		}
		defer in.Close()
		out, err := os.CreateTemp(m.backupsDir, "."+id+".plain-*")
		if err != nil {
			return fmt.Errorf("creating decrypt temp file: %w", err)
		}
		defer os.Remove(out.Name())
		if err := dec.Decrypt(in, out); err != nil {
			out.Close()
			return fmt.Errorf("decrypting fetched archive: %w", err)
		}
		if err := out.Close(); err != nil {
			return &store.IOError{Path: out.Name(), Err: err}
		}
		tmpName = out.Name()
	}

	if err := os.Rename(tmpName, archive); err != nil {
		return &store.IOError{Path: archive, Err: err}
	}
	m.logger.Info("snapshot fetched from replica", "id", id)
	return nil
}

func marshalManifest(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func collectHostMetadata() HostMetadata {
	meta := HostMetadata{Platform: runtime.GOOS}
	if hostname, err := os.Hostname(); err == nil {
		meta.Hostname = hostname
	}
	if u, err := user.Current(); err == nil {
		meta.Username = u.Username
	}
	return meta
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
