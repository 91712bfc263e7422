package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DescriptorFileName is the root descriptor holding the default
	// provider pointer.
	DescriptorFileName = "config.json"

	// providersDirName holds one JSON file per provider record.
	providersDirName = "providers"

	// DefaultMaxProviders bounds the number of records one store holds.
	DefaultMaxProviders = 50
)

// Store is the CRUD surface over provider records. It composes the
// validator, the secret cipher, the lock coordinator, and the atomic
// file codec. Mutating operations (Add, Update, Remove, SetDefault)
// serialize against other processes via the lock file; reads do not.
type Store struct {
	root           string
	providersDir   string
	descriptorPath string
	maxProviders   int

	validator *Validator
	cipher    Cipher
	lock      *lockFile
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// Options configures a Store. Root and Cipher are required; everything
// else has a production default.
type Options struct {
	Root         string
	Cipher       Cipher
	MaxProviders int
	LockTTL      time.Duration
	Validator    *Validator
	Logger       Logger
	Clock        Clock
	IDGen        IDGenerator
}

// New creates a Store rooted at opts.Root, creating the directory tree
// with owner-only permissions if it does not exist.
func New(opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if opts.Cipher == nil {
		return nil, fmt.Errorf("secret cipher is required")
	}
	if opts.MaxProviders == 0 {
		opts.MaxProviders = DefaultMaxProviders
	}
	if opts.LockTTL == 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = UUIDGenerator{}
	}

	providersDir := filepath.Join(opts.Root, providersDirName)
	if err := os.MkdirAll(providersDir, 0o700); err != nil {
		return nil, &IOError{Path: providersDir, Err: err}
	}

	return &Store{
		root:           opts.Root,
		providersDir:   providersDir,
		descriptorPath: filepath.Join(opts.Root, DescriptorFileName),
		maxProviders:   opts.MaxProviders,
		validator:      opts.Validator,
		cipher:         opts.Cipher,
		lock: &lockFile{
			path:   filepath.Join(opts.Root, LockFileName),
			ttl:    opts.LockTTL,
			clock:  opts.Clock,
			logger: opts.Logger,
		},
		logger: opts.Logger,
		clock:  opts.Clock,
		idgen:  opts.IDGen,
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) recordPath(alias string) string {
	return filepath.Join(s.providersDir, alias+".json")
}

// Add validates and persists a new provider record. The record's secret
// is encrypted and created/lastUpdated/version/id are stamped. Fails with
// a ConflictError if the alias exists or the store is at capacity.
func (s *Store) Add(rec *ProviderRecord) (*ProviderRecord, error) {
	var stored *ProviderRecord
	err := s.lock.withLock("add", func() error {
		if err := s.validator.Validate(rec); err != nil {
			return err
		}

		path := s.recordPath(rec.Alias)
		if _, err := os.Stat(path); err == nil {
			return &ConflictError{Reason: fmt.Sprintf("provider %q already exists", rec.Alias)}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Path: path, Err: err}
		}

		count, err := s.countRecords()
		if err != nil {
			return err
		}
		if count >= s.maxProviders {
			return &ConflictError{Reason: fmt.Sprintf("store is at capacity (%d providers)", s.maxProviders)}
		}

		now := s.clock.Now().UTC()
		stamped := rec.Clone()
		stamped.Created = now
		stamped.LastUpdated = now
		stamped.LastUsed = time.Time{}
		stamped.Version = SchemaVersion
		stamped.ID = s.idgen.New()

		enc, err := s.cipher.Encrypt(stamped.APIKey)
		if err != nil {
			return fmt.Errorf("encrypting secret for %q: %w", rec.Alias, err)
		}
		stamped.APIKey = enc

		if err := s.writeRecord(stamped); err != nil {
			return err
		}
		stored = stamped
		s.logger.Info("provider added", "alias", stamped.Alias, "id", stamped.ID)
		return nil
	})
	return stored, err
}

// Update applies a patch to an existing record. Created and ID are
// preserved, lastUpdated is bumped, and the secret is re-encrypted only
// when the patch carries a new plaintext secret.
func (s *Store) Update(alias string, patch Patch) (*ProviderRecord, error) {
	var stored *ProviderRecord
	err := s.lock.withLock("update", func() error {
		current, err := s.readRecord(alias)
		if err != nil {
			return err
		}

		merged := current.Clone()
		if patch.BaseURL != nil {
			merged.BaseURL = *patch.BaseURL
		}
		if patch.TimeoutMillis != nil {
			merged.TimeoutMillis = *patch.TimeoutMillis
		}
		secretChanged := patch.APIKey != nil
		if secretChanged {
			merged.APIKey = *patch.APIKey
		}

		if err := s.validator.Validate(merged); err != nil {
			return err
		}

		if secretChanged {
			enc, err := s.cipher.Encrypt(merged.APIKey)
			if err != nil {
				return fmt.Errorf("encrypting secret for %q: %w", alias, err)
			}
			merged.APIKey = enc
		}

		merged.Created = current.Created
		merged.ID = current.ID
		merged.Version = SchemaVersion
		merged.LastUpdated = s.clock.Now().UTC()

		if err := s.writeRecord(merged); err != nil {
			return err
		}
		stored = merged
		s.logger.Info("provider updated", "alias", alias)
		return nil
	})
	return stored, err
}

// Remove deletes a record. If the removed alias is the current default,
// the default pointer is cleared in the same logical operation.
func (s *Store) Remove(alias string) error {
	return s.lock.withLock("remove", func() error {
		path := s.recordPath(alias)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &NotFoundError{Alias: alias}
			}
			return &IOError{Path: path, Err: err}
		}
		if err := os.Remove(path); err != nil {
			return &IOError{Path: path, Err: err}
		}

		desc, err := s.readDescriptor()
		if err != nil {
			return err
		}
		if desc.DefaultProvider != nil && *desc.DefaultProvider == alias {
			desc.DefaultProvider = nil
			if err := s.writeDescriptor(desc); err != nil {
				return err
			}
		}
		s.logger.Info("provider removed", "alias", alias)
		return nil
	})
}

// Get returns a record with its secret decrypted. No lock is taken; the
// atomic write path guarantees a reader never sees partial content.
func (s *Store) Get(alias string) (*ProviderRecord, error) {
	rec, err := s.readRecord(alias)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Decrypt(rec.APIKey)
	if err != nil {
		return nil, fmt.Errorf("decrypting secret for %q: %w", alias, err)
	}
	rec.APIKey = plain
	return rec, nil
}

// List returns all records sorted by alias, secrets decrypted. A record
// file that fails to parse or decrypt is skipped and logged at warning
// level so one corrupt file does not take down enumeration.
func (s *Store) List() ([]*ProviderRecord, error) {
	entries, err := os.ReadDir(s.providersDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Path: s.providersDir, Err: err}
	}

	var records []*ProviderRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		alias := strings.TrimSuffix(name, ".json")
		rec, err := s.readRecord(alias)
		if err != nil {
			s.logger.Warn("skipping unreadable provider record", "path", s.recordPath(alias), "error", err)
			continue
		}
		plain, err := s.cipher.Decrypt(rec.APIKey)
		if err != nil {
			s.logger.Warn("skipping provider record with malformed secret", "alias", alias, "error", err)
			continue
		}
		rec.APIKey = plain
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Alias < records[j].Alias })
	return records, nil
}

// SetDefault points the root descriptor at alias and stamps the target
// record's lastUsed. Fails with NotFoundError if the alias is absent.
func (s *Store) SetDefault(alias string) error {
	return s.lock.withLock("set-default", func() error {
		rec, err := s.readRecord(alias)
		if err != nil {
			return err
		}

		rec.LastUsed = s.clock.Now().UTC()
		if err := s.writeRecord(rec); err != nil {
			return err
		}

		desc, err := s.readDescriptor()
		if err != nil {
			return err
		}
		desc.DefaultProvider = &alias
		if err := s.writeDescriptor(desc); err != nil {
			return err
		}
		s.logger.Info("default provider set", "alias", alias)
		return nil
	})
}

// GetDefault returns the default alias, or "" when none is set.
func (s *Store) GetDefault() (string, error) {
	desc, err := s.readDescriptor()
	if err != nil {
		return "", err
	}
	if desc.DefaultProvider == nil {
		return "", nil
	}
	return *desc.DefaultProvider, nil
}

// readRecord loads a record without decrypting its secret.
func (s *Store) readRecord(alias string) (*ProviderRecord, error) {
	path := s.recordPath(alias)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Alias: alias}
		}
		return nil, &IOError{Path: path, Err: err}
	}
	var rec ProviderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &IOError{Path: path, Err: fmt.Errorf("corrupt record: %w", err)}
	}
	return &rec, nil
}

// writeRecord persists a record with owner-only permission bits.
func (s *Store) writeRecord(rec *ProviderRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", rec.Alias, err)
	}
	return WriteAtomic(s.recordPath(rec.Alias), append(data, '\n'), 0o600)
}

func (s *Store) readDescriptor() (*Descriptor, error) {
	data, err := ReadSafe(s.descriptorPath, nil)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &Descriptor{Version: SchemaVersion}, nil
	}
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, &IOError{Path: s.descriptorPath, Err: fmt.Errorf("corrupt descriptor: %w", err)}
	}
	return &desc, nil
}

func (s *Store) writeDescriptor(desc *Descriptor) error {
	desc.Version = SchemaVersion
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}
	return WriteAtomic(s.descriptorPath, append(data, '\n'), 0o600)
}

func (s *Store) countRecords() (int, error) {
	entries, err := os.ReadDir(s.providersDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, &IOError{Path: s.providersDir, Err: err}
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count, nil
}
