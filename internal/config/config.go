package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration for apikeep. It is explicit state
// passed into every constructor; there is no process-wide singleton.
type Config struct {
	StoreRoot   string           `toml:"store_root"`
	LogDir      string           `toml:"log_dir"`
	SettingsDir string           `toml:"settings_dir,omitempty"` // externally-owned tree included in snapshots
	Limits      LimitsConfig     `toml:"limits"`
	Retention   RetentionConfig  `toml:"retention"`
	Replica     ReplicaConfig    `toml:"replica"`
	Encryption  EncryptionConfig `toml:"encryption"`
}

// LimitsConfig bounds the provider store.
type LimitsConfig struct {
	MaxProviders int `toml:"max_providers"` // defaults to 50 when zero
}

// RetentionConfig bounds the snapshot sweep that follows each create.
// A zero value disables the corresponding rule.
type RetentionConfig struct {
	KeepCount int `toml:"keep_count"`
	KeepDays  int `toml:"keep_days"`
}

// ReplicaConfig configures the offsite archive backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ReplicaConfig struct {
	Type string `toml:"type"` // "none", "memory", "filesystem", or "s3"
	Name string `toml:"name"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`   // optional custom endpoint (minio etc.)
	S3AccessKey string `toml:"s3_access_key,omitempty"` // optional static credentials
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for encrypting
// replica uploads.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a Config rooted at baseDir with default paths and
// retention.
func NewConfig(baseDir string) *Config {
	return &Config{
		StoreRoot: filepath.Join(baseDir, "store"),
		LogDir:    filepath.Join(baseDir, "log"),
		Retention: RetentionConfig{KeepCount: 10, KeepDays: 30},
		Replica:   ReplicaConfig{Type: "none"},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "apikeep.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "apikeep.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the
// provided Config. Fails if the file already exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
