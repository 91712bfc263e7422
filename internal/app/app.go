// Package app wires configuration, logging, the provider store, and the
// snapshot manager into a single application object used by the CLI.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"apikeep/internal/config"
	"apikeep/internal/encryption"
	"apikeep/internal/replica"
	"apikeep/internal/secret"
	"apikeep/internal/snapshot"
	"apikeep/internal/store"
)

// App holds the fully-wired application state for one CLI invocation.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Snapshots *snapshot.Manager
	Encryptor encryption.Encryptor

	Logger *slog.Logger

	logFile *os.File
}

// NewApp wires an App from configuration. operation identifies the CLI
// command for the operation ID carried on every log line.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	opID := fmt.Sprintf("%s-%s", operation, store.UUIDGenerator{}.New()[:8])

	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, err
	}
	storeLogger := &slogAdapter{l: logger}

	cipher, err := secret.NewMachineCipher()
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("initializing secret cipher: %w", err)
	}

	st, err := store.New(store.Options{
		Root:         cfg.StoreRoot,
		Cipher:       cipher,
		MaxProviders: cfg.Limits.MaxProviders,
		Validator:    store.NewValidatorFromEnv(),
		Logger:       storeLogger,
	})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("initializing provider store: %w", err)
	}

	rep, err := replica.NewReplicaFromConfig(cfg.Replica)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("initializing replica: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("initializing archive encryption: %w", err)
	}

	snaps, err := snapshot.NewManager(snapshot.Options{
		StoreRoot:   cfg.StoreRoot,
		SettingsDir: cfg.SettingsDir,
		Retention: snapshot.Retention{
			KeepCount: cfg.Retention.KeepCount,
			KeepDays:  cfg.Retention.KeepDays,
		},
		Logger:    storeLogger,
		Replica:   rep,
		Encryptor: enc,
	})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("initializing snapshot manager: %w", err)
	}

	return &App{
		Config:    cfg,
		Store:     st,
		Snapshots: snaps,
		Encryptor: enc,
		Logger:    logger,
		logFile:   logFile,
	}, nil
}

// NewAppFromFile loads configuration from path and wires an App.
func NewAppFromFile(path, operation string) (*App, error) {
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, operation)
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
