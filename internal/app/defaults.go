package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment
// variables first. Environment variables:
//   - APIKEEP_CONFIG_PATH: config file location (default: ~/.config/apikeep.toml)
//   - APIKEEP_HOME: base directory for apikeep data (default: ~/.local/share/apikeep)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"store_root":  filepath.Join(baseDir, "store"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking APIKEEP_CONFIG_PATH
// first, then falling back to ~/.config/apikeep.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("APIKEEP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "apikeep.toml"), nil
}

// getBaseDir returns the base directory for apikeep data, checking
// APIKEEP_HOME first, then falling back to the XDG default
// ~/.local/share/apikeep.
func getBaseDir() (string, error) {
	if path := os.Getenv("APIKEEP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "apikeep"), nil
}
