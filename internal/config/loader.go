package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Load reads the configuration from the default path, falling back to
// built-in defaults when no config file exists yet.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		var notFound *ConfigNotFoundError
		if errors.As(err, &notFound) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the configuration from a specific path.
//
// Absent sections fall back to defaults; only a file that exists but
// cannot be read or parsed is an error.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'recall init' to create a default configuration",
			}
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Path: path,
				Op:   "read",
				Fix:  fmt.Sprintf("Run: chmod 644 %s", path),
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    "Restore from the .bak file if available",
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}
