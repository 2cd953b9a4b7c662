package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the configuration with backup and atomic replace.
//
// The previous file, if any, is copied to <path>.bak first; the new
// content lands via a temp file and rename so a crash mid-write never
// leaves a truncated config behind.
func Save(cfg *Config, path string) error {
	if err := backupConfig(path); err != nil {
		// First run has nothing to back up; anything else is worth a
		// warning but should not block the save.
		fmt.Fprintf(os.Stderr, "Warning: failed to create backup: %v\n", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicWrite(path, data); err != nil {
		if os.IsPermission(err) {
			return &PermissionError{
				Path: path,
				Op:   "write",
				Fix:  fmt.Sprintf("Run: chmod u+w %s", filepath.Dir(path)),
			}
		}
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
