package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents an ost.toml configuration file.
type Config struct {
	// DefaultFormat is the target encoding when -format is not given.
	DefaultFormat string `toml:"default_format"`
	// StashPath is the snapshot database location when -stash is not given.
	StashPath string `toml:"stash_path"`
}

// loadConfig parses ost.toml from the given directory. A missing file is
// not an error; defaults apply.
func loadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	cfg := &Config{DefaultFormat: "binary"}

	path := filepath.Join(dir, "ost.toml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "binary"
	}
	return cfg, nil
}

// defaultStashPath picks the stash location when neither flag nor config
// provides one: $OST_STASH, else ~/.ost/stash.db.
func defaultStashPath() (string, error) {
	if path := os.Getenv("OST_STASH"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(home, ".ost", "stash.db"), nil
}
