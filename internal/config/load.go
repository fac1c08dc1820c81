package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up when no path is given.
	FileName = "ripple.yaml"
	// EnvPath names an environment variable holding a config path. The
	// -config flag takes precedence over it.
	EnvPath = "MARINA_RIPPLE_CONFIG"
)

// Load builds the configuration from defaults, then the config file (if
// any), then CLI flags, and validates the result.
func Load() (*Config, error) {
	path, err := resolvePath(ConfigPath())
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolvePath picks the config file. An explicitly named file must exist;
// the search locations are optional.
func resolvePath(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvPath)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	return findConfigFile(), nil
}

// findConfigFile returns the first existing file among the working
// directory and ConfigDir, or "".
func findConfigFile() string {
	for _, path := range []string{FileName, filepath.Join(ConfigDir(), FileName)} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for the application.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "marina-ripple")
}

// loadFromFile merges a YAML file into cfg. Unknown keys are rejected so a
// misspelt tunable does not silently fall back to its default; an empty
// file leaves cfg unchanged.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
