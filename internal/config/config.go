// Package config loads installer settings from the user's centy
// directory and provides the Logger interface used across the
// installer.
//
// Settings live in ~/.centy/config.toml. The file is optional; every
// field has a production default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultAPIBase is the release index endpoint.
	DefaultAPIBase = "https://api.github.com"
	// DefaultDownloadBase is the release asset download endpoint.
	DefaultDownloadBase = "https://github.com/centy-io/centy-daemon/releases/download"
	// DefaultUserAgent is sent with every HTTP request.
	DefaultUserAgent = "centy-installer"
	// DefaultTimeoutSeconds bounds each HTTP request.
	DefaultTimeoutSeconds = 300
)

// Config holds installer settings.
type Config struct {
	APIBase        string `toml:"api_base"`
	DownloadBase   string `toml:"download_base"`
	BinDir         string `toml:"bin_dir"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CentyDir returns the per-user centy directory (~/.centy).
func CentyDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".centy"), nil
}

// Default returns a Config with production defaults. binDir defaults to
// <home>/.centy/bin when the home directory is resolvable; otherwise it
// is left empty and Load reports the error.
func Default() (*Config, error) {
	centyDir, err := CentyDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		APIBase:        DefaultAPIBase,
		DownloadBase:   DefaultDownloadBase,
		BinDir:         filepath.Join(centyDir, "bin"),
		UserAgent:      DefaultUserAgent,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}, nil
}

// Load reads settings from path, falling back to defaults for absent
// fields. A missing file yields pure defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault reads settings from the well-known location
// (~/.centy/config.toml).
func LoadDefault() (*Config, error) {
	centyDir, err := CentyDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(centyDir, "config.toml"))
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}
