// Package config loads and saves the user's preferences from a
// human-editable TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/codyseavey/decklist-companion/internal/models"
)

// AppName is the directory identifier under the platform config and data
// locations.
const AppName = "decklist"

// Config holds the user's preferences.
type Config struct {
	// UseDatabase gates the whole catalog pipeline. When false, legality
	// and pricing report "no data" and nothing is downloaded.
	UseDatabase bool `toml:"use_database"`

	// DatabasePath is where catalog files live. Defaults to the platform
	// data directory.
	DatabasePath string `toml:"database_path"`

	// DatabaseAgeLimit is the re-download threshold in days.
	DatabaseAgeLimit uint64 `toml:"database_age_limit"`

	// DatabaseNum caps how many catalog files are retained on disk.
	DatabaseNum int `toml:"database_num"`

	// CollectionPath, when set, is auto-loaded on startup.
	CollectionPath string `toml:"collection_path"`

	// Currency selects the pricing column: USD, Euro or Tix.
	Currency models.Currency `toml:"currency"`

	// MetricsAddr, when set, serves Prometheus metrics on that address.
	// Empty keeps the process off the network apart from bulk downloads.
	MetricsAddr string `toml:"metrics_addr"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() *Config {
	dataDir, _ := DataDir()
	return &Config{
		UseDatabase:      true,
		DatabasePath:     dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	}
}

// ConfigDir returns the platform config directory for this tool.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DataDir returns where catalog files and logs are kept. The catalog is
// re-downloadable, so the cache location is the right home for it.
func DataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ConfigFile returns the full path of the config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config at path. A missing or invalid file is recoverable:
// defaults come back alongside the error so the caller can surface a status
// and keep going.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config file: %w", err)
	}

	if cfg.DatabaseNum < 1 {
		cfg.DatabaseNum = 1
	}
	if !cfg.Currency.Valid() {
		bad := cfg.Currency
		cfg.Currency = models.CurrencyUSD
		return cfg, fmt.Errorf("unknown currency %q, using USD", bad)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
