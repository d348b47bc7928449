// Package config loads and saves tally configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all tally configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Suggest SuggestConfig `toml:"suggest"`
	Guard   GuardConfig   `toml:"guard"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// Book overrides the default book database path.
	Book string `toml:"book,omitempty"`
	// Currency is the display currency code. It is an explicit setting, not
	// inferred from the first record in the book.
	Currency string `toml:"currency"`
}

// SuggestConfig tunes category suggestions.
type SuggestConfig struct {
	// SampleLimit bounds the historical transaction sample.
	SampleLimit int `toml:"sample_limit"`
}

// GuardConfig tunes the write-access guard.
type GuardConfig struct {
	// TTLMillis is how long a guard probe result is cached.
	TTLMillis int `toml:"ttl_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{Currency: "USD"},
		Suggest: SuggestConfig{SampleLimit: 50},
		Guard:   GuardConfig{TTLMillis: 2000},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tally")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultBookPath returns the XDG-compliant default book location.
func DefaultBookPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally", "book.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tally", "book.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
