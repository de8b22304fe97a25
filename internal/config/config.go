// Package config provides configuration types, defaults, and persistence
// for xrsd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/tracing"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all configuration options for xrsd.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

// ServerConfig holds the HTTP server options.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8545".
	Addr      string          `mapstructure:"addr"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds per-IP admission control options. Zero values fall
// back to built-in defaults; Disabled turns admission off entirely.
type RateLimitConfig struct {
	Disabled       bool          `mapstructure:"disabled"`
	GeneralLimit   int           `mapstructure:"general_limit"`
	GeneralWindow  time.Duration `mapstructure:"general_window"`
	RegisterLimit  int           `mapstructure:"register_limit"`
	RegisterWindow time.Duration `mapstructure:"register_window"`
}

// DatabaseConfig selects and locates the storage backend.
type DatabaseConfig struct {
	// Backend is "sqlite" (durable, default) or "memory" (ephemeral).
	Backend string `mapstructure:"backend"`
	// Path is the SQLite database file; ignored by the memory backend.
	Path string `mapstructure:"path"`
}

// ResolverConfig holds client-side resolution options used by the CLI
// lookup commands.
type ResolverConfig struct {
	// Endpoint is the registry base URL.
	Endpoint string `mapstructure:"endpoint"`
	// CacheTTL is how long resolutions stay fresh client-side.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8545",
		},
		Database: DatabaseConfig{
			Backend: BackendSQLite,
			Path:    DefaultDatabasePath(),
		},
		Resolver: ResolverConfig{
			Endpoint: "http://localhost:8545",
			CacheTTL: 5 * time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values are valid and
// fall back to defaults.
func Validate(cfg Config) error {
	switch cfg.Database.Backend {
	case "", BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("database.backend must be %q or %q, got %q",
			BackendSQLite, BackendMemory, cfg.Database.Backend)
	}

	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	switch cfg.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
	}

	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigDir returns ~/.config/xrsd, or "" if the home directory is
// unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "xrsd")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDatabasePath returns the default SQLite file location.
func DefaultDatabasePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return "xrsd.db"
	}
	return filepath.Join(dir, "xrsd.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with
// comments.
func DefaultConfigTemplate() string {
	return `# xrsd Configuration

# HTTP server settings
server:
  # Listen address for the registry API
  addr: ":8545"

  # Per-IP admission control
  # rate_limit:
  #   disabled: false
  #   general_limit: 100        # requests per general window
  #   general_window: 15m
  #   register_limit: 10        # registrations per register window
  #   register_window: 1h

# Storage backend
database:
  # "sqlite" (durable, default) or "memory" (ephemeral, for development)
  backend: sqlite
  # SQLite database file (ignored for the memory backend)
  # path: ~/.config/xrsd/xrsd.db

# Client-side resolution (used by the resolve/register/check commands)
resolver:
  endpoint: http://localhost:8545
  cache_ttl: 5m

# Distributed tracing
# tracing:
#   enabled: false
#   exporter: file               # none, file, stdout, otlp
#   file_path: ~/.config/xrsd/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
