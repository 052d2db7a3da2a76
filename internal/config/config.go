// Package config loads the commander-rater configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/commander-rater/internal/logging"
	"github.com/ramonehamilton/commander-rater/internal/version"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override file values.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvPort        = "COMMANDER_RATER_PORT"
	EnvLogLevel    = "COMMANDER_RATER_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Scryfall ScryfallConfig `toml:"scryfall"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
}

// DatabaseConfig selects and locates the card store.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	Path   string `toml:"path"`   // SQLite file
	DSN    string `toml:"dsn"`    // Postgres connection string
}

// ScryfallConfig contains card search settings.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url"`
	Query     string `toml:"query"`
	Order     string `toml:"order"`
	PageDelay string `toml:"page_delay"` // e.g. "50ms"
	Timeout   string `toml:"timeout"`    // per request, e.g. "30s"
	UserAgent string `toml:"user_agent"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"` // console output instead of JSON
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "data/cards.db",
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			Query:     "is:commander game:paper legal:commander",
			Order:     "released",
			PageDelay: "50ms",
			Timeout:   "30s",
			UserAgent: version.UserAgent("commander-rater"),
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// DefaultPath returns ~/.commander-rater/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".commander-rater", "config.toml"), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. Returns the default config if the file doesn't exist.
// Keys missing from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveTo writes the configuration to path atomically.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values from the environment. getenv is usually os.Getenv.
// A DATABASE_URL that looks like a Postgres URL also switches the driver.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if url := getenv(EnvDatabaseURL); url != "" {
		if isPostgresURL(url) {
			c.Database.Driver = DriverPostgres
			c.Database.DSN = url
		} else {
			c.Database.Driver = DriverSQLite
			c.Database.Path = url
		}
	}

	if port := getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, port, err)
		}
		c.Server.Port = p
	}

	if level := getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}

	return nil
}

func isPostgresURL(s string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Scryfall.BaseURL == "" {
		return errors.New("scryfall base_url cannot be empty")
	}

	delay, err := time.ParseDuration(c.Scryfall.PageDelay)
	if err != nil {
		return fmt.Errorf("invalid page delay %q: %w", c.Scryfall.PageDelay, err)
	}
	if delay < 0 {
		return fmt.Errorf("page delay cannot be negative: %s", delay)
	}

	timeout, err := time.ParseDuration(c.Scryfall.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Scryfall.Timeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", timeout)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// GetPageDelay returns the Scryfall page delay as a duration.
func (c *Config) GetPageDelay() (time.Duration, error) {
	return time.ParseDuration(c.Scryfall.PageDelay)
}

// GetTimeout returns the Scryfall request timeout as a duration.
func (c *Config) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Scryfall.Timeout)
}

// LoggingConfig converts the [log] section for logging.Setup.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Pretty = c.Log.Pretty
	return cfg
}
