package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for EstateHub Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Identity      IdentityConfig      `yaml:"identity"`
	API           APIConfig           `yaml:"api"`
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// IdentityConfig contains connection settings for the remote identity service.
type IdentityConfig struct {
	// BaseURL is the root of the identity service API
	// (e.g. "https://api.estatehub.example.com/api").
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// APIConfig contains settings for the authenticated data-access client.
type APIConfig struct {
	// BaseURL is the root of the EstateHub REST API. Usually the same host
	// as the identity service.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// StorageConfig contains settings for the durable local session store.
type StorageConfig struct {
	// Path is the filesystem path to the SQLite database file.
	Path string `yaml:"path"`

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// NotificationsConfig contains settings for the notification stream.
type NotificationsConfig struct {
	// Enabled turns the websocket notification stream on or off.
	Enabled bool `yaml:"enabled"`

	// Path is the stream path relative to the API base URL.
	Path string `yaml:"path"`

	// PingInterval is how often the client pings the server (seconds).
	PingInterval int `yaml:"ping_interval"`

	// PongTimeout is how long to wait for a pong before giving up (seconds).
	PongTimeout int `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ESTATEHUB_SECTION_KEY
// For example: ESTATEHUB_IDENTITY_URL, ESTATEHUB_STORAGE_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Identity: IdentityConfig{
			Timeout: 15,
		},
		API: APIConfig{
			Timeout: 30,
		},
		Storage: StorageConfig{
			Path:        "./data/estatehub.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Notifications: NotificationsConfig{
			Enabled:      true,
			Path:         "/notifications/stream",
			PingInterval: 30,
			PongTimeout:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ESTATEHUB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ESTATEHUB_IDENTITY_URL"); v != "" {
		cfg.Identity.BaseURL = v
	}
	if v := os.Getenv("ESTATEHUB_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ESTATEHUB_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("ESTATEHUB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if err := validateURL(c.Identity.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("identity.base_url: %v", err))
	}
	if c.Identity.Timeout <= 0 {
		errs = append(errs, "identity.timeout must be positive")
	}

	// The data-access client defaults to the identity service host when
	// no separate API base URL is configured.
	if c.API.BaseURL == "" {
		c.API.BaseURL = c.Identity.BaseURL
	} else if err := validateURL(c.API.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("api.base_url: %v", err))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "api.timeout must be positive")
	}

	if c.Storage.Path == "" {
		errs = append(errs, "storage.path is required")
	}

	if c.Notifications.Enabled && c.Notifications.Path == "" {
		errs = append(errs, "notifications.path is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateURL checks that a base URL is present and uses an HTTP scheme.
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required (set ESTATEHUB_IDENTITY_URL environment variable)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("is missing a host")
	}
	return nil
}

// IdentityTimeout returns the identity service request timeout as a Duration.
func (c *Config) IdentityTimeout() time.Duration {
	return time.Duration(c.Identity.Timeout) * time.Second
}

// APITimeout returns the data-access request timeout as a Duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}
