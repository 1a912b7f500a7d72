package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a YAML config file to a temp directory and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
identity:
  base_url: https://api.estatehub.test/api
  timeout: 20
storage:
  path: /tmp/estatehub-test.db
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Identity.BaseURL != "https://api.estatehub.test/api" {
		t.Errorf("Identity.BaseURL = %q", cfg.Identity.BaseURL)
	}
	if cfg.Identity.Timeout != 20 {
		t.Errorf("Identity.Timeout = %d, want 20", cfg.Identity.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Defaults fill in anything the file omits.
	if cfg.API.Timeout != 30 {
		t.Errorf("API.Timeout = %d, want default 30", cfg.API.Timeout)
	}
	if !cfg.Storage.WALMode {
		t.Error("Storage.WALMode should default to true")
	}
}

func TestLoad_APIDefaultsToIdentityHost(t *testing.T) {
	path := writeConfig(t, `
identity:
  base_url: https://api.estatehub.test/api
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.BaseURL != cfg.Identity.BaseURL {
		t.Errorf("API.BaseURL = %q, want identity base URL", cfg.API.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
identity:
  base_url: https://file.estatehub.test/api
`)

	t.Setenv("ESTATEHUB_IDENTITY_URL", "https://env.estatehub.test/api")
	t.Setenv("ESTATEHUB_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Identity.BaseURL != "https://env.estatehub.test/api" {
		t.Errorf("env override not applied: %q", cfg.Identity.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing identity URL",
			mutate:  func(c *Config) { c.Identity.BaseURL = "" },
			wantErr: "identity.base_url",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Identity.BaseURL = "ftp://example.com" },
			wantErr: "must use http or https",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Identity.Timeout = 0 },
			wantErr: "identity.timeout",
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path",
		},
		{
			name: "notifications enabled without path",
			mutate: func(c *Config) {
				c.Notifications.Enabled = true
				c.Notifications.Path = ""
			},
			wantErr: "notifications.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Identity.BaseURL = "https://api.estatehub.test/api"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
