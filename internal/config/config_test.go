package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("MaxConcurrency = %d, want 4", cfg.MaxConcurrency)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "text")
	}
	if cfg.History.Enabled {
		t.Errorf("History.Enabled = true, want false")
	}
	wantDB := filepath.Join(".catcensus", "history", "runs.db")
	if cfg.History.DBPath != wantDB {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, wantDB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `log_level: DEBUG
log_dir: /tmp/catcensus-logs
timeout: 5s
max_concurrency: 2
output_format: json
history:
  enabled: true
  db_path: /tmp/runs.db
  keep_days: 7
server:
  addr: ":9090"
  shutdown_timeout: 3s
  allow_origins:
    - http://localhost:3000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogDir != "/tmp/catcensus-logs" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/tmp/catcensus-logs")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.MaxConcurrency != 2 {
		t.Errorf("MaxConcurrency = %d, want 2", cfg.MaxConcurrency)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
	if !cfg.History.Enabled || cfg.History.DBPath != "/tmp/runs.db" || cfg.History.KeepDays != 7 {
		t.Errorf("History = %+v, want enabled /tmp/runs.db 7", cfg.History)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Server = %+v, want :9090 3s", cfg.Server)
	}
	if len(cfg.Server.AllowOrigins) != 1 || cfg.Server.AllowOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.AllowOrigins = %v, want [http://localhost:3000]", cfg.Server.AllowOrigins)
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q (default)", cfg.LogLevel, "info")
	}
}

// TestLoadConfigInvalid tests error handling for malformed files
func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "log_level: debug\ntimeout: [this is not valid\n"},
		{"invalid timeout", "timeout: soon\n"},
		{"invalid shutdown timeout", "server:\n  shutdown_timeout: later\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if _, err := LoadConfig(configPath); err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

// TestLoadConfigExplicitZeroValues tests that explicit false/0 override defaults
func TestLoadConfigExplicitZeroValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "max_concurrency: 0\nhistory:\n  keep_days: 0\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxConcurrency != 0 {
		t.Errorf("MaxConcurrency = %d, want 0", cfg.MaxConcurrency)
	}
	if cfg.History.KeepDays != 0 {
		t.Errorf("History.KeepDays = %d, want 0", cfg.History.KeepDays)
	}
}

// TestLoadConfigFromDir tests that defaults are rooted at the home directory
func TestLoadConfigFromDir(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadConfigFromDir(home)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	want := filepath.Join(home, "history", "runs.db")
	if cfg.History.DBPath != want {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, want)
	}

	if err := os.WriteFile(filepath.Join(home, ConfigFileName), []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err = LoadConfigFromDir(home)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

// TestMergeWithFlags tests that CLI flags override config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	level := "ERROR"
	timeout := time.Minute
	concurrency := 9
	format := "yaml"
	record := true
	cfg.MergeWithFlags(&level, &timeout, &concurrency, &format, &record)

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", cfg.Timeout)
	}
	if cfg.MaxConcurrency != 9 {
		t.Errorf("MaxConcurrency = %d, want 9", cfg.MaxConcurrency)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %q, want yaml", cfg.OutputFormat)
	}
	if !cfg.History.Enabled {
		t.Errorf("History.Enabled = false, want true")
	}

	// nil flags leave values untouched
	cfg.MergeWithFlags(nil, nil, nil, nil, nil)
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel changed by nil flag: %q", cfg.LogLevel)
	}
}

// TestValidate tests configuration validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"bad output format", func(c *Config) { c.OutputFormat = "xml" }, true},
		{"history without db path", func(c *Config) { c.History.Enabled = true; c.History.DBPath = "" }, true},
		{"negative keep days", func(c *Config) { c.History.KeepDays = -1 }, true},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }, true},
		{"disabled history without db path", func(c *Config) { c.History.DBPath = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestGetHome tests home directory resolution
func TestGetHome(t *testing.T) {
	custom := t.TempDir()
	t.Setenv(HomeEnvVar, custom)

	home, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if home != custom {
		t.Errorf("GetHome() = %q, want %q", home, custom)
	}

	t.Setenv(HomeEnvVar, "")
	home, err = GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if filepath.Base(home) != DefaultHomeDirName {
		t.Errorf("GetHome() = %q, want a %s directory", home, DefaultHomeDirName)
	}
}

// TestLoad tests explicit and home based config resolution
func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnvVar, home)

	if err := os.WriteFile(filepath.Join(home, ConfigFileName), []byte("output_format: yaml\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %q, want yaml", cfg.OutputFormat)
	}

	explicit := filepath.Join(t.TempDir(), "other.yaml")
	if err := os.WriteFile(explicit, []byte("output_format: json\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err = Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing explicit path should error")
	}
}
