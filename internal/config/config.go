package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the configuration file inside the home directory
const ConfigFileName = "config.yaml"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every summarized source in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// KeepDays is the number of days to keep runs (0 = forever)
	KeepDays int `yaml:"keep_days"`
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	// Addr is the listen address for `catcensus serve`
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AllowOrigins enables CORS for the listed origins (empty = CORS off)
	AllowOrigins []string `yaml:"allow_origins"`
}

// Config represents catcensus configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = no file log)
	LogDir string `yaml:"log_dir"`

	// Timeout bounds the retrieval of each source (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrency is the maximum number of sources fetched at once (0 = unlimited)
	MaxConcurrency int `yaml:"max_concurrency"`

	// OutputFormat selects how summaries are rendered (text, json, yaml)
	OutputFormat string `yaml:"output_format"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`

	// Server contains HTTP API configuration
	Server ServerConfig `yaml:"server"`
}

// DefaultConfig returns a Config with defaults rooted at the .catcensus
// directory of the current working directory
func DefaultConfig() *Config {
	return DefaultConfigForHome(DefaultHomeDirName)
}

// DefaultConfigForHome returns a Config whose file paths live under home
func DefaultConfigForHome(home string) *Config {
	return &Config{
		LogLevel:       "info",
		LogDir:         "",
		Timeout:        30 * time.Second,
		MaxConcurrency: 4,
		OutputFormat:   "text",
		History: HistoryConfig{
			Enabled:  false,
			DBPath:   filepath.Join(home, "history", "runs.db"),
			KeepDays: 90,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	return loadConfigOver(path, DefaultConfig())
}

// LoadConfigFromDir loads configuration from config.yaml in the home directory dir
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return loadConfigOver(filepath.Join(dir, ConfigFileName), DefaultConfigForHome(dir))
}

func loadConfigOver(path string, cfg *Config) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML; decode into a mirror struct first
	type yamlConfig struct {
		LogLevel       string `yaml:"log_level"`
		LogDir         string `yaml:"log_dir"`
		Timeout        string `yaml:"timeout"`
		MaxConcurrency *int   `yaml:"max_concurrency"`
		OutputFormat   string `yaml:"output_format"`
		History        struct {
			Enabled  *bool   `yaml:"enabled"`
			DBPath   *string `yaml:"db_path"`
			KeepDays *int    `yaml:"keep_days"`
		} `yaml:"history"`
		Server struct {
			Addr            string `yaml:"addr"`
			ShutdownTimeout string   `yaml:"shutdown_timeout"`
			AllowOrigins    []string `yaml:"allow_origins"`
		} `yaml:"server"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.MaxConcurrency != nil {
		cfg.MaxConcurrency = *yamlCfg.MaxConcurrency
	}
	if yamlCfg.OutputFormat != "" {
		cfg.OutputFormat = strings.ToLower(yamlCfg.OutputFormat)
	}

	// Pointer fields so an explicit false/0 overrides the default
	if yamlCfg.History.Enabled != nil {
		cfg.History.Enabled = *yamlCfg.History.Enabled
	}
	if yamlCfg.History.DBPath != nil {
		cfg.History.DBPath = *yamlCfg.History.DBPath
	}
	if yamlCfg.History.KeepDays != nil {
		cfg.History.KeepDays = *yamlCfg.History.KeepDays
	}

	if yamlCfg.Server.Addr != "" {
		cfg.Server.Addr = yamlCfg.Server.Addr
	}
	if yamlCfg.Server.ShutdownTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.Server.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid server.shutdown_timeout format %q: %w", yamlCfg.Server.ShutdownTimeout, err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	if len(yamlCfg.Server.AllowOrigins) > 0 {
		cfg.Server.AllowOrigins = yamlCfg.Server.AllowOrigins
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, timeout *time.Duration, maxConcurrency *int, outputFormat *string, record *bool) {
	if logLevel != nil {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if outputFormat != nil {
		c.OutputFormat = strings.ToLower(*outputFormat)
	}
	if record != nil {
		c.History.Enabled = *record
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	switch c.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format %q, must be one of: text, json, yaml", c.OutputFormat)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}
	if c.History.KeepDays < 0 {
		return fmt.Errorf("history.keep_days must be >= 0, got %d", c.History.KeepDays)
	}

	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be >= 0, got %v", c.Server.ShutdownTimeout)
	}

	return nil
}
