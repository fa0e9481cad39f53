// Package config loads and validates the configuration of a strata table
// engine: where the table root lives, which storage backend serves it, how
// many workers a scan may use, and how the process logs.
package config

import (
	"os"
	"path/filepath"

	"github.com/strata-db/strata/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a strata process (CLI or
// embedding application).
type Config struct {
	Table   TableConfig   `yaml:"table"`
	Storage StorageConfig `yaml:"storage"`
	Scan    ScanConfig    `yaml:"scan"`
	Log     LogConfig     `yaml:"log"`
}

// TableConfig identifies the table this process operates on.
type TableConfig struct {
	// Root is the table's root path, either a local filesystem path or an
	// s3://bucket/prefix URI.
	Root string `yaml:"root"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is "local" or "s3". When empty, it is inferred from
	// Table.Root's scheme.
	Backend string   `yaml:"backend,omitempty"`
	S3      S3Config `yaml:"s3,omitempty"`
}

// S3Config holds S3-compatible object store configuration.
type S3Config struct {
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// ScanConfig tunes the scan planner and manifest writer.
type ScanConfig struct {
	// WorkerPoolSize bounds concurrent manifest reads during a scan plan.
	WorkerPoolSize int `yaml:"worker_pool_size"`
	// ManifestRollSize is the entry count at which a manifest writer rolls
	// over to a new manifest file.
	ManifestRollSize int `yaml:"manifest_roll_size"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"file_path,omitempty"`
	MaxSize    int    `yaml:"max_size,omitempty"` // megabytes
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age,omitempty"` // days
	Cleanup    bool   `yaml:"cleanup,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is
// found: a local table rooted at ./data, a modest worker pool, and
// console-only info logging.
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			Root: "./data",
		},
		Storage: StorageConfig{
			Backend: "local",
		},
		Scan: ScanConfig{
			WorkerPoolSize:   8,
			ManifestRollSize: 10000,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load loads configuration from the first config file found, or returns
// DefaultConfig if none exists.
func Load() (*Config, error) {
	configPath := findConfigFile()
	if configPath != "" {
		return LoadFromFile(configPath)
	}
	return DefaultConfig(), nil
}

// LoadFromFile loads configuration from a specific YAML file, applying it
// on top of DefaultConfig so unset fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigFileReadFailed, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigFileParseFailed, "failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(ErrConfigFileMarshalFailed, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(ErrConfigFileWriteFailed, "failed to write config file", err)
	}
	return nil
}

// findConfigFile searches the current directory, $HOME/.strata, and
// /etc/strata for strata.yml, in that order.
func findConfigFile() string {
	if _, err := os.Stat("strata.yml"); err == nil {
		return "strata.yml"
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".strata", "strata.yml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	if _, err := os.Stat("/etc/strata/strata.yml"); err == nil {
		return "/etc/strata/strata.yml"
	}

	return ""
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Table.Root == "" {
		return errors.New(ErrTableRootRequired, "table.root must not be empty", nil)
	}

	switch c.Storage.Backend {
	case "", "local", "s3":
	default:
		return errors.Newf(ErrUnknownStorageBackend, "unknown storage backend %q", c.Storage.Backend)
	}

	if c.Scan.WorkerPoolSize <= 0 {
		return errors.Newf(ErrConfigValidationFailed, "scan.worker_pool_size must be positive, got %d", c.Scan.WorkerPoolSize)
	}

	return nil
}
