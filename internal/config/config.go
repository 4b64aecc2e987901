// Package config loads and validates pipeline configuration from file,
// environment and defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete pipeline configuration.
type Config struct {
	DataDir   string         `mapstructure:"data_dir"`
	OutputDir string         `mapstructure:"output_dir"`
	Ledger    LedgerConfig   `mapstructure:"ledger"`
	Checksum  ChecksumConfig `mapstructure:"checksum"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// LedgerConfig selects and parameterises the used-id ledger store.
type LedgerConfig struct {
	Driver         string `mapstructure:"driver"`
	Path           string `mapstructure:"path"`
	DatabaseURL    string `mapstructure:"database_url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// ChecksumConfig names the external checksum command.
type ChecksumConfig struct {
	Command string `mapstructure:"command"`
}

// LoggingConfig controls log verbosity and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads configuration using Viper.
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/anonymise-pipeline/")

	viper.SetEnvPrefix("ANON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	viper.SetDefault("data_dir", "/data/repository")
	viper.SetDefault("output_dir", "/data/releases")

	viper.SetDefault("ledger.driver", "sqlite")
	viper.SetDefault("ledger.path", "/data/ledger/used_sample_ids.db")
	viper.SetDefault("ledger.database_url", "")
	viper.SetDefault("ledger.migrations_path", "migrations")

	viper.SetDefault("checksum.command", "md5sum")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if config.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	switch config.Ledger.Driver {
	case "sqlite":
		if config.Ledger.Path == "" {
			return fmt.Errorf("ledger path is required for the sqlite driver")
		}
	case "postgres":
		if config.Ledger.DatabaseURL == "" {
			return fmt.Errorf("ledger database URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid ledger driver: %s", config.Ledger.Driver)
	}

	if config.Checksum.Command == "" {
		return fmt.Errorf("checksum command is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
