// Package config loads the loglens YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loglens/loglens/internal/constants"
)

// Config represents the top-level loglens configuration.
type Config struct {
	AdbPath    string    `yaml:"adb_path"`
	Device     string    `yaml:"device"`
	Package    string    `yaml:"package"`
	MaxLines   int       `yaml:"max_lines"`
	EnvFile    string    `yaml:"env_file"`
	PresetFile string    `yaml:"preset_file"`
	LogFile    string    `yaml:"log_file"`
	API        APIConfig `yaml:"api"`
}

// APIConfig defines the optional read-only HTTP API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		AdbPath:  constants.DefaultAdbPath,
		MaxLines: constants.DefaultMaxLines,
		API: APIConfig{
			Host: constants.DefaultAPIHost,
			Port: constants.DefaultAPIPort,
		},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads the file at path, falling back to defaults when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Parse parses configuration from YAML bytes, applying defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	if cfg.AdbPath == "" {
		cfg.AdbPath = constants.DefaultAdbPath
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = constants.DefaultMaxLines
	}
	if cfg.API.Host == "" {
		cfg.API.Host = constants.DefaultAPIHost
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = constants.DefaultAPIPort
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.API.Port < 0 || cfg.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", cfg.API.Port)
	}
	return nil
}
