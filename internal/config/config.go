package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config file path.
const EnvPath = "BUILDPLANNER_CONFIG"

// DefaultPath is the config file read when EnvPath is unset.
const DefaultPath = "config/planner.yaml"

// Planner holds all configuration for the build planner.
type Planner struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Tree data file; empty uses the embedded data set
	TreePath string `yaml:"tree_path"`

	// Recompute only the categories that changed between evaluations
	Accelerated bool `yaml:"accelerated"`

	// Builds evaluated concurrently by EvaluateAll
	Workers int `yaml:"workers"`

	// Build storage; disabled when Host is empty
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether build storage is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Planner config with sensible defaults. Storage is off.
func Default() Planner {
	return Planner{
		LogLevel:    "info",
		Accelerated: true,
		Workers:     4,
		Database: DatabaseConfig{
			Port:     5432,
			User:     "planner",
			Password: "planner",
			DBName:   "planner",
			SSLMode:  "disable",
		},
	}
}

// Path returns the config file path, honouring EnvPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads planner config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Planner, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}
