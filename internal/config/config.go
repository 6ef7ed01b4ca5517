// Package config loads vlab configuration from YAML with environment
// overrides. Missing files fall back to defaults so the server can start
// with nothing but a netlist and an ngspice binary on PATH.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all vlab configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Spice    SpiceConfig    `yaml:"spice"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite document store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	Secret      string `yaml:"secret"`
	TokenExpiry string `yaml:"token_expiry"`
	BcryptCost  int    `yaml:"bcrypt_cost"`
}

// SpiceConfig configures the ngspice runner and rawfile parsing.
type SpiceConfig struct {
	// Candidate paths tried before falling back to PATH lookup.
	BinaryCandidates []string `yaml:"binary_candidates"`
	SimTimeout       string   `yaml:"sim_timeout"`

	// StrictHeader makes malformed header lines fatal instead of
	// skip-with-diagnostic.
	StrictHeader bool `yaml:"strict_header"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "vlab",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     "30s",
			WriteTimeout:    "120s",
			ShutdownTimeout: "10s",
		},

		Database: DatabaseConfig{
			Path: "data/vlab.db",
		},

		Auth: AuthConfig{
			Secret:      "",
			TokenExpiry: "24h",
			BcryptCost:  10,
		},

		Spice: SpiceConfig{
			BinaryCandidates: []string{
				"/usr/local/bin/ngspice",
				"/usr/bin/ngspice",
				"ngspice",
			},
			SimTimeout:   "30s",
			StrictHeader: false,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("VLAB_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("VLAB_DB"); path != "" {
		c.Database.Path = path
	}
	if secret := os.Getenv("VLAB_SECRET_KEY"); secret != "" {
		c.Auth.Secret = secret
	}
	if bin := os.Getenv("VLAB_NGSPICE"); bin != "" {
		c.Spice.BinaryCandidates = []string{bin}
	}
	if level := os.Getenv("VLAB_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetSimTimeout returns the simulation timeout as a duration.
func (c *Config) GetSimTimeout() time.Duration {
	d, err := time.ParseDuration(c.Spice.SimTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetTokenExpiry returns the access-token lifetime as a duration.
func (c *Config) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.Auth.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the HTTP write timeout as a duration. It bounds
// the whole response, so it must exceed the simulation timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful-shutdown budget as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set VLAB_SECRET_KEY)")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost %d out of range", c.Auth.BcryptCost)
	}
	if len(c.Spice.BinaryCandidates) == 0 {
		return fmt.Errorf("spice.binary_candidates must not be empty")
	}
	return nil
}
