// Package config loads server configuration from an optional YAML file with
// environment-variable overrides. Every field has a default so the server
// boots with no config file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds the storage DSN.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the configured token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// LoggingConfig holds log output settings. When File is set, output rotates
// through lumberjack; otherwise logs go to stderr.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// defaults returns the baseline configuration.
func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Port: 3001},
		Database: DatabaseConfig{DSN: "data/schemaforge.db"},
		JWT:      JWTConfig{Secret: "", ExpiryHours: 24},
		Logging:  LoggingConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 30},
	}
}

// Load reads the config file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		raw, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errParse := yaml.Unmarshal(raw, cfg); errParse != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
			}
		case os.IsNotExist(errRead):
			// Defaults apply.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	applyEnv(cfg)

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: jwt secret is required, set jwt.secret or SCHEMAFORGE_JWT_SECRET")
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv("SCHEMAFORGE_DSN")); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv("SCHEMAFORGE_JWT_SECRET")); secret != "" {
		cfg.JWT.Secret = secret
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if parsed, errParse := strconv.Atoi(port); errParse == nil && parsed > 0 {
			cfg.Server.Port = parsed
		}
	}
}
