// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Workline services.
//
// Configuration is loaded from a single file specified by:
//   - WORKLINE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file may
// contain environment-specific sections (development, staging,
// production) that override base values when the environment matches.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Workline.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database"`

	// Notifications configures message delivery.
	Notifications NotificationsConfig `yaml:"notifications"`

	// Reminders configures the due-soon scan.
	Reminders RemindersConfig `yaml:"reminders"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Database      *DatabaseConfig      `yaml:"database,omitempty"`
	Notifications *NotificationsConfig `yaml:"notifications,omitempty"`
	Reminders     *RemindersConfig     `yaml:"reminders,omitempty"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// PoolSize is the connection pool size. Zero means the pool
	// default.
	PoolSize int `yaml:"pool_size"`
}

// NotificationsConfig configures message delivery.
type NotificationsConfig struct {
	// LinkBase prefixes the deep links carried by notifications,
	// e.g. "https://workline.example.com". Empty disables links.
	LinkBase string `yaml:"link_base"`
}

// RemindersConfig configures the due-soon scan.
type RemindersConfig struct {
	// WindowDays is how far ahead the due-soon scan looks.
	// Default: 7.
	WindowDays int `yaml:"window_days"`
}

// Default returns the default configuration. These defaults give all
// fields sensible zero-values; the config file is still required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".local", "share", "workline", "workline.db"),
		},
		Reminders: RemindersConfig{
			WindowDays: 7,
		},
	}
}

// Load loads configuration from the WORKLINE_CONFIG environment
// variable. There are no fallbacks: if WORKLINE_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("WORKLINE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WORKLINE_CONFIG environment variable not set; " +
			"set it to the path of your workline.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching
// c.Environment on top of the base values.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Database != nil {
		if overrides.Database.Path != "" {
			c.Database.Path = overrides.Database.Path
		}
		if overrides.Database.PoolSize != 0 {
			c.Database.PoolSize = overrides.Database.PoolSize
		}
	}
	if overrides.Notifications != nil {
		if overrides.Notifications.LinkBase != "" {
			c.Notifications.LinkBase = overrides.Notifications.LinkBase
		}
	}
	if overrides.Reminders != nil {
		if overrides.Reminders.WindowDays != 0 {
			c.Reminders.WindowDays = overrides.Reminders.WindowDays
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.PoolSize < 0 {
		return fmt.Errorf("database.pool_size must not be negative")
	}
	if c.Reminders.WindowDays < 0 {
		return fmt.Errorf("reminders.window_days must not be negative")
	}
	return nil
}
