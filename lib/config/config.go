// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the server's bootstrap configuration: where the
// data directories live and how the control loop is sized. Values an
// operator changes at runtime (autosave, remote console, log limits)
// belong to the settings store instead.
//
// The file is YAML, chosen by the --config flag or the ARENA_CONFIG
// environment variable. Without either, [Default] is used. ARENA_*
// variables then override individual fields, and ${VAR} and
// ${VAR:-default} patterns in paths are expanded last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvironmentPrefix prefixes every environment override.
const EnvironmentPrefix = "ARENA_"

// Config is the bootstrap configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths" envPrefix:"PATHS_"`
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Save   SaveConfig   `yaml:"save" envPrefix:"SAVE_"`
}

// PathsConfig locates the server's files. Relative entries are
// resolved against Data.
type PathsConfig struct {
	// Data is the root of everything the server writes.
	Data string `yaml:"data" env:"DATA"`

	// Saves holds save slots and autosaves.
	Saves string `yaml:"saves" env:"SAVES"`

	// Maps holds custom map descriptors (*.yaml).
	Maps string `yaml:"maps" env:"MAPS"`

	// Logs holds the rotating log-N.txt files.
	Logs string `yaml:"logs" env:"LOGS"`

	// Settings is the runtime settings file.
	Settings string `yaml:"settings" env:"SETTINGS"`

	// AdminDB is the SQLite database of bans, admins and the whitelist.
	AdminDB string `yaml:"admin_db" env:"ADMIN_DB"`

	// History is the local console's line history file. Empty disables
	// history.
	History string `yaml:"history" env:"HISTORY"`
}

// ServerConfig sizes the control loop.
type ServerConfig struct {
	// TickRate is how often the control loop checks time-driven work
	// such as the autosave deadline.
	TickRate time.Duration `yaml:"tick_rate" env:"TICK_RATE"`

	// QueueSize bounds the control loop's work queue. Input sources
	// block when it is full.
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`

	// SettingsFlush is how often settings and the admin store are
	// forced to disk independent of mutations.
	SettingsFlush time.Duration `yaml:"settings_flush" env:"SETTINGS_FLUSH"`
}

// SaveConfig configures the save-file writer.
type SaveConfig struct {
	// Compression is "zstd", "lz4" or "none".
	Compression string `yaml:"compression" env:"COMPRESSION"`

	// Extension is the save-file extension without the dot.
	Extension string `yaml:"extension" env:"EXTENSION"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Data:     "${ARENA_HOME:-./arena-data}",
			Saves:    "saves",
			Maps:     "maps",
			Logs:     "logs",
			Settings: "settings.json",
			AdminDB:  "admin.db",
			History:  "console_history",
		},
		Server: ServerConfig{
			TickRate:      50 * time.Millisecond,
			QueueSize:     256,
			SettingsFlush: time.Minute,
		},
		Save: SaveConfig{
			Compression: "zstd",
			Extension:   "msav",
		},
	}
}

// Load reads the configuration at path, falling back to ARENA_CONFIG
// and then to Default when both are empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ARENA_CONFIG")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvironmentPrefix}); err != nil {
		return nil, fmt.Errorf("parsing %s environment overrides: %w", EnvironmentPrefix, err)
	}

	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths expands variables and anchors relative paths at Data.
func (c *Config) expandPaths() {
	c.Paths.Data = expandVars(c.Paths.Data)
	anchor := func(path string) string {
		path = expandVars(path)
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(c.Paths.Data, path)
	}
	c.Paths.Saves = anchor(c.Paths.Saves)
	c.Paths.Maps = anchor(c.Paths.Maps)
	c.Paths.Logs = anchor(c.Paths.Logs)
	c.Paths.Settings = anchor(c.Paths.Settings)
	c.Paths.AdminDB = anchor(c.Paths.AdminDB)
	c.Paths.History = anchor(c.Paths.History)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Paths.Data == "" {
		errs = append(errs, fmt.Errorf("paths.data is required"))
	}
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate must be positive, got %s", c.Server.TickRate))
	}
	if c.Server.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("server.queue_size must be positive, got %d", c.Server.QueueSize))
	}
	if c.Server.SettingsFlush <= 0 {
		errs = append(errs, fmt.Errorf("server.settings_flush must be positive, got %s", c.Server.SettingsFlush))
	}
	switch c.Save.Compression {
	case "zstd", "lz4", "none":
	default:
		errs = append(errs, fmt.Errorf("save.compression must be zstd, lz4 or none, got %q", c.Save.Compression))
	}
	if c.Save.Extension == "" {
		errs = append(errs, fmt.Errorf("save.extension is required"))
	}
	return errors.Join(errs...)
}

// EnsureDirectories creates the data, saves, maps and logs directories.
func (c *Config) EnsureDirectories() error {
	for _, directory := range []string{c.Paths.Data, c.Paths.Saves, c.Paths.Maps, c.Paths.Logs} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
