// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigstream configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Stream configures the coalescer
	Stream StreamConfig `toml:"stream" json:"stream"`

	// IPC configures the frame transport to the UI process
	IPC IPCConfig `toml:"ipc" json:"ipc"`

	// Turns configures per-turn lifecycle management
	Turns TurnsConfig `toml:"turns" json:"turns"`

	// Transcript configures stream recording
	Transcript TranscriptConfig `toml:"transcript" json:"transcript"`
}

// StreamConfig holds coalescer settings.
type StreamConfig struct {
	// FlushIntervalMs bounds the latency a buffered fragment can accrue
	FlushIntervalMs int `toml:"flush_interval_ms" json:"flush_interval_ms"`

	// ChannelCapacity is the buffer size for in-process sinks
	ChannelCapacity int `toml:"channel_capacity" json:"channel_capacity"`
}

// IPCConfig holds transport settings.
type IPCConfig struct {
	// SocketPath is the local socket the UI process connects on
	SocketPath string `toml:"socket_path" json:"socket_path"`
}

// TurnsConfig holds turn manager settings.
type TurnsConfig struct {
	// MaxActive limits concurrent turns (0 = unlimited)
	MaxActive int `toml:"max_active" json:"max_active"`

	// IdleTimeoutSec ends turns that stop producing events (0 = never)
	IdleTimeoutSec int `toml:"idle_timeout_sec" json:"idle_timeout_sec"`
}

// TranscriptConfig holds recording settings.
type TranscriptConfig struct {
	// Enabled turns transcript recording on
	Enabled bool `toml:"enabled" json:"enabled"`

	// DatabasePath is the SQLite transcript location
	DatabasePath string `toml:"database_path" json:"database_path"`

	// RetainDays prunes transcripts older than this (0 = keep forever)
	RetainDays int `toml:"retain_days" json:"retain_days"`
}

// FlushInterval returns the flush deadline as a duration.
func (s StreamConfig) FlushInterval() time.Duration {
	return time.Duration(s.FlushIntervalMs) * time.Millisecond
}

// IdleTimeout returns the idle deadline as a duration.
func (t TurnsConfig) IdleTimeout() time.Duration {
	return time.Duration(t.IdleTimeoutSec) * time.Second
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Stream: StreamConfig{
			FlushIntervalMs: 50,
			ChannelCapacity: 64,
		},
		IPC: IPCConfig{
			SocketPath: "", // stdout framing unless set
		},
		Turns: TurnsConfig{
			MaxActive:      8,
			IdleTimeoutSec: 300,
		},
		Transcript: TranscriptConfig{
			Enabled:      true,
			DatabasePath: "", // resolved under the config dir
			RetainDays:   30,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the rigstream configuration directory (~/.rigstream).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rigstream"), nil
}

// ConfigPathTOML returns the TOML config file path.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the JSON config file path.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the standard locations, preferring TOML,
// falling back to JSON, then to defaults. Environment overrides and
// validation always apply.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file. The format is
// chosen by extension (.toml or .json).
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies RIGSTREAM_* environment variables on top of
// the loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RIGSTREAM_FLUSH_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Stream.FlushIntervalMs = ms
		}
	}

	if v := os.Getenv("RIGSTREAM_SOCKET"); v != "" {
		c.IPC.SocketPath = v
	}

	if v := os.Getenv("RIGSTREAM_TRANSCRIPT"); v != "" {
		c.Transcript.Enabled = v == "1" || strings.ToLower(v) == "true"
	}

	if v := os.Getenv("RIGSTREAM_TRANSCRIPT_DB"); v != "" {
		c.Transcript.DatabasePath = v
	}

	if v := os.Getenv("RIGSTREAM_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Turns.MaxActive = n
		}
	}
}

// =============================================================================
// DEFAULT FILLING
// =============================================================================

// SetDefaults fills zero values that loading may have left behind.
func (c *Config) SetDefaults() {
	if c.Stream.FlushIntervalMs == 0 {
		c.Stream.FlushIntervalMs = 50
	}
	if c.Stream.ChannelCapacity == 0 {
		c.Stream.ChannelCapacity = 64
	}
	if c.Transcript.DatabasePath == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Transcript.DatabasePath = filepath.Join(dir, "transcript.db")
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Stream.FlushIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "stream.flush_interval_ms",
			Message: "must not be negative",
		})
	}
	if c.Stream.FlushIntervalMs > 5000 {
		errs = append(errs, ValidationError{
			Field:   "stream.flush_interval_ms",
			Message: fmt.Sprintf("%dms would visibly stall streaming; maximum is 5000", c.Stream.FlushIntervalMs),
		})
	}
	if c.Stream.ChannelCapacity < 0 {
		errs = append(errs, ValidationError{
			Field:   "stream.channel_capacity",
			Message: "must not be negative",
		})
	}
	if c.Turns.MaxActive < 0 {
		errs = append(errs, ValidationError{
			Field:   "turns.max_active",
			Message: "must not be negative",
		})
	}
	if c.Turns.IdleTimeoutSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "turns.idle_timeout_sec",
			Message: "must not be negative",
		})
	}
	if c.Transcript.RetainDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "transcript.retain_days",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration as TOML to the standard location.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}
