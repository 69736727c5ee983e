// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Stream.FlushIntervalMs != 50 {
		t.Errorf("default flush interval should be 50ms, got %d", cfg.Stream.FlushIntervalMs)
	}
	if cfg.Stream.FlushInterval() != 50*time.Millisecond {
		t.Errorf("FlushInterval() conversion wrong: %v", cfg.Stream.FlushInterval())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1"

[stream]
flush_interval_ms = 25
channel_capacity = 128

[turns]
max_active = 2

[transcript]
enabled = false
database_path = "/tmp/rigstream-test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Stream.FlushIntervalMs != 25 {
		t.Errorf("flush interval not loaded, got %d", cfg.Stream.FlushIntervalMs)
	}
	if cfg.Stream.ChannelCapacity != 128 {
		t.Errorf("channel capacity not loaded, got %d", cfg.Stream.ChannelCapacity)
	}
	if cfg.Turns.MaxActive != 2 {
		t.Errorf("max active not loaded, got %d", cfg.Turns.MaxActive)
	}
	if cfg.Transcript.Enabled {
		t.Error("transcript should be disabled")
	}
}

func TestLoadFromPathJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"stream": {"flush_interval_ms": 10}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Stream.FlushIntervalMs != 10 {
		t.Errorf("JSON flush interval not loaded, got %d", cfg.Stream.FlushIntervalMs)
	}
	// Unset sections keep defaults
	if cfg.Turns.MaxActive != 8 {
		t.Errorf("defaults should fill unset sections, got %d", cfg.Turns.MaxActive)
	}
}

func TestLoadFromPathUnknownExtension(t *testing.T) {
	if _, err := LoadFromPath("/tmp/config.yaml"); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RIGSTREAM_FLUSH_MS", "75")
	t.Setenv("RIGSTREAM_SOCKET", "/tmp/rig.sock")
	t.Setenv("RIGSTREAM_TRANSCRIPT", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Stream.FlushIntervalMs != 75 {
		t.Errorf("env flush override not applied, got %d", cfg.Stream.FlushIntervalMs)
	}
	if cfg.IPC.SocketPath != "/tmp/rig.sock" {
		t.Errorf("env socket override not applied, got %s", cfg.IPC.SocketPath)
	}
	if cfg.Transcript.Enabled {
		t.Error("env transcript override not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Stream.FlushIntervalMs = -1
	cfg.Turns.MaxActive = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("negative values should fail validation")
	}

	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 validation errors, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(err.Error(), "stream.flush_interval_ms") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestValidateRejectsHugeFlushInterval(t *testing.T) {
	cfg := Default()
	cfg.Stream.FlushIntervalMs = 60000
	if cfg.Validate() == nil {
		t.Error("a one-minute flush interval should be rejected")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	write := func(ms int) {
		content := "[stream]\nflush_interval_ms = " + strconv.Itoa(ms) + "\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	write(50)

	var got atomic.Int64
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		got.Store(int64(cfg.Stream.FlushIntervalMs))
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}

	write(75)

	deadline := time.After(3 * time.Second)
	for got.Load() != 75 {
		select {
		case <-deadline:
			t.Fatalf("reload never observed, got %d", got.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcherSkipsInvalidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[stream]\nflush_interval_ms = 50\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int64
	w, err := NewWatcher(path, 20*time.Millisecond, func(*Config) {
		reloads.Add(1)
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Broken TOML must not reach the callback
	if err := os.WriteFile(path, []byte("[stream\nbroken"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if reloads.Load() != 0 {
		t.Errorf("invalid edit should be skipped, got %d reloads", reloads.Load())
	}
}
