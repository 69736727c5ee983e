// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for rigstream.
//
// Supports both TOML and JSON formats, with sensible defaults,
// environment variable overrides (RIGSTREAM_*), validation, and hot
// reload via file watching.
//
// Configuration file locations (in order of precedence):
//   - ~/.rigstream/config.toml
//   - ~/.rigstream/config.json
//   - Built-in defaults
package config
