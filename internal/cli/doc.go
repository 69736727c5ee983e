// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing for rigstream.
//
// rigstream's surface is small: pipe a provider stream through the
// coalescer, replay a recorded turn, list recorded turns, and inspect
// the effective configuration. This package owns argument parsing and
// command selection; main wires the commands to the stream machinery.
package cli
