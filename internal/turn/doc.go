// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn manages per-turn stream lifecycles.
//
// Every agent turn gets its own coalescer and bridge; sharing one across
// turns would interleave unrelated accumulators. The Manager tracks active
// turns, hands out turn IDs, and guarantees each turn's bridge is shut
// down exactly once, whether the turn completes, is abandoned, or idles
// past its deadline.
//
// # Key Types
//
//   - Manager: Registry of active turns with idle reaping
//   - Turn: One logical stream with its transport bridge
package turn
