// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies what the user asked for.
type Command string

const (
	// CommandPipe streams provider SSE from stdin through the coalescer
	CommandPipe Command = "pipe"

	// CommandReplay re-emits a recorded turn
	CommandReplay Command = "replay"

	// CommandTurns lists recorded turns
	CommandTurns Command = "turns"

	// CommandConfig prints the effective configuration
	CommandConfig Command = "config"

	// CommandHelp shows usage
	CommandHelp Command = "help"

	// CommandVersion shows version information
	CommandVersion Command = "version"
)

// Parse inspects os.Args and returns the selected command plus its parsed
// arguments. Unknown commands fall back to help.
func Parse() (Command, *ArgParser) {
	args := os.Args[1:]
	if len(args) == 0 {
		return CommandHelp, NewArgParser(nil)
	}

	cmd := Command(args[0])
	rest := NewArgParser(args[1:])

	switch cmd {
	case CommandPipe, CommandReplay, CommandTurns, CommandConfig,
		CommandHelp, CommandVersion:
		return cmd, rest
	}

	if rest.BoolFlag("version") || args[0] == "--version" || args[0] == "-v" {
		return CommandVersion, rest
	}
	return CommandHelp, rest
}

// PrintUsage writes command usage to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `rigstream - streaming transport backend for the rigrun desktop client

Usage:
  rigstream pipe [--flush-ms N] [--socket PATH] [--no-transcript]
        Read provider SSE on stdin, coalesce, emit NDJSON frames
        (to stdout, or to --socket when given).

  rigstream replay <turn-id> [--rate N] [--skip-thinking]
        Re-emit a recorded turn as NDJSON frames on stdout,
        paced at N events per second (default %d).

  rigstream turns
        List recorded turns.

  rigstream config
        Print the effective configuration.

  rigstream version
        Print version information.
`, 20)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("rigstream %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}
