// rigstream - streaming transport backend for the rigrun desktop client.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigstream/internal/cli"
	"github.com/jeranaias/rigstream/internal/config"
	"github.com/jeranaias/rigstream/internal/storage"
	"github.com/jeranaias/rigstream/internal/stream"
	"github.com/jeranaias/rigstream/internal/transport"
	"github.com/jeranaias/rigstream/internal/turn"
	"github.com/jeranaias/rigstream/internal/upstream"
)

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CommandPipe:
		err = runPipe(args)
	case cli.CommandReplay:
		err = runReplay(args)
	case cli.CommandTurns:
		err = runTurns()
	case cli.CommandConfig:
		err = runConfig()
	case cli.CommandVersion:
		cli.PrintVersion()
	default:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "rigstream: %v\n", err)
		os.Exit(1)
	}
}

// runPipe reads provider SSE on stdin, coalesces it, and emits NDJSON
// frames downstream.
func runPipe(args *cli.ArgParser) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags win over config file and environment
	if ms := args.FlagIntOrDefault("flush-ms", 0); ms > 0 {
		cfg.Stream.FlushIntervalMs = ms
	}
	if socket := args.Flag("socket"); socket != "" {
		cfg.IPC.SocketPath = socket
	}
	if args.BoolFlag("no-transcript") {
		cfg.Transcript.Enabled = false
	}

	var sink transport.Sink
	if cfg.IPC.SocketPath != "" {
		conn, err := net.Dial("unix", cfg.IPC.SocketPath)
		if err != nil {
			return fmt.Errorf("connect to UI socket: %w", err)
		}
		sink = transport.NewIPCWriter(conn)
	} else {
		sink = transport.NewIPCWriter(os.Stdout)
	}

	var store *storage.TranscriptStore
	if cfg.Transcript.Enabled {
		store, err = storage.OpenTranscriptStore(cfg.Transcript.DatabasePath)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}
		defer store.Close()
		if cfg.Transcript.RetainDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Transcript.RetainDays)
			if _, err := store.Prune(cutoff); err != nil {
				fmt.Fprintf(os.Stderr, "rigstream: transcript prune failed: %v\n", err)
			}
		}
		sink = transport.Tee(sink, store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	turns := turn.NewManager(turn.Config{
		MaxActive:     cfg.Turns.MaxActive,
		IdleTimeout:   cfg.Turns.IdleTimeout(),
		FlushInterval: cfg.Stream.FlushInterval(),
	})
	defer turns.Shutdown()

	t, err := turns.Begin(sink)
	if err != nil {
		return err
	}
	defer turns.End(t.ID)

	err = upstream.Pump(ctx, os.Stdin, t)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runReplay re-emits a recorded turn as NDJSON frames on stdout.
func runReplay(args *cli.ArgParser) error {
	turnID := args.Positional(0)
	if turnID == "" {
		return errors.New("replay requires a turn id (see 'rigstream turns')")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.OpenTranscriptStore(cfg.Transcript.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := transport.NewIPCWriter(os.Stdout)
	defer out.Close()

	opts := storage.ReplayOptions{
		EventsPerSecond: float64(args.FlagIntOrDefault("rate", storage.DefaultReplayRate)),
		SkipThinking:    args.BoolFlag("skip-thinking"),
	}
	return store.Replay(ctx, turnID, func(ev stream.Event) bool {
		return out.Accept(ev)
	}, opts)
}

// runTurns lists recorded turns.
func runTurns() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.OpenTranscriptStore(cfg.Transcript.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := store.Turns()
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Println("no recorded turns")
		return nil
	}
	for _, ts := range turns {
		fmt.Printf("%s  %4d events  %s\n",
			ts.TurnID, ts.EventCount, ts.LastAt.Format(time.RFC3339))
	}
	return nil
}

// runConfig prints the effective configuration as TOML.
func runConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}
