// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/rigstream/internal/stream"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("transcript store closed")

	// ErrTurnNotRecorded indicates no events exist for the requested turn.
	ErrTurnNotRecorded = errors.New("turn not recorded")
)

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore records coalesced stream events to SQLite, one row per
// emitted event, ordered by insertion. It implements the transport sink
// contract so it can sit directly downstream of a coalescer.
type TranscriptStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// OpenTranscriptStore opens (creating if needed) the transcript database
// at path.
func OpenTranscriptStore(path string) (*TranscriptStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &TranscriptStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the transcript table if it does not exist.
func (s *TranscriptStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transcript_events (
		rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
		turn_id     TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		kind        TEXT NOT NULL,
		block_id    TEXT NOT NULL DEFAULT '',
		tool_call_id TEXT NOT NULL DEFAULT '',
		fragment    TEXT NOT NULL DEFAULT '',
		payload     TEXT NOT NULL DEFAULT '',
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_turn
		ON transcript_events(turn_id, rowid);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Accept records one event. Implements the transport sink contract: false
// means the store can no longer take events (closed, or the write failed).
func (s *TranscriptStore) Accept(ev stream.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	_, err := s.db.Exec(`
		INSERT INTO transcript_events
			(turn_id, seq, kind, block_id, tool_call_id, fragment, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.TurnID, ev.Seq, string(ev.Kind), ev.BlockID, ev.ToolCallID,
		ev.Fragment, ev.Payload, time.Now().UnixMilli(),
	)
	return err == nil
}

// Close closes the store. Accept returns false afterwards.
func (s *TranscriptStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// =============================================================================
// QUERIES
// =============================================================================

// TurnSummary describes one recorded turn.
type TurnSummary struct {
	TurnID     string
	EventCount int
	FirstAt    time.Time
	LastAt     time.Time
}

// Turns lists recorded turns, most recent first.
func (s *TranscriptStore) Turns() ([]TurnSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT turn_id, COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM transcript_events
		GROUP BY turn_id
		ORDER BY MAX(recorded_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var out []TurnSummary
	for rows.Next() {
		var ts TurnSummary
		var first, last int64
		if err := rows.Scan(&ts.TurnID, &ts.EventCount, &first, &last); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		ts.FirstAt = time.UnixMilli(first)
		ts.LastAt = time.UnixMilli(last)
		out = append(out, ts)
	}
	return out, rows.Err()
}

// Events returns a turn's recorded events in emission order.
func (s *TranscriptStore) Events(turnID string) ([]stream.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT seq, kind, block_id, tool_call_id, fragment, payload
		FROM transcript_events
		WHERE turn_id = ?
		ORDER BY rowid`, turnID)
	if err != nil {
		return nil, fmt.Errorf("load turn %s: %w", turnID, err)
	}
	defer rows.Close()

	var out []stream.Event
	for rows.Next() {
		var ev stream.Event
		var kind string
		if err := rows.Scan(&ev.Seq, &kind, &ev.BlockID, &ev.ToolCallID,
			&ev.Fragment, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = stream.EventKind(kind)
		ev.TurnID = turnID
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTurnNotRecorded, turnID)
	}
	return out, nil
}

// Prune deletes transcripts older than the cutoff. Returns how many events
// were removed.
func (s *TranscriptStore) Prune(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.Exec(
		`DELETE FROM transcript_events WHERE recorded_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	return res.RowsAffected()
}
