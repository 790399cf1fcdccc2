package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bingo-tracker-server/game"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS round_summary (
	id             UUID PRIMARY KEY,
	session_id     TEXT NOT NULL,
	ended_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	reason         TEXT NOT NULL,
	call_count     INT NOT NULL,
	card_count     INT NOT NULL,
	winner_count   INT NOT NULL,
	called_numbers INT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_round_summary_session ON round_summary(session_id);
CREATE TABLE IF NOT EXISTS scan_event (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	scanned_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	outcome     TEXT NOT NULL,
	rows        INT,
	cols        INT,
	duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_event_outcome ON scan_event(outcome);
`

// Store writes round and scan telemetry to Postgres. A nil *Store is valid
// and discards everything, so callers need not check whether a database is
// configured.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects and creates the schema. An empty databaseURL returns
// nil, nil.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// RecordRound stores the summary of a round that was cleared or reset.
func (s *Store) RecordRound(ctx context.Context, r game.RoundSummary) error {
	if s == nil || s.pool == nil {
		return nil
	}
	called := r.CalledNumbers
	if called == nil {
		called = []int{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO round_summary (id, session_id, reason, call_count, card_count, winner_count, called_numbers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), r.SessionID, r.Reason, r.CallCount, r.CardCount, r.WinnerCount, called)
	return err
}

// RecordScan stores the outcome of one scan request. Rows and cols are
// NULL unless the scan succeeded.
func (s *Store) RecordScan(ctx context.Context, e game.ScanEvent) error {
	if s == nil || s.pool == nil {
		return nil
	}
	var rows, cols *int
	if e.Outcome == game.ScanSucceeded {
		rows, cols = &e.Rows, &e.Cols
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_event (id, session_id, outcome, rows, cols, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), e.SessionID, string(e.Outcome), rows, cols, e.Duration.Milliseconds())
	return err
}
