package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Counter names.
const (
	seqEvents = "llm_request_events"
	seqSets   = "question_sets"
)

// querier is satisfied by both *sql.DB and *sql.Tx so counters can advance
// inside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sequenceCounter hands out monotonic numbers per named counter. Sets use it
// for their bank order and LLM events for their replay order.
type sequenceCounter struct {
	mu sync.Mutex
}

func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sequences (
		name     TEXT PRIMARY KEY,
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}
	return &sequenceCounter{}, nil
}

// Next returns the next value of the named counter and advances it.
func (sc *sequenceCounter) Next(ctx context.Context, q querier, name string) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO sequences (name, next_val) VALUES (?, 1)`, name); err != nil {
		return 0, fmt.Errorf("seed sequence %s: %w", name, err)
	}

	var v int64
	err := q.QueryRowContext(ctx,
		`UPDATE sequences SET next_val = next_val + 1 WHERE name = ? RETURNING next_val - 1`, name,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return v, nil
}
