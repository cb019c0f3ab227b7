package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Metadata keys written after each recorded batch.
const (
	keyLastBatchID = "last_batch_id"
	keyLastRun     = "last_run"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return getMetadata(ctx, d.db, key)
}

func getMetadata(ctx context.Context, q queryer, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

func setMetadata(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// lastRun returns the most recent batch and when it was recorded. Both
// are zero if nothing was recorded yet.
func lastRun(ctx context.Context, q queryer) (batchID string, at time.Time, err error) {
	batchID, err = getMetadata(ctx, q, keyLastBatchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}

	value, err := getMetadata(ctx, q, keyLastRun)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return batchID, time.Time{}, nil
	}
	if err != nil {
		return batchID, time.Time{}, err
	}
	at, err = time.Parse(time.RFC3339, value)
	return batchID, at, err
}
