package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metamorphosis/internal/convert"
)

// RecordConversions stores the results of one batch in a single
// transaction and remembers the batch as the most recent run.
func (d *Database) RecordConversions(ctx context.Context, batchID string, results []convert.Result) (err error) {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { recordQuery("record_conversion", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversions (batch_id, input, target, output, route, status, kind, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, res := range results {
		c := fromResult(batchID, res)
		if _, err = stmt.ExecContext(ctx, c.BatchID, c.Input, c.Target, c.Output, c.Route,
			c.Status, c.Kind, c.Message, c.DurationMs, now.Unix()); err != nil {
			return fmt.Errorf("failed to record %s: %w", res.Input, err)
		}
	}

	for key, value := range map[string]string{
		keyLastBatchID: batchID,
		keyLastRun:     now.UTC().Format(time.RFC3339),
	} {
		if err = setMetadata(ctx, tx, key, value); err != nil {
			return fmt.Errorf("failed to update %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// RecordConversion stores a single result.
func (d *Database) RecordConversion(ctx context.Context, batchID string, res convert.Result) error {
	return d.RecordConversions(ctx, batchID, []convert.Result{res})
}

func fromResult(batchID string, res convert.Result) Conversion {
	c := Conversion{
		BatchID:    batchID,
		Input:      res.Input,
		Target:     res.Target,
		Output:     res.Output,
		Route:      res.Route.String(),
		Status:     StatusSuccess,
		Message:    res.Message(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if !res.OK() {
		c.Status = StatusFailure
		c.Kind = res.Kind().String()
	}
	return c
}

// RecentConversions returns up to limit conversions, newest first.
func (d *Database) RecentConversions(ctx context.Context, limit int) (list []Conversion, err error) {
	start := time.Now()
	defer func() { recordQuery("recent_conversions", start, err) }()

	if limit <= 0 {
		limit = 50
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, batch_id, input, target, output, route, status, kind, message, duration_ms, created_at
		FROM conversions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list = []Conversion{}
	for rows.Next() {
		var c Conversion
		var created int64
		if err = rows.Scan(&c.ID, &c.BatchID, &c.Input, &c.Target, &c.Output, &c.Route,
			&c.Status, &c.Kind, &c.Message, &c.DurationMs, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0)
		list = append(list, c)
	}
	err = rows.Err()
	return list, err
}

// Stats aggregates the recorded history.
func (d *Database) Stats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats = Stats{ByRoute: map[string]int{}, ByKind: map[string]int{}}

	err = d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT batch_id)
		FROM conversions
	`, StatusSuccess, StatusFailure).Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.Batches)
	if err != nil {
		return stats, err
	}

	if err = d.countBy(ctx, "route", "", stats.ByRoute); err != nil {
		return stats, err
	}
	if err = d.countBy(ctx, "kind", "WHERE status = 'failure'", stats.ByKind); err != nil {
		return stats, err
	}

	stats.LastBatchID, stats.LastRun, err = lastRun(ctx, d.db)
	return stats, err
}

// countBy fills counts with row counts grouped by column. column is
// always a fixed identifier from this package.
func (d *Database) countBy(ctx context.Context, column, where string, counts map[string]int) error {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM conversions %s GROUP BY %s", column, where, column))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		counts[key] = n
	}
	return rows.Err()
}

// ConversionCounts reports the recorded success and failure totals.
func (d *Database) ConversionCounts() (succeeded, failed int, err error) {
	stats, err := d.Stats(context.Background())
	if err != nil {
		return 0, 0, err
	}
	return stats.Succeeded, stats.Failed, nil
}
