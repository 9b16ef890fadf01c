package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/recordsync/internal/record"
)

// Batch is one projection run that wrote to the outbox.
type Batch struct {
	ID         string `json:"id"`
	Scope      string `json:"scope"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	BatchStats
}

// BatchStats counts a batch's outcomes.
type BatchStats struct {
	Projected int `json:"projected"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Deleted   int `json:"deleted"`
}

// BatchWriter writes records under one batch. It is only valid inside the
// WriteBatch callback that received it and is not safe for concurrent use.
type BatchWriter struct {
	s     *Store
	tx    *sql.Tx
	id    string
	stats BatchStats
}

// ID returns the batch id records are stamped with.
func (w *BatchWriter) ID() string { return w.id }

// Upsert writes rec. Every call counts as projected; unchanged content is
// also counted as unchanged.
func (w *BatchWriter) Upsert(ctx context.Context, rec *record.Record) (UpsertResult, error) {
	res, err := w.s.upsert(ctx, w.tx, rec, w.id)
	if err != nil {
		return UpsertResult{}, err
	}
	w.stats.Projected++
	if res.Outcome == OutcomeUnchanged {
		w.stats.Unchanged++
	}
	return res, nil
}

// Delete tombstones the record at id.
func (w *BatchWriter) Delete(ctx context.Context, id record.RecordID) (UpsertResult, error) {
	res, err := w.s.remove(ctx, w.tx, id, w.id)
	if err != nil {
		return UpsertResult{}, err
	}
	if res.Outcome == OutcomeDeleted {
		w.stats.Deleted++
	}
	return res, nil
}

// Skip counts n objects left out of the batch.
func (w *BatchWriter) Skip(n int) { w.stats.Skipped += n }

// WriteBatch registers batch id, runs fn, and stamps the batch's counts and
// finish time, all in one transaction. If fn or any write fails the whole
// batch is rolled back: no record row and no batch row is kept.
//
// Registering an id that already exists keeps its original scope and start.
func (s *Store) WriteBatch(ctx context.Context, id, scope string, fn func(*BatchWriter) error) (BatchStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BatchStats{}, fmt.Errorf("batch %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, scope, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, scope, s.timestamp())
	if err != nil {
		return BatchStats{}, fmt.Errorf("begin batch: %w", err)
	}

	w := &BatchWriter{s: s, tx: tx, id: id}
	if err := fn(w); err != nil {
		return BatchStats{}, fmt.Errorf("batch %s: %w", id, err)
	}

	stats := w.stats
	_, err = tx.ExecContext(ctx, `
		UPDATE batches
		SET finished_at = ?, projected = ?, unchanged = ?, skipped = ?, deleted = ?
		WHERE id = ?
	`, s.timestamp(), stats.Projected, stats.Unchanged, stats.Skipped, stats.Deleted, id)
	if err != nil {
		return BatchStats{}, fmt.Errorf("finish batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return BatchStats{}, fmt.Errorf("batch %s: commit: %w", id, err)
	}
	return stats, nil
}

// GetBatch reads a batch by id. Returns ErrNotFound if absent.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	var (
		b        Batch
		finished *string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scope, started_at, finished_at, projected, unchanged, skipped, deleted
		FROM batches
		WHERE id = ?
	`, id).Scan(&b.ID, &b.Scope, &b.StartedAt, &finished, &b.Projected, &b.Unchanged, &b.Skipped, &b.Deleted)
	if err != nil {
		return nil, notFound("get batch", err)
	}
	if finished != nil {
		b.FinishedAt = *finished
	}
	return &b, nil
}
