package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/recordsync/internal/record"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Outcome is what an outbox write did.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDeleted   Outcome = "deleted"
)

// UpsertResult reports an outbox write.
type UpsertResult struct {
	Outcome     Outcome `json:"outcome"`
	Version     int64   `json:"version"`
	ContentHash string  `json:"content_hash"`
}

// StoredRecord is one outbox row.
type StoredRecord struct {
	ID          record.RecordID `json:"id"`
	Type        string          `json:"type"`
	Content     string          `json:"content"`
	ContentHash string          `json:"content_hash"`
	Version     int64           `json:"version"`
	Deleted     bool            `json:"deleted"`
	BatchID     string          `json:"batch_id"`
	UpdatedAt   string          `json:"updated_at"`
}

// upsert writes rec's canonical JSON under its identity.
//
// Idempotent on content: when the stored content hash equals rec's, nothing
// is written and the result is OutcomeUnchanged. A changed record, or a
// previously deleted one, is rewritten with version+1.
func (s *Store) upsert(ctx context.Context, tx *sql.Tx, rec *record.Record, batchID string) (UpsertResult, error) {
	content, err := record.MarshalCanonical(rec)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	hash, err := record.ContentHash(rec)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", rec.ID, err)
	}

	var (
		storedHash string
		version    int64
		deleted    bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT content_hash, version, deleted
		FROM records
		WHERE zone_owner = ? AND zone_name = ? AND record_name = ?
	`, rec.ID.Zone.Owner, rec.ID.Zone.Name, rec.ID.Name).Scan(&storedHash, &version, &deleted)

	var result UpsertResult
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records
			(zone_owner, zone_name, record_name, record_type, content, content_hash, version, deleted, batch_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, 0, ?, ?)
		`, rec.ID.Zone.Owner, rec.ID.Zone.Name, rec.ID.Name, rec.Type, string(content), hash, batchID, s.timestamp())
		result = UpsertResult{Outcome: OutcomeInserted, Version: 1, ContentHash: hash}

	case err != nil:
		return UpsertResult{}, fmt.Errorf("upsert %s: read: %w", rec.ID, err)

	case storedHash == hash && !deleted:
		return UpsertResult{Outcome: OutcomeUnchanged, Version: version, ContentHash: hash}, nil

	default:
		version++
		_, err = tx.ExecContext(ctx, `
			UPDATE records
			SET record_type = ?, content = ?, content_hash = ?, version = ?, deleted = 0, batch_id = ?, updated_at = ?
			WHERE zone_owner = ? AND zone_name = ? AND record_name = ?
		`, rec.Type, string(content), hash, version, batchID, s.timestamp(),
			rec.ID.Zone.Owner, rec.ID.Zone.Name, rec.ID.Name)
		result = UpsertResult{Outcome: OutcomeUpdated, Version: version, ContentHash: hash}
	}
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: write: %w", rec.ID, err)
	}
	return result, nil
}

// remove marks the record at id deleted so the transport removes it remotely.
//
// Deleting an absent or already deleted record is a no-op reported as
// OutcomeUnchanged.
func (s *Store) remove(ctx context.Context, tx *sql.Tx, id record.RecordID, batchID string) (UpsertResult, error) {
	var (
		hash    string
		version int64
		deleted bool
	)
	err := tx.QueryRowContext(ctx, `
		SELECT content_hash, version, deleted
		FROM records
		WHERE zone_owner = ? AND zone_name = ? AND record_name = ?
	`, id.Zone.Owner, id.Zone.Name, id.Name).Scan(&hash, &version, &deleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return UpsertResult{Outcome: OutcomeUnchanged}, nil
	case err != nil:
		return UpsertResult{}, fmt.Errorf("delete %s: read: %w", id, err)
	case deleted:
		return UpsertResult{Outcome: OutcomeUnchanged, Version: version, ContentHash: hash}, nil
	}

	version++
	_, err = tx.ExecContext(ctx, `
		UPDATE records
		SET deleted = 1, version = ?, batch_id = ?, updated_at = ?
		WHERE zone_owner = ? AND zone_name = ? AND record_name = ?
	`, version, batchID, s.timestamp(), id.Zone.Owner, id.Zone.Name, id.Name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("delete %s: write: %w", id, err)
	}
	return UpsertResult{Outcome: OutcomeDeleted, Version: version, ContentHash: hash}, nil
}

// Get reads the record at id. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id record.RecordID) (*StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT zone_owner, zone_name, record_name, record_type, content, content_hash, version, deleted, batch_id, updated_at
		FROM records
		WHERE zone_owner = ? AND zone_name = ? AND record_name = ?
	`, id.Zone.Owner, id.Zone.Name, id.Name)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("get %s", id), err)
	}
	return &rec, nil
}

// ListZone returns every record in zone, deleted ones included.
// Results are ordered deterministically: ORDER BY record_name COLLATE BINARY.
//
// Returns an empty slice (not nil) if the zone holds no records.
func (s *Store) ListZone(ctx context.Context, zone record.ZoneID) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone_owner, zone_name, record_name, record_type, content, content_hash, version, deleted, batch_id, updated_at
		FROM records
		WHERE zone_owner = ? AND zone_name = ?
		ORDER BY record_name COLLATE BINARY ASC
	`, zone.Owner, zone.Name)
	if err != nil {
		return nil, fmt.Errorf("query zone %s: %w", zone, err)
	}
	defer rows.Close()

	records := []StoredRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zone %s: %w", zone, err)
	}
	return records, nil
}

// Count returns the number of rows in the outbox.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (StoredRecord, error) {
	var rec StoredRecord
	err := row.Scan(
		&rec.ID.Zone.Owner,
		&rec.ID.Zone.Name,
		&rec.ID.Name,
		&rec.Type,
		&rec.Content,
		&rec.ContentHash,
		&rec.Version,
		&rec.Deleted,
		&rec.BatchID,
		&rec.UpdatedAt,
	)
	if err != nil {
		return StoredRecord{}, fmt.Errorf("scan record: %w", err)
	}
	return rec, nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
