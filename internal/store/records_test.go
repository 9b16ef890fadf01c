package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/testutil"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func catsZone() record.ZoneID {
	return record.ZoneID{Name: "CatsZone", Owner: record.CurrentUserOwner}
}

func testRecord(name string, age int64) *record.Record {
	rec := record.New("Cat", record.RecordID{Name: name, Zone: catsZone()})
	rec.Set("id", record.String(name))
	rec.Set("age", record.Int(age))
	return rec
}

// createClockedStore returns a store whose timestamps tick one second per write.
func createClockedStore(t *testing.T) *Store {
	t.Helper()
	clock := testutil.NewDeterministicClock(testStart, time.Second)
	return createTestStore(t, WithClock(clock.Now))
}

// upsertIn writes rec in its own batch and returns the outcome.
func upsertIn(t *testing.T, s *Store, batchID string, rec *record.Record) UpsertResult {
	t.Helper()
	var res UpsertResult
	_, err := s.WriteBatch(context.Background(), batchID, "private", func(w *BatchWriter) error {
		var err error
		res, err = w.Upsert(context.Background(), rec)
		return err
	})
	require.NoError(t, err)
	return res
}

// deleteIn tombstones id in its own batch and returns the outcome.
func deleteIn(t *testing.T, s *Store, batchID string, id record.RecordID) UpsertResult {
	t.Helper()
	var res UpsertResult
	_, err := s.WriteBatch(context.Background(), batchID, "private", func(w *BatchWriter) error {
		var err error
		res, err = w.Delete(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	return res
}

func TestUpsert_Inserts(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	rec := testRecord("c1", 3)
	res := upsertIn(t, s, "b1", rec)

	assert.Equal(t, OutcomeInserted, res.Outcome)
	assert.Equal(t, int64(1), res.Version)
	assert.Equal(t, record.MustContentHash(rec), res.ContentHash)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	want, err := record.MarshalCanonical(rec)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Cat", got.Type)
	assert.Equal(t, string(want), got.Content)
	assert.Equal(t, "b1", got.BatchID)
	assert.False(t, got.Deleted)
	assert.Equal(t, "2026-03-01T09:00:01Z", got.UpdatedAt, "first tick is taken by the batch start")
}

func TestUpsert_IdenticalContentIsUnchanged(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	upsertIn(t, s, "b1", testRecord("c1", 3))
	res := upsertIn(t, s, "b2", testRecord("c1", 3))
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Equal(t, int64(1), res.Version)

	got, err := s.Get(ctx, testRecord("c1", 3).ID)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BatchID, "unchanged records keep their original batch")
}

func TestUpsert_ChangedContentBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	upsertIn(t, s, "b1", testRecord("c1", 3))

	changed := testRecord("c1", 4)
	res := upsertIn(t, s, "b2", changed)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, int64(2), res.Version)

	got, err := s.Get(ctx, changed.ID)
	require.NoError(t, err)
	assert.Equal(t, record.MustContentHash(changed), got.ContentHash)
	assert.Equal(t, "b2", got.BatchID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_RejectsUnencodableRecord(t *testing.T) {
	s := createClockedStore(t)

	rec := testRecord("c1", 3)
	rec.Fields["broken"] = nil
	_, err := s.WriteBatch(context.Background(), "b1", "private", func(w *BatchWriter) error {
		_, err := w.Upsert(context.Background(), rec)
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing value")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)
	rec := testRecord("c1", 3)

	res := deleteIn(t, s, "b1", rec.ID)
	assert.Equal(t, OutcomeUnchanged, res.Outcome, "deleting an absent record is a no-op")

	upsertIn(t, s, "b1", rec)

	res = deleteIn(t, s, "b2", rec.ID)
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.Equal(t, int64(2), res.Version)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	res = deleteIn(t, s, "b3", rec.ID)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	// Re-upserting identical content resurrects the record.
	res = upsertIn(t, s, "b3", rec)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, int64(3), res.Version)
}

func TestGet_NotFound(t *testing.T) {
	s := createClockedStore(t)

	_, err := s.Get(context.Background(), testRecord("nope", 0).ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListZone_DeterministicOrder(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	_, err := s.WriteBatch(ctx, "b1", "private", func(w *BatchWriter) error {
		// Binary collation: uppercase sorts before lowercase
		for _, name := range []string{"b", "a", "C", "_x", "10", "9"} {
			if _, err := w.Upsert(ctx, testRecord(name, 1)); err != nil {
				return err
			}
		}
		_, err := w.Upsert(ctx, record.New("Tag", record.RecordID{Name: "t1", Zone: record.DefaultZone()}))
		return err
	})
	require.NoError(t, err)

	got, err := s.ListZone(ctx, catsZone())
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.ID.Name
	}
	assert.Equal(t, []string{"10", "9", "C", "_x", "a", "b"}, names)
}

func TestListZone_EmptyIsNotNil(t *testing.T) {
	s := createClockedStore(t)

	got, err := s.ListZone(context.Background(), catsZone())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWriteBatch_RecordsStats(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)
	upsertIn(t, s, "b0", testRecord("c1", 3))

	stats, err := s.WriteBatch(ctx, "b1", "public", func(w *BatchWriter) error {
		assert.Equal(t, "b1", w.ID())
		for _, rec := range []*record.Record{testRecord("c1", 3), testRecord("c2", 1)} {
			if _, err := w.Upsert(ctx, rec); err != nil {
				return err
			}
		}
		if _, err := w.Delete(ctx, testRecord("c1", 3).ID); err != nil {
			return err
		}
		w.Skip(2)
		return nil
	})
	require.NoError(t, err)

	want := BatchStats{Projected: 2, Unchanged: 1, Skipped: 2, Deleted: 1}
	assert.Equal(t, want, stats)

	b, err := s.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "public", b.Scope)
	assert.NotEmpty(t, b.StartedAt)
	assert.NotEmpty(t, b.FinishedAt)
	assert.Equal(t, want, b.BatchStats)

	_, err = s.GetBatch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteBatch_ReusedIDKeepsFirstRegistration(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	upsertIn(t, s, "b1", testRecord("c1", 3))
	_, err := s.WriteBatch(ctx, "b1", "public", func(*BatchWriter) error { return nil })
	require.NoError(t, err)

	b, err := s.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "private", b.Scope, "first registration wins")
	assert.Equal(t, "2026-03-01T09:00:00Z", b.StartedAt)
}

func TestWriteBatch_FailedWriteRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)
	upsertIn(t, s, "b0", testRecord("c0", 1))

	broken := testRecord("c2", 3)
	broken.Fields["broken"] = nil

	_, err := s.WriteBatch(ctx, "b1", "private", func(w *BatchWriter) error {
		if _, err := w.Upsert(ctx, testRecord("c1", 3)); err != nil {
			return err
		}
		if _, err := w.Delete(ctx, testRecord("c0", 1).ID); err != nil {
			return err
		}
		_, err := w.Upsert(ctx, broken)
		return err
	})
	require.Error(t, err)

	_, err = s.Get(ctx, testRecord("c1", 3).ID)
	assert.ErrorIs(t, err, ErrNotFound, "earlier writes of the failed batch are rolled back")

	c0, err := s.Get(ctx, testRecord("c0", 1).ID)
	require.NoError(t, err)
	assert.False(t, c0.Deleted)
	assert.Equal(t, int64(1), c0.Version)

	_, err = s.GetBatch(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound, "a failed batch leaves no batch row")
}

func TestWriteBatch_CallbackErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	s := createClockedStore(t)

	_, err := s.WriteBatch(ctx, "b1", "private", func(w *BatchWriter) error {
		if _, err := w.Upsert(ctx, testRecord("c1", 3)); err != nil {
			return err
		}
		return errors.New("interrupted")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
