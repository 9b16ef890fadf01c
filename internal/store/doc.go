// Package store provides the SQLite-backed record outbox.
//
// The outbox keeps the latest projected state of every record, keyed by
// record identity (zone owner, zone name, record name). A transport layer
// drains it toward the remote store.
//
// # Critical Patterns
//
// Content-Hash Idempotency
//   - Every row carries the SHA-256 content hash of its canonical JSON
//   - Re-upserting an identical record is a no-op; version only moves on change
//
// Deterministic Query Results
//   - Zone listings use ORDER BY record_name COLLATE BINARY
//   - Ensures identical results across runs
//
// Batch Provenance
//   - Every write names the batch that produced it (foreign key to batches)
//   - WriteBatch runs a whole batch in one transaction; a failed batch leaves nothing behind
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
