// Package store provides SQLite-backed durable storage for transformation
// runs.
//
// The store is an append-only log with three tables:
//   - Sequences: one row per run, holding the initial module binary, its
//     digest and the environment it was validated against
//   - Steps: one row per attempted transformation, applied or rejected
//   - Facts: facts recorded while applying, keyed by content hash
//
// # Logical Time
//
// Steps and facts are ordered by seq, the engine's logical clock. Wall time
// is never stored, so a replay from the log reproduces the same ordering.
//
// # Idempotency
//
// Every insert uses ON CONFLICT DO NOTHING. Writing the same step or fact
// twice is a no-op, and WriteStep reports whether the row was new.
//
// # Deterministic Query Results
//
// Every multi-row read carries an ORDER BY on a unique key and returns an
// empty slice rather than nil.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: steps and facts must reference a sequence
//
// Transformation and fact payloads are stored as canonical JSON produced by
// internal/record, so the stored text hashes to the same value the engine
// computed in memory.
package store
