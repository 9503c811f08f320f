// Package database provides the PostgreSQL connection pool and schema for
// persisted reconstruction runs.
//
// Each run writes:
//   - reconstructed_events: every inferred event, keyed by (run_id, event_seq)
//   - book_snapshots: end-of-run top-of-book state per instrument
package database
