// Package writer persists reconstructed events.
//
// Writers:
//   - JSON-lines writer (one flat event record per line)
//   - Event writer (PostgreSQL, reconstructed_events)
//   - Book snapshot writer (PostgreSQL, book_snapshots)
//
// All writers use append-only semantics (never update, only insert).
// Prices are stored as integer ten-thousandths (IEX DEEP tick precision).
package writer
