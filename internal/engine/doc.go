// Package engine classifies decoded market-data messages into order-level
// events.
//
// An Engine owns the per-instrument level books, the synthetic order ledger,
// the sweep detector, the correlator and the event log. It is single-threaded:
// Process handles one message to completion before the next and must not be
// called concurrently.
//
// Level updates are diffed against the book:
//
//	new > prev            limit_add of new-prev, pushed to the ledger
//	0 < new < prev        cancel of prev-new, reduced FIFO from the ledger
//	new == 0 < prev       level_cleared of prev, queue drained
//
// and a best-price move with no nearby fill at the old best emits
// cancel_no_trade. Trades hit ask liquidity: a trade larger than the
// resting size is one hidden_fill, otherwise one visible_fill per order
// segment consumed. Every trade is then offered to the sweep detector.
package engine
