// Package ledger decomposes aggregated price levels into FIFO queues of
// synthetic resting orders.
//
// A synthetic order is created for every inferred limit add and consumed from
// the head of its queue by later cancels and fills. Participant ids come from
// a round-robin pool shared by every queue; order ids come from an IDSource.
//
// The ledger is rebuilt only from inferred adds, so its queue sums are a
// heuristic decomposition of the book: reductions take what the queue holds
// and drop any shortfall, clears drain the queue, and hidden fills leave it
// alone.
package ledger
