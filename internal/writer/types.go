package writer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rickgao/iex-recon/internal/model"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("writer closed")

// EventWriter receives events in emission order.
type EventWriter interface {
	Write(ctx context.Context, events []model.Event) error
	Close(ctx context.Context) error
}

// batchSender is the subset of *pgxpool.Pool the database writers use.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: time.Second,
	}
}

// eventRow represents a row to be inserted into the reconstructed_events table.
type eventRow struct {
	RunID         pgtype.UUID
	EventSeq      int64 // Position in the run's emission order, from 1
	Instrument    string
	Side          string // "B" or "S"
	Price         int64  // Ten-thousandths
	Size          *int64 // NULL for sweep annotations
	Kind          string
	Hidden        bool
	EventTs       time.Time
	ParticipantID *int
	OrderID       pgtype.UUID
}

// snapshotRow represents a row for the book_snapshots table.
type snapshotRow struct {
	RunID      pgtype.UUID
	SnapshotTs time.Time
	Instrument string
	Bids       []byte // JSONB: [{price: int, size: int}, ...]
	Asks       []byte // JSONB
	BestBid    *int64
	BestAsk    *int64
	Spread     *int64
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
