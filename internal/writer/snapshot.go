package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/iex-recon/internal/book"
)

// SnapshotWriter records end-of-run book state into book_snapshots.
type SnapshotWriter struct {
	logger *slog.Logger
	runID  uuid.UUID
	db     batchSender
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(runID uuid.UUID, db batchSender, logger *slog.Logger) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotWriter{runID: runID, db: db, logger: logger}
}

// transform converts a book snapshot to a snapshotRow.
func (w *SnapshotWriter) transform(s book.Snapshot, at time.Time) snapshotRow {
	row := snapshotRow{
		RunID:      pgUUID(&w.runID),
		SnapshotTs: at,
		Instrument: s.Instrument,
		Bids:       levelsToJSONB(s.Bids),
		Asks:       levelsToJSONB(s.Asks),
		BestBid:    optionalPrice(s.BestBid, s.HasBestBid),
		BestAsk:    optionalPrice(s.BestAsk, s.HasBestAsk),
	}
	row.Spread = optionalPrice(s.Spread())
	return row
}

// Write inserts one row per snapshot in a single batch.
func (w *SnapshotWriter) Write(ctx context.Context, snapshots []book.Snapshot, at time.Time) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		r := w.transform(s, at)
		batch.Queue(`
			INSERT INTO book_snapshots (run_id, snapshot_ts, instrument, bids, asks, best_bid, best_ask, spread)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.RunID, r.SnapshotTs, r.Instrument, r.Bids, r.Asks, r.BestBid, r.BestAsk, r.Spread)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshots {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert book snapshots: %w", err)
		}
	}

	w.logger.Debug("wrote book snapshots", "count", len(snapshots))
	return nil
}
