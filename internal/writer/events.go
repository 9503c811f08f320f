package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/iex-recon/internal/model"
)

// PGWriter batches events into the reconstructed_events table.
type PGWriter struct {
	cfg    WriterConfig
	logger *slog.Logger
	runID  uuid.UUID

	// Database
	db batchSender

	// Batching
	batch       []eventRow
	seq         int64
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	err    error // First background flush failure

	// Metrics
	metrics WriterMetrics
}

// NewPGWriter creates a new PGWriter. runID tags every row of this run.
func NewPGWriter(cfg WriterConfig, runID uuid.UUID, db batchSender, logger *slog.Logger) *PGWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	return &PGWriter{
		cfg:    cfg,
		runID:  runID,
		db:     db,
		logger: logger,
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Start begins periodic flushing.
func (w *PGWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	if w.cfg.FlushInterval > 0 {
		w.flushTicker = time.NewTicker(w.cfg.FlushInterval)
		w.wg.Add(1)
		go w.flushLoop()
	}

	w.logger.Info("event writer started",
		"run_id", w.runID,
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Write queues events and flushes once a full batch has accumulated. It
// returns any earlier background flush failure.
func (w *PGWriter) Write(ctx context.Context, events []model.Event) error {
	w.batchMu.Lock()
	if w.closed {
		w.batchMu.Unlock()
		return ErrClosed
	}
	if w.err != nil {
		err := w.err
		w.batchMu.Unlock()
		return err
	}
	for _, ev := range events {
		w.seq++
		w.batch = append(w.batch, w.transform(w.seq, ev))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		return w.flush(ctx)
	}
	return nil
}

// Close stops periodic flushing and writes any remaining rows.
func (w *PGWriter) Close(ctx context.Context) error {
	w.logger.Info("stopping event writer")

	w.batchMu.Lock()
	w.closed = true
	w.batchMu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("event writer stopped")
	case <-ctx.Done():
		w.logger.Warn("event writer stop timed out")
	}

	// Final flush
	if err := w.flush(ctx); err != nil {
		return err
	}

	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.err
}

// Stats returns current metrics.
func (w *PGWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// flushLoop periodically flushes the batch.
func (w *PGWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			if err := w.flush(w.ctx); err != nil {
				w.batchMu.Lock()
				if w.err == nil {
					w.err = err
				}
				w.batchMu.Unlock()
			}
		}
	}
}

// transform converts an event to an eventRow.
func (w *PGWriter) transform(seq int64, ev model.Event) eventRow {
	return eventRow{
		RunID:         pgUUID(&w.runID),
		EventSeq:      seq,
		Instrument:    ev.Instrument,
		Side:          ev.Side.String(),
		Price:         int64(ev.Price),
		Size:          ev.Size,
		Kind:          ev.Kind.String(),
		Hidden:        ev.Hidden,
		EventTs:       ev.Timestamp.Time(),
		ParticipantID: ev.ParticipantID,
		OrderID:       pgUUID(ev.OrderID),
	}
}

// flush writes the current batch to the database.
func (w *PGWriter) flush(ctx context.Context) error {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return nil
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return fmt.Errorf("insert %d events ending at seq %d: %w", len(batch), batch[len(batch)-1].EventSeq, err)
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *PGWriter) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO reconstructed_events (run_id, event_seq, instrument, side, price, size, kind, hidden, event_ts, participant_id, order_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (run_id, event_seq) DO NOTHING
		`, r.RunID, r.EventSeq, r.Instrument, r.Side, r.Price, r.Size, r.Kind, r.Hidden, r.EventTs, r.ParticipantID, r.OrderID)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
