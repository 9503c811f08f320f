package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/iex-recon/internal/book"
	"github.com/rickgao/iex-recon/internal/engine"
	"github.com/rickgao/iex-recon/internal/feed"
	"github.com/rickgao/iex-recon/internal/model"
	"github.com/rickgao/iex-recon/internal/writer"
)

// Event orderings for output.
const (
	OrderInstrument = "instrument"
	OrderArrival    = "arrival"
)

// Skip reasons, also used as metric labels.
const (
	SkipMalformed = "malformed"
	SkipUnhandled = "unhandled_type"
	SkipFiltered  = "filtered"
	SkipInvalid   = "invalid"
)

// finalizeTimeout bounds output flushing after the input ends.
const finalizeTimeout = 30 * time.Second

// Config configures a Runner.
type Config struct {
	BufferSize    int    // Raw records buffered between source and engine
	BatchSize     int    // Events per writer call
	Order         string // OrderInstrument or OrderArrival
	SnapshotDepth int    // Levels per side in end-of-run snapshots
}

// Summary describes a finished run.
type Summary struct {
	Lines     int64 // Raw records read
	Processed int64 // Records classified by the engine
	Skipped   int64 // Malformed, unhandled or invalid records
	Filtered  int64 // Records for other instruments
	Events    int64 // Events emitted
	LastLine  int64 // Input position of the last record handled
}

// Recorder receives pipeline counts. *metrics.Metrics implements it.
type Recorder interface {
	RecordLine(seq int64, receivedAt time.Time)
	RecordSkipped(reason string)
	RecordWriteError(writer string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLine(int64, time.Time) {}
func (nopRecorder) RecordSkipped(string)        {}
func (nopRecorder) RecordWriteError(string)     {}

// SnapshotWriter persists end-of-run book state.
type SnapshotWriter interface {
	Write(ctx context.Context, snapshots []book.Snapshot, at time.Time) error
}

// starter is implemented by writers with background work to start.
type starter interface {
	Start(ctx context.Context) error
}

type output struct {
	name string
	w    writer.EventWriter
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput adds a named event writer. Writers receive identical batches.
func WithOutput(name string, w writer.EventWriter) Option {
	return func(r *Runner) {
		r.outputs = append(r.outputs, output{name: name, w: w})
	}
}

// WithSnapshotWriter records book snapshots once the input ends.
func WithSnapshotWriter(sw SnapshotWriter) Option {
	return func(r *Runner) {
		r.snapshots = sw
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// Runner drives one reconstruction run.
type Runner struct {
	cfg    Config
	logger *slog.Logger

	src     feed.Source
	decoder *feed.Decoder
	engine  *engine.Engine

	outputs   []output
	snapshots SnapshotWriter
	recorder  Recorder

	pending []model.Event

	mu      sync.RWMutex
	summary Summary
}

// NewRunner creates a runner.
func NewRunner(cfg Config, src feed.Source, decoder *feed.Decoder, eng *engine.Engine, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.Order == "" {
		cfg.Order = OrderInstrument
	}

	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		src:      src,
		decoder:  decoder,
		engine:   eng,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Progress returns the counters so far. It is safe to call during Run.
func (r *Runner) Progress() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary
}

// Run reads the source to completion, writes every event and closes the
// writers. Output is written even when the run stops early; the returned
// error then names the last input position handled.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	for _, o := range r.outputs {
		if s, ok := o.w.(starter); ok {
			if err := s.Start(ctx); err != nil {
				err = fmt.Errorf("start %s writer: %w", o.name, err)
				return Summary{}, errors.Join(err, r.closeOutputs(context.WithoutCancel(ctx)))
			}
		}
	}

	records := make(chan feed.Raw, r.cfg.BufferSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(records)
		return r.src.Run(gctx, records)
	})
	g.Go(func() error {
		return r.process(gctx, records)
	})

	runErr := g.Wait()

	// Flush on a fresh deadline: the run context may already be cancelled.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	finErr := r.finalize(fctx)

	summary := r.Progress()
	if err := errors.Join(runErr, finErr); err != nil {
		return summary, fmt.Errorf("run stopped after input position %d: %w", summary.LastLine, err)
	}
	if ctx.Err() != nil {
		r.logger.Warn("run interrupted", "last_line", summary.LastLine)
	}
	return summary, nil
}

// process classifies records in input order. It drains records until the
// source closes the channel, so everything the source sent is handled.
func (r *Runner) process(ctx context.Context, records <-chan feed.Raw) error {
	for raw := range records {
		if err := r.handle(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) handle(ctx context.Context, raw feed.Raw) error {
	r.recorder.RecordLine(raw.Seq, raw.ReceivedAt)

	msg, err := r.decoder.Decode(raw.Data)
	if err == nil {
		msg.Seq = raw.Seq
	}

	var events []model.Event
	switch {
	case errors.Is(err, feed.ErrFiltered):
		r.skip(raw.Seq, SkipFiltered, nil)
	case errors.Is(err, feed.ErrSkipped):
		r.skip(raw.Seq, SkipUnhandled, err)
	case err != nil:
		r.skip(raw.Seq, SkipMalformed, err)
	default:
		events, err = r.engine.Process(msg)
		if err != nil {
			// The engine counts the specific reason.
			r.skip(raw.Seq, SkipInvalid, err)
			break
		}
		r.mu.Lock()
		r.summary.Lines++
		r.summary.Processed++
		r.summary.Events += int64(len(events))
		r.summary.LastLine = raw.Seq
		r.mu.Unlock()
	}

	if r.cfg.Order != OrderArrival || len(events) == 0 {
		return nil
	}
	r.pending = append(r.pending, events...)
	if len(r.pending) >= r.cfg.BatchSize {
		return r.flushPending(ctx)
	}
	return nil
}

func (r *Runner) skip(seq int64, reason string, err error) {
	r.mu.Lock()
	r.summary.Lines++
	if reason == SkipFiltered {
		r.summary.Filtered++
	} else {
		r.summary.Skipped++
	}
	r.summary.LastLine = seq
	r.mu.Unlock()

	r.recorder.RecordSkipped(reason)
	if err != nil {
		r.logger.Debug("skipping record", "line", seq, "reason", reason, "error", err)
	}
}

func (r *Runner) flushPending(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	err := r.write(ctx, r.pending)
	r.pending = r.pending[:0]
	return err
}

// write sends one batch to every output.
func (r *Runner) write(ctx context.Context, events []model.Event) error {
	for _, o := range r.outputs {
		if err := o.w.Write(ctx, events); err != nil {
			r.recorder.RecordWriteError(o.name)
			return fmt.Errorf("write %s: %w", o.name, err)
		}
	}
	return nil
}

// finalize writes grouped output and snapshots, then closes every writer.
func (r *Runner) finalize(ctx context.Context) error {
	var errs []error

	switch r.cfg.Order {
	case OrderArrival:
		if err := r.flushPending(ctx); err != nil {
			errs = append(errs, err)
		}
	default:
		all := r.engine.Log().All()
		for start := 0; start < len(all); start += r.cfg.BatchSize {
			end := min(start+r.cfg.BatchSize, len(all))
			if err := r.write(ctx, all[start:end]); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}

	books := r.engine.Books()
	snaps := make([]book.Snapshot, 0, len(books.Instruments()))
	for _, instrument := range books.Instruments() {
		b, _ := books.Lookup(instrument)
		s := b.Snapshot(r.cfg.SnapshotDepth)
		snaps = append(snaps, s)
		r.logger.Debug("final book",
			"instrument", instrument,
			"best_bid", bestString(s.BestBid, s.HasBestBid),
			"best_ask", bestString(s.BestAsk, s.HasBestAsk),
			"bid_levels", len(s.Bids),
			"ask_levels", len(s.Asks),
		)
	}
	if r.snapshots != nil {
		if err := r.snapshots.Write(ctx, snaps, time.Now()); err != nil {
			r.recorder.RecordWriteError("snapshots")
			errs = append(errs, fmt.Errorf("write snapshots: %w", err))
		}
	}

	errs = append(errs, r.closeOutputs(ctx))
	return errors.Join(errs...)
}

// closeOutputs closes every writer, started or not.
func (r *Runner) closeOutputs(ctx context.Context) error {
	var errs []error
	for _, o := range r.outputs {
		if err := o.w.Close(ctx); err != nil {
			r.recorder.RecordWriteError(o.name)
			errs = append(errs, fmt.Errorf("close %s: %w", o.name, err))
		}
	}
	return errors.Join(errs...)
}

func bestString(p model.Price, ok bool) string {
	if !ok {
		return "none"
	}
	return p.String()
}
