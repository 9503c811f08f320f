package engine

import (
	"log/slog"
	"time"

	"github.com/rickgao/iex-recon/internal/ledger"
	"github.com/rickgao/iex-recon/internal/model"
)

// Recorder receives per-record and per-event counts. *metrics.Engine
// implements it.
type Recorder interface {
	RecordMessage(kind string)
	RecordInvalid(reason string)
	RecordEvent(kind model.Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordMessage(string)   {}
func (nopRecorder) RecordInvalid(string)   {}
func (nopRecorder) RecordEvent(model.Kind) {}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSweepWindow sets the trailing window for sweep detection.
func WithSweepWindow(d time.Duration) Option {
	return func(e *Engine) {
		e.sweepWindow = d
	}
}

// WithTradeMatchWindow sets the tolerance used to match a best-price move to
// a fill.
func WithTradeMatchWindow(d time.Duration) Option {
	return func(e *Engine) {
		e.matchWindow = d
	}
}

// WithParticipantPool sets the number of synthetic participants.
func WithParticipantPool(n int) Option {
	return func(e *Engine) {
		e.poolSize = n
	}
}

// WithIDSource sets the synthetic order id source.
func WithIDSource(ids ledger.IDSource) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}
