// Package correlate decides whether a best-price move was explained by a
// trade or by a cancellation nobody traded against.
package correlate

import (
	"time"

	"github.com/rickgao/iex-recon/internal/model"
)

// DefaultTolerance is the trade match window. The comparison is inclusive.
const DefaultTolerance = time.Millisecond

// FillIndex answers whether a fill at price lies within tol of ts.
type FillIndex interface {
	FillNear(instrument string, price model.Price, ts model.Timestamp, tol time.Duration) bool
}

// Correlator emits CancelNoTrade events for vacated best levels with no
// matching fill.
type Correlator struct {
	fills FillIndex
	tol   time.Duration
}

// New creates a correlator over fills. A non-positive tol uses DefaultTolerance.
func New(fills FillIndex, tol time.Duration) *Correlator {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Correlator{fills: fills, tol: tol}
}

// Tolerance returns the configured match window.
func (c *Correlator) Tolerance() time.Duration {
	return c.tol
}

// Check returns a CancelNoTrade event for the vacated level when it held
// size before the update and no fill at that price lies within tolerance.
func (c *Correlator) Check(instrument string, side model.Side, vacated model.Price, vacatedSize int64, ts model.Timestamp) (model.Event, bool) {
	if vacatedSize <= 0 {
		return model.Event{}, false
	}
	if c.fills.FillNear(instrument, vacated, ts, c.tol) {
		return model.Event{}, false
	}
	return model.Event{
		Instrument: instrument,
		Side:       side,
		Price:      vacated,
		Size:       model.SizeOf(vacatedSize),
		Kind:       model.CancelNoTrade,
		Timestamp:  ts,
	}, true
}
