// Package sweep flags bursts of trades across several prices on one side as
// a single multi-level sweep.
package sweep

import (
	"time"

	"github.com/rickgao/iex-recon/internal/model"
)

// DefaultWindow is the trailing window trades are grouped over.
const DefaultWindow = 5 * time.Millisecond

// Record is a recent trade kept inside the trailing window.
type Record struct {
	Timestamp  model.Timestamp
	Instrument string
	Side       model.Side
	Price      model.Price
}

// Detector keeps one trailing deque of recent trades per instrument.
type Detector struct {
	window time.Duration
	recent map[string][]Record
}

// NewDetector creates a detector with the given window (DefaultWindow if <= 0).
func NewDetector(window time.Duration) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{
		window: window,
		recent: make(map[string][]Record),
	}
}

// Window returns the configured window.
func (d *Detector) Window() time.Duration {
	return d.window
}

// Observe records a trade, evicts records older than ts-window, and returns
// one MultiLevelSweep annotation per remaining (instrument, side) record when
// they span more than one distinct price. Annotations are not deduplicated:
// a trade inside several overlapping bursts is annotated each time.
func (d *Detector) Observe(instrument string, side model.Side, price model.Price, ts model.Timestamp) []model.Event {
	window := append(d.recent[instrument], Record{
		Timestamp:  ts,
		Instrument: instrument,
		Side:       side,
		Price:      price,
	})

	cut := 0
	for cut < len(window) && ts.Sub(window[cut].Timestamp) > d.window {
		cut++
	}
	if cut > 0 {
		window = append(window[:0], window[cut:]...)
	}
	d.recent[instrument] = window

	var (
		relevant []Record
		first    model.Price
		multi    bool
	)
	for _, r := range window {
		if r.Side != side {
			continue
		}
		if len(relevant) == 0 {
			first = r.Price
		} else if r.Price != first {
			multi = true
		}
		relevant = append(relevant, r)
	}
	if !multi {
		return nil
	}

	out := make([]model.Event, 0, len(relevant))
	for _, r := range relevant {
		out = append(out, model.Event{
			Instrument: r.Instrument,
			Side:       r.Side,
			Price:      r.Price,
			Kind:       model.MultiLevelSweep,
			Timestamp:  r.Timestamp,
		})
	}
	return out
}

// Recent returns a copy of the instrument's current window.
func (d *Detector) Recent(instrument string) []Record {
	src := d.recent[instrument]
	out := make([]Record, len(src))
	copy(out, src)
	return out
}
