// Package sink is the ordered, append-only log of inferred events.
package sink

import (
	"time"

	"github.com/rickgao/iex-recon/internal/model"
)

// Log keeps every event per instrument in append order.
type Log struct {
	events map[string][]model.Event
	order  []string
	total  int
}

// New creates an empty log.
func New() *Log {
	return &Log{events: make(map[string][]model.Event)}
}

// Append adds an event to its instrument's log.
func (l *Log) Append(ev model.Event) {
	if _, ok := l.events[ev.Instrument]; !ok {
		l.order = append(l.order, ev.Instrument)
	}
	l.events[ev.Instrument] = append(l.events[ev.Instrument], ev)
	l.total++
}

// Events returns a copy of the instrument's log.
func (l *Log) Events(instrument string) []model.Event {
	src := l.events[instrument]
	out := make([]model.Event, len(src))
	copy(out, src)
	return out
}

// Instruments returns instruments in first-seen order.
func (l *Log) Instruments() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// All returns every event grouped by instrument (first-seen order), each
// group in append order.
func (l *Log) All() []model.Event {
	out := make([]model.Event, 0, l.total)
	for _, instrument := range l.order {
		out = append(out, l.events[instrument]...)
	}
	return out
}

// Len returns the total number of events.
func (l *Log) Len() int {
	return l.total
}

// FillNear reports whether a visible or hidden fill at price lies within tol
// of ts in the instrument's log. Fills are appended in non-decreasing time,
// so the scan runs newest first and stops at the first fill older than
// ts-tol. Sweep annotations carry older timestamps and are skipped.
func (l *Log) FillNear(instrument string, price model.Price, ts model.Timestamp, tol time.Duration) bool {
	events := l.events[instrument]
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if !ev.Kind.IsFill() {
			continue
		}
		d := ev.Timestamp.Sub(ts)
		if d < -tol {
			return false
		}
		if ev.Price == price && d <= tol {
			return true
		}
	}
	return false
}
