package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/iex-recon/internal/book"
	"github.com/rickgao/iex-recon/internal/correlate"
	"github.com/rickgao/iex-recon/internal/ledger"
	"github.com/rickgao/iex-recon/internal/model"
	"github.com/rickgao/iex-recon/internal/sink"
	"github.com/rickgao/iex-recon/internal/sweep"
)

// Stats contains runtime counters.
type Stats struct {
	LevelUpdates int64
	Trades       int64
	Invalid      int64
	Events       int64
	EventsByKind map[model.Kind]int64
}

// Engine reconstructs order-level events from level updates and trades.
type Engine struct {
	logger   *slog.Logger
	recorder Recorder

	sweepWindow time.Duration
	matchWindow time.Duration
	poolSize    int
	ids         ledger.IDSource

	books      *book.Books
	ledger     *ledger.Ledger
	sweeps     *sweep.Detector
	correlator *correlate.Correlator
	log        *sink.Log

	mu     sync.RWMutex
	levels int64
	trades int64
	bad    int64
	events int64
	byKind map[model.Kind]int64
}

// New creates an engine with empty state.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		recorder:    nopRecorder{},
		sweepWindow: sweep.DefaultWindow,
		matchWindow: correlate.DefaultTolerance,
		poolSize:    ledger.DefaultPoolSize,
		byKind:      make(map[model.Kind]int64),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = ledger.NewSequentialIDs(ledger.DefaultNamespace)
	}

	e.books = book.NewBooks()
	e.ledger = ledger.New(ledger.NewParticipants(e.poolSize), e.ids)
	e.sweeps = sweep.NewDetector(e.sweepWindow)
	e.log = sink.New()
	e.correlator = correlate.New(e.log, e.matchWindow)
	return e
}

// Process classifies one message, appends the resulting events to the log
// and returns them in emission order. An invalid message returns an error
// wrapping ErrInvalidRecord and leaves the engine untouched.
func (e *Engine) Process(msg model.Message) ([]model.Event, error) {
	if err := validate(msg); err != nil {
		reason, _ := InvalidReason(err)
		e.mu.Lock()
		e.bad++
		e.mu.Unlock()
		e.recorder.RecordInvalid(reason)
		e.logger.Debug("skipping invalid record", "seq", msg.Seq, "reason", reason, "error", err)
		return nil, err
	}

	var out []model.Event
	if msg.Level != nil {
		out = e.onLevel(*msg.Level)
		e.recorder.RecordMessage("level_update")
	} else {
		out = e.onTrade(*msg.Trade)
		e.recorder.RecordMessage("trade")
	}

	e.mu.Lock()
	if msg.Level != nil {
		e.levels++
	} else {
		e.trades++
	}
	for _, ev := range out {
		e.events++
		e.byKind[ev.Kind]++
	}
	e.mu.Unlock()

	for _, ev := range out {
		e.recorder.RecordEvent(ev.Kind)
	}
	return out, nil
}

func (e *Engine) onLevel(u model.LevelUpdate) []model.Event {
	b := e.books.Get(u.Instrument)
	up := b.Apply(u.Side, u.Price, u.Size)

	var out []model.Event
	emit := func(ev model.Event) {
		e.log.Append(ev)
		out = append(out, ev)
	}

	ev := model.Event{
		Instrument: u.Instrument,
		Side:       u.Side,
		Price:      u.Price,
		Timestamp:  u.Timestamp,
	}
	switch {
	case up.New > up.Prev:
		size := up.New - up.Prev
		ev.Kind = model.LimitAdd
		ev.Size = model.SizeOf(size)
		ev.Attribute(e.ledger.Push(u.Instrument, u.Side, u.Price, size))
		emit(ev)

	case up.New == 0 && up.Prev > 0:
		ev.Kind = model.LevelCleared
		ev.Size = model.SizeOf(up.Prev)
		if first, ok, _ := e.ledger.Drain(u.Instrument, u.Side, u.Price); ok {
			ev.Attribute(first)
		} else {
			ev.Hidden = true
		}
		emit(ev)

	case up.New < up.Prev:
		size := up.Prev - up.New
		ev.Kind = model.Cancel
		ev.Size = model.SizeOf(size)
		if first, ok, _ := e.ledger.Reduce(u.Instrument, u.Side, u.Price, size); ok {
			ev.Attribute(first)
		} else {
			ev.Hidden = true
		}
		emit(ev)
	}

	if up.BestChanged() {
		// Only the updated price changed size, so any other vacated level
		// still holds its pre-update size.
		vacatedSize := b.Size(u.Side, up.OldBest)
		if up.OldBest == u.Price {
			vacatedSize = up.Prev
		}
		if cnt, ok := e.correlator.Check(u.Instrument, u.Side, up.OldBest, vacatedSize, u.Timestamp); ok {
			emit(cnt)
		}
	}
	return out
}

func (e *Engine) onTrade(t model.Trade) []model.Event {
	b := e.books.Get(t.Instrument)
	resting := b.Size(model.Ask, t.Price)
	hidden := t.Size > resting
	b.ConsumeOnTrade(t.Price, t.Size)

	var out []model.Event
	emit := func(ev model.Event) {
		e.log.Append(ev)
		out = append(out, ev)
	}

	if hidden {
		emit(model.Event{
			Instrument: t.Instrument,
			Side:       model.Ask,
			Price:      t.Price,
			Size:       model.SizeOf(t.Size),
			Kind:       model.HiddenFill,
			Hidden:     true,
			Timestamp:  t.Timestamp,
		})
	} else {
		for remaining := t.Size; remaining > 0; {
			r := e.ledger.ReduceFront(t.Instrument, model.Ask, t.Price, remaining)
			ev := model.Event{
				Instrument: t.Instrument,
				Side:       model.Ask,
				Price:      t.Price,
				Size:       model.SizeOf(r.Consumed),
				Kind:       model.VisibleFill,
				Timestamp:  t.Timestamp,
			}
			if r.Attributed {
				ev.Attribute(r.Attribution)
			}
			emit(ev)
			remaining -= r.Consumed
		}
	}

	for _, ev := range e.sweeps.Observe(t.Instrument, model.Ask, t.Price, t.Timestamp) {
		emit(ev)
	}
	return out
}

// Stats returns current statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byKind := make(map[model.Kind]int64, len(e.byKind))
	for k, n := range e.byKind {
		byKind[k] = n
	}
	return Stats{
		LevelUpdates: e.levels,
		Trades:       e.trades,
		Invalid:      e.bad,
		Events:       e.events,
		EventsByKind: byKind,
	}
}

// Books returns the engine's level books.
func (e *Engine) Books() *book.Books {
	return e.books
}

// Ledger returns the engine's synthetic order ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Log returns the engine's event log.
func (e *Engine) Log() *sink.Log {
	return e.log
}
