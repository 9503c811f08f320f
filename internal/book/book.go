package book

import (
	"github.com/tidwall/btree"

	"github.com/rickgao/iex-recon/internal/model"
)

// Update is the result of applying one level update.
type Update struct {
	Prev int64 // Size at the price before the update
	New  int64 // Size at the price after the update

	OldBest    model.Price
	HasOldBest bool
	NewBest    model.Price
	HasNewBest bool
}

// BestChanged reports whether both bests exist and differ.
func (u Update) BestChanged() bool {
	return u.HasOldBest && u.HasNewBest && u.OldBest != u.NewBest
}

// Level is one price level in a depth listing.
type Level struct {
	Price model.Price
	Size  int64
}

// sideBook is one side of an instrument's book.
type sideBook struct {
	side    model.Side
	levels  *btree.Map[model.Price, int64]
	best    model.Price
	hasBest bool
}

func newSideBook(side model.Side) *sideBook {
	return &sideBook{
		side:   side,
		levels: btree.NewMap[model.Price, int64](32),
	}
}

// recomputeBest walks from the best end of the map and stops at the first
// level with positive size.
func (s *sideBook) recomputeBest() {
	s.hasBest = false
	iter := func(price model.Price, size int64) bool {
		if size > 0 {
			s.best = price
			s.hasBest = true
			return false
		}
		return true
	}
	if s.side == model.Bid {
		s.levels.Reverse(iter)
	} else {
		s.levels.Scan(iter)
	}
}

// Book holds both sides for one instrument.
type Book struct {
	instrument string
	sides      [2]*sideBook
}

// New creates an empty book.
func New(instrument string) *Book {
	return &Book{
		instrument: instrument,
		sides:      [2]*sideBook{newSideBook(model.Bid), newSideBook(model.Ask)},
	}
}

// Instrument returns the instrument this book tracks.
func (b *Book) Instrument() string {
	return b.instrument
}

func (b *Book) side(s model.Side) *sideBook {
	return b.sides[s&1]
}

// Apply replaces the size at price and returns the previous size together
// with the best price before and after. size must be >= 0.
func (b *Book) Apply(side model.Side, price model.Price, size int64) Update {
	sb := b.side(side)

	prev, _ := sb.levels.Get(price)
	oldBest, hadBest := sb.best, sb.hasBest

	sb.levels.Set(price, size)
	sb.recomputeBest()

	return Update{
		Prev:       prev,
		New:        size,
		OldBest:    oldBest,
		HasOldBest: hadBest,
		NewBest:    sb.best,
		HasNewBest: sb.hasBest,
	}
}

// ConsumeOnTrade reduces resting ask size at price by size, floored at zero.
// consumed is the visible portion taken from the book; deficit is the part
// of size that exceeded what was resting.
func (b *Book) ConsumeOnTrade(price model.Price, size int64) (consumed, deficit int64) {
	sb := b.side(model.Ask)

	resting, _ := sb.levels.Get(price)
	if size <= resting {
		consumed = size
	} else {
		consumed = resting
		deficit = size - resting
	}

	sb.levels.Set(price, resting-consumed)
	sb.recomputeBest()
	return consumed, deficit
}

// Size returns the resting size at price (0 when absent).
func (b *Book) Size(side model.Side, price model.Price) int64 {
	size, _ := b.side(side).levels.Get(price)
	return size
}

// Best returns the best price on side, if any level has positive size.
func (b *Book) Best(side model.Side) (model.Price, bool) {
	sb := b.side(side)
	return sb.best, sb.hasBest
}

// Depth returns up to n positive levels from the best price outward.
// n <= 0 returns every positive level.
func (b *Book) Depth(side model.Side, n int) []Level {
	sb := b.side(side)
	var out []Level
	iter := func(price model.Price, size int64) bool {
		if size > 0 {
			out = append(out, Level{Price: price, Size: size})
		}
		return n <= 0 || len(out) < n
	}
	if side == model.Bid {
		sb.levels.Reverse(iter)
	} else {
		sb.levels.Scan(iter)
	}
	return out
}

// Snapshot is a top-of-book view of one instrument.
type Snapshot struct {
	Instrument string
	Bids       []Level // Best first
	Asks       []Level // Best first
	BestBid    model.Price
	HasBestBid bool
	BestAsk    model.Price
	HasBestAsk bool
}

// Spread returns best ask minus best bid when both sides are quoted.
func (s Snapshot) Spread() (model.Price, bool) {
	if !s.HasBestBid || !s.HasBestAsk {
		return 0, false
	}
	return s.BestAsk - s.BestBid, true
}

// Snapshot captures up to depth levels per side (depth <= 0 for all).
func (b *Book) Snapshot(depth int) Snapshot {
	s := Snapshot{
		Instrument: b.instrument,
		Bids:       b.Depth(model.Bid, depth),
		Asks:       b.Depth(model.Ask, depth),
	}
	s.BestBid, s.HasBestBid = b.Best(model.Bid)
	s.BestAsk, s.HasBestAsk = b.Best(model.Ask)
	return s
}

// Books is a registry of books keyed by instrument.
type Books struct {
	books map[string]*Book
	order []string
}

// NewBooks creates an empty registry.
func NewBooks() *Books {
	return &Books{books: make(map[string]*Book)}
}

// Get returns the book for instrument, creating it on first use.
func (r *Books) Get(instrument string) *Book {
	b, ok := r.books[instrument]
	if !ok {
		b = New(instrument)
		r.books[instrument] = b
		r.order = append(r.order, instrument)
	}
	return b
}

// Lookup returns the book for instrument without creating it.
func (r *Books) Lookup(instrument string) (*Book, bool) {
	b, ok := r.books[instrument]
	return b, ok
}

// Instruments returns instruments in first-seen order.
func (r *Books) Instruments() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
