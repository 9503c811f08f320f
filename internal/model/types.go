package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PriceScale is the number of ticks per whole currency unit.
const PriceScale = 10_000

// PriceDecimals is the number of decimal places carried by a Price.
const PriceDecimals = 4

// Price is a fixed-point price in ticks (0.0001).
type Price int64

// Timestamp is nanoseconds since Unix epoch.
type Timestamp int64

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

// Time returns the timestamp as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(0, int64(ts)).UTC()
}

// Sub returns ts - other as a duration.
func (ts Timestamp) Sub(other Timestamp) time.Duration {
	return time.Duration(ts - other)
}

// Add returns ts shifted by d.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return ts + Timestamp(d)
}

// ErrUnknownSide is returned by ParseSide for unrecognised tokens.
var ErrUnknownSide = errors.New("unknown side")

// -----------------------------------------------------------------------------
// Side
// -----------------------------------------------------------------------------

// Side is one side of the book.
type Side uint8

const (
	Bid Side = iota
	Ask
)

// Sides lists both sides in a fixed order.
var Sides = [2]Side{Bid, Ask}

// String returns the IEX wire token ("B" or "S").
func (s Side) String() string {
	switch s {
	case Bid:
		return "B"
	case Ask:
		return "S"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Valid reports whether s is Bid or Ask.
func (s Side) Valid() bool {
	return s == Bid || s == Ask
}

// Better reports whether price a ranks ahead of price b on this side.
// Bids rank by descending price, asks by ascending price.
func (s Side) Better(a, b Price) bool {
	if s == Bid {
		return a > b
	}
	return a < b
}

// ParseSide parses a side token. IEX uses "B" and "S"; the long forms are
// accepted for hand-written inputs.
func ParseSide(token string) (Side, error) {
	switch strings.ToLower(token) {
	case "b", "bid", "buy":
		return Bid, nil
	case "s", "a", "ask", "sell":
		return Ask, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSide, token)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSide, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(b []byte) error {
	parsed, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// -----------------------------------------------------------------------------
// Event kinds
// -----------------------------------------------------------------------------

// Kind classifies an inferred event.
type Kind uint8

const (
	LimitAdd Kind = iota
	Cancel
	LevelCleared
	CancelNoTrade
	VisibleFill
	HiddenFill
	MultiLevelSweep

	// Modify and LargeHidden are reserved tags; no heuristic emits them yet.
	Modify
	LargeHidden
)

var kindNames = [...]string{
	LimitAdd:        "limit_add",
	Cancel:          "cancel",
	LevelCleared:    "level_cleared",
	CancelNoTrade:   "cancel_no_trade",
	VisibleFill:     "visible_fill",
	HiddenFill:      "hidden_fill",
	MultiLevelSweep: "multi_level_sweep",
	Modify:          "modify",
	LargeHidden:     "large_hidden",
}

// Kinds lists every defined kind, reserved ones included.
var Kinds = []Kind{LimitAdd, Cancel, LevelCleared, CancelNoTrade, VisibleFill, HiddenFill, MultiLevelSweep, Modify, LargeHidden}

// String returns the wire tag for k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsFill reports whether k is a visible or hidden fill.
func (k Kind) IsFill() bool {
	return k == VisibleFill || k == HiddenFill
}

// ParseKind parses a wire tag.
func ParseKind(tag string) (Kind, error) {
	for k, name := range kindNames {
		if name == tag {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", tag)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// -----------------------------------------------------------------------------
// Input records
// -----------------------------------------------------------------------------

// LevelUpdate is an absolute size replacement for one price level.
type LevelUpdate struct {
	Instrument string
	Side       Side
	Price      Price
	Size       int64 // New absolute size, >= 0
	Timestamp  Timestamp
}

// Trade is a trade report. Trades always execute against ask liquidity.
type Trade struct {
	Instrument string
	Price      Price
	Size       int64 // > 0
	Timestamp  Timestamp
}

// Message is one decoded input record. Exactly one of Level or Trade is set.
type Message struct {
	Seq   int64 // Input position (1-based line number for file sources)
	Level *LevelUpdate
	Trade *Trade
}

// Instrument returns the instrument of whichever record is set.
func (m Message) Instrument() string {
	switch {
	case m.Level != nil:
		return m.Level.Instrument
	case m.Trade != nil:
		return m.Trade.Instrument
	default:
		return ""
	}
}

// Timestamp returns the timestamp of whichever record is set.
func (m Message) Timestamp() Timestamp {
	switch {
	case m.Level != nil:
		return m.Level.Timestamp
	case m.Trade != nil:
		return m.Trade.Timestamp
	default:
		return 0
	}
}

// -----------------------------------------------------------------------------
// Output events
// -----------------------------------------------------------------------------

// Attribution ties an event to a synthetic participant and order.
type Attribution struct {
	ParticipantID int
	OrderID       uuid.UUID
}

// Event is one inferred order-level event. Nil Size, ParticipantID and
// OrderID serialise as JSON null. Price serialises as a quoted decimal string.
type Event struct {
	Instrument    string
	Side          Side
	Price         Price
	Size          *int64
	Kind          Kind
	Hidden        bool
	Timestamp     Timestamp
	ParticipantID *int
	OrderID       *uuid.UUID
}

// Attribution returns the event's attribution, if any.
func (e Event) Attribution() (Attribution, bool) {
	if e.ParticipantID == nil || e.OrderID == nil {
		return Attribution{}, false
	}
	return Attribution{ParticipantID: *e.ParticipantID, OrderID: *e.OrderID}, true
}

// SizeOf returns a pointer to size, for building events.
func SizeOf(size int64) *int64 {
	return &size
}

// Attribute sets participant and order id from a.
func (e *Event) Attribute(a Attribution) {
	pid := a.ParticipantID
	oid := a.OrderID
	e.ParticipantID = &pid
	e.OrderID = &oid
}
