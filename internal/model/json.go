package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decimal returns p as an exact decimal in currency units.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -PriceDecimals)
}

// String formats p with four decimals.
func (p Price) String() string {
	return p.Decimal().StringFixed(PriceDecimals)
}

var (
	maxPrice = decimal.NewFromInt(math.MaxInt64)
	minPrice = decimal.NewFromInt(math.MinInt64)
)

// PriceFromDecimal converts d to ticks. Sub-tick precision is rejected.
func PriceFromDecimal(d decimal.Decimal) (Price, error) {
	scaled := d.Shift(PriceDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("price %s has more than %d decimals", d.String(), PriceDecimals)
	}
	if scaled.GreaterThan(maxPrice) || scaled.LessThan(minPrice) {
		return 0, fmt.Errorf("price %s out of range", d.String())
	}
	return Price(scaled.IntPart()), nil
}

// eventWire is the flat on-disk form of an Event.
type eventWire struct {
	Instrument    string          `json:"instrument"`
	Side          Side            `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Size          *int64          `json:"size"`
	Kind          Kind            `json:"kind"`
	Hidden        bool            `json:"hidden"`
	Timestamp     string          `json:"timestamp"`
	ParticipantID *int            `json:"participant_id"`
	OrderID       *uuid.UUID      `json:"order_id"`
}

// MarshalJSON writes the event as one flat record.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire{
		Instrument:    e.Instrument,
		Side:          e.Side,
		Price:         e.Price.Decimal(),
		Size:          e.Size,
		Kind:          e.Kind,
		Hidden:        e.Hidden,
		Timestamp:     e.Timestamp.Time().Format(time.RFC3339Nano),
		ParticipantID: e.ParticipantID,
		OrderID:       e.OrderID,
	})
}

// UnmarshalJSON reads the flat record written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	price, err := PriceFromDecimal(w.Price)
	if err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	*e = Event{
		Instrument:    w.Instrument,
		Side:          w.Side,
		Price:         price,
		Size:          w.Size,
		Kind:          w.Kind,
		Hidden:        w.Hidden,
		Timestamp:     FromTime(ts),
		ParticipantID: w.ParticipantID,
		OrderID:       w.OrderID,
	}
	return nil
}
