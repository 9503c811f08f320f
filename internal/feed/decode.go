package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/iex-recon/internal/model"
)

// Decode errors. Callers count and skip records that fail with any of them.
var (
	ErrMalformed = errors.New("malformed record")
	ErrSkipped   = errors.New("unhandled record type")
	ErrFiltered  = errors.New("instrument filtered out")
)

// Record types understood by the decoder.
const (
	TypePriceLevelUpdate     = "price_level_update"
	TypePriceLevelUpdateBuy  = "price_level_update_buy"
	TypePriceLevelUpdateSell = "price_level_update_sell"
	TypeTradeReport          = "trade_report"
	TypeTrade                = "trade"
)

// envelope is the minimal shape needed to route a record.
type envelope struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type levelWire struct {
	Side      string           `json:"side"`
	Price     *decimal.Decimal `json:"price"`
	Size      *int64           `json:"size"`
	Timestamp json.RawMessage  `json:"timestamp"`
}

type tradeWire struct {
	Price     *decimal.Decimal `json:"price"`
	Size      *int64           `json:"size"`
	Timestamp json.RawMessage  `json:"timestamp"`
}

// Decoder parses raw records. The zero value accepts every instrument.
type Decoder struct {
	filter Filter
}

// NewDecoder creates a decoder that drops records outside filter.
func NewDecoder(filter Filter) *Decoder {
	return &Decoder{filter: filter}
}

// Decode parses one record. Errors wrap ErrMalformed, ErrSkipped or
// ErrFiltered.
func (d *Decoder) Decode(data []byte) (model.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !d.filter.Match(env.Symbol) {
		return model.Message{}, ErrFiltered
	}

	switch env.Type {
	case TypePriceLevelUpdate, TypePriceLevelUpdateBuy, TypePriceLevelUpdateSell:
		u, err := d.parseLevel(env, data)
		if err != nil {
			return model.Message{}, err
		}
		return model.Message{Level: &u}, nil

	case TypeTradeReport, TypeTrade:
		t, err := d.parseTrade(env, data)
		if err != nil {
			return model.Message{}, err
		}
		return model.Message{Trade: &t}, nil

	default:
		return model.Message{}, fmt.Errorf("%w: %q", ErrSkipped, env.Type)
	}
}

func (d *Decoder) parseLevel(env envelope, data []byte) (model.LevelUpdate, error) {
	var w levelWire
	if err := json.Unmarshal(data, &w); err != nil {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if env.Symbol == "" {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: missing symbol", ErrMalformed, env.Type)
	}

	token := w.Side
	switch {
	case token == "" && env.Type == TypePriceLevelUpdateBuy:
		token = "B"
	case token == "" && env.Type == TypePriceLevelUpdateSell:
		token = "S"
	}
	side, err := model.ParseSide(token)
	if err != nil {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	price, err := parsePrice(w.Price)
	if err != nil {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if w.Size == nil {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: missing size", ErrMalformed, env.Type)
	}
	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return model.LevelUpdate{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}

	return model.LevelUpdate{
		Instrument: env.Symbol,
		Side:       side,
		Price:      price,
		Size:       *w.Size,
		Timestamp:  ts,
	}, nil
}

func (d *Decoder) parseTrade(env envelope, data []byte) (model.Trade, error) {
	var w tradeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Trade{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if env.Symbol == "" {
		return model.Trade{}, fmt.Errorf("%w: %s: missing symbol", ErrMalformed, env.Type)
	}
	price, err := parsePrice(w.Price)
	if err != nil {
		return model.Trade{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if w.Size == nil {
		return model.Trade{}, fmt.Errorf("%w: %s: missing size", ErrMalformed, env.Type)
	}
	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return model.Trade{}, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}

	return model.Trade{
		Instrument: env.Symbol,
		Price:      price,
		Size:       *w.Size,
		Timestamp:  ts,
	}, nil
}

func parsePrice(d *decimal.Decimal) (model.Price, error) {
	if d == nil {
		return 0, errors.New("missing price")
	}
	return model.PriceFromDecimal(*d)
}

// Layouts accepted for string timestamps, tried in order. Zone-less
// timestamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp reads an ISO-8601 string or an integer count of
// nanoseconds since the epoch.
func ParseTimestamp(raw json.RawMessage) (model.Timestamp, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing timestamp")
	}

	if raw[0] != '"' {
		ns, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %s: %w", raw, err)
		}
		return model.Timestamp(ns), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return model.FromTime(t), nil
		}
	}
	return 0, fmt.Errorf("timestamp %q: unrecognised format", s)
}
