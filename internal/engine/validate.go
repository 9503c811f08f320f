package engine

import (
	"errors"
	"fmt"

	"github.com/rickgao/iex-recon/internal/model"
)

// ErrInvalidRecord is returned by Process for records that are skipped
// without touching engine state.
var ErrInvalidRecord = errors.New("invalid record")

// Invalid-record reasons, also used as metric labels.
const (
	ReasonEmpty      = "empty_message"
	ReasonInstrument = "missing_instrument"
	ReasonSide       = "invalid_side"
	ReasonPrice      = "invalid_price"
	ReasonSize       = "invalid_size"
)

// invalidError carries the reason label alongside ErrInvalidRecord.
type invalidError struct {
	reason string
	detail string
}

func (e *invalidError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRecord, e.reason, e.detail)
}

func (e *invalidError) Unwrap() error {
	return ErrInvalidRecord
}

func invalid(reason, format string, args ...any) error {
	return &invalidError{reason: reason, detail: fmt.Sprintf(format, args...)}
}

// InvalidReason returns the reason label of an invalid-record error.
func InvalidReason(err error) (string, bool) {
	var ie *invalidError
	if errors.As(err, &ie) {
		return ie.reason, true
	}
	return "", false
}

func validate(msg model.Message) error {
	switch {
	case msg.Level != nil:
		u := msg.Level
		if u.Instrument == "" {
			return invalid(ReasonInstrument, "level update has no instrument")
		}
		if !u.Side.Valid() {
			return invalid(ReasonSide, "side %d", u.Side)
		}
		if u.Price <= 0 {
			return invalid(ReasonPrice, "price %s", u.Price)
		}
		if u.Size < 0 {
			return invalid(ReasonSize, "level size %d is negative", u.Size)
		}
	case msg.Trade != nil:
		t := msg.Trade
		if t.Instrument == "" {
			return invalid(ReasonInstrument, "trade has no instrument")
		}
		if t.Price <= 0 {
			return invalid(ReasonPrice, "price %s", t.Price)
		}
		if t.Size <= 0 {
			return invalid(ReasonSize, "trade size %d is not positive", t.Size)
		}
	default:
		return invalid(ReasonEmpty, "message carries neither a level update nor a trade")
	}
	return nil
}
