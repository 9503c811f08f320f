package correlate

import (
	"testing"
	"time"

	"github.com/rickgao/iex-recon/internal/model"
)

type fill struct {
	instrument string
	price      model.Price
	ts         model.Timestamp
}

// fakeFills is a linear FillIndex over a fixed set of fills.
type fakeFills []fill

func (f fakeFills) FillNear(instrument string, price model.Price, ts model.Timestamp, tol time.Duration) bool {
	for _, x := range f {
		d := x.ts.Sub(ts)
		if d < 0 {
			d = -d
		}
		if x.instrument == instrument && x.price == price && d <= tol {
			return true
		}
	}
	return false
}

const ms = model.Timestamp(time.Millisecond)

func TestCorrelator_Check(t *testing.T) {
	fills := fakeFills{{"AAPL", 100, 10 * ms}}

	tests := []struct {
		name    string
		price   model.Price
		size    int64
		ts      model.Timestamp
		wantHit bool
	}{
		{"no fill at price", 101, 50, 10 * ms, true},
		{"fill within tolerance", 100, 50, 10*ms + ms/2, false},
		{"fill at tolerance edge", 100, 50, 11 * ms, false},
		{"fill outside tolerance", 100, 50, 11*ms + 1, true},
		{"vacated level was empty", 101, 0, 10 * ms, false},
	}

	c := New(fills, DefaultTolerance)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := c.Check("AAPL", model.Bid, tt.price, tt.size, tt.ts)
			if ok != tt.wantHit {
				t.Fatalf("Check() ok = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if ev.Kind != model.CancelNoTrade {
				t.Errorf("Kind = %v, want cancel_no_trade", ev.Kind)
			}
			if ev.Size == nil || *ev.Size != tt.size {
				t.Errorf("Size = %v, want %d", ev.Size, tt.size)
			}
			if ev.Price != tt.price || ev.Side != model.Bid || ev.Timestamp != tt.ts {
				t.Errorf("event = %+v", ev)
			}
			if _, attributed := ev.Attribution(); attributed {
				t.Error("CancelNoTrade should carry no attribution")
			}
		})
	}
}

func TestCorrelator_OtherInstrumentFillIgnored(t *testing.T) {
	c := New(fakeFills{{"MSFT", 100, 10 * ms}}, 0)
	if _, ok := c.Check("AAPL", model.Ask, 100, 5, 10*ms); !ok {
		t.Error("fill on another instrument suppressed CancelNoTrade")
	}
	if c.Tolerance() != DefaultTolerance {
		t.Errorf("Tolerance() = %v, want %v", c.Tolerance(), DefaultTolerance)
	}
}
