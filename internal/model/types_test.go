package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		token   string
		want    Side
		wantErr bool
	}{
		{"B", Bid, false},
		{"S", Ask, false},
		{"bid", Bid, false},
		{"ask", Ask, false},
		{"SELL", Ask, false},
		{"", 0, true},
		{"X", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseSide(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSide(%q) expected error, got %v", tt.token, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSide(%q) error = %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseSide(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestSide_Better(t *testing.T) {
	if !Bid.Better(101, 100) {
		t.Error("Bid.Better(101, 100) = false, want true")
	}
	if Bid.Better(100, 101) {
		t.Error("Bid.Better(100, 101) = true, want false")
	}
	if !Ask.Better(100, 101) {
		t.Error("Ask.Better(100, 101) = false, want true")
	}
	if Ask.Better(100, 100) {
		t.Error("Ask.Better(100, 100) = true, want false")
	}
}

func TestKind_Tags(t *testing.T) {
	want := map[Kind]string{
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
	for k, tag := range want {
		if k.String() != tag {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), tag)
		}
		parsed, err := ParseKind(tag)
		if err != nil || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tag, parsed, err, k)
		}
	}
	if len(Kinds) != len(want) {
		t.Errorf("len(Kinds) = %d, want %d", len(Kinds), len(want))
	}
	if !VisibleFill.IsFill() || !HiddenFill.IsFill() || Cancel.IsFill() {
		t.Error("IsFill classification wrong")
	}
}

func TestPriceFromDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    Price
		wantErr bool
	}{
		{"172.45", 1724500, false},
		{"0.0001", 1, false},
		{"100", 1000000, false},
		{"172.12345", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PriceFromDecimal(decimal.RequireFromString(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Errorf("PriceFromDecimal(%s) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("PriceFromDecimal(%s) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("PriceFromDecimal(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	if s := Price(1724500).String(); s != "172.4500" {
		t.Errorf("Price.String() = %q, want 172.4500", s)
	}
}

func TestEvent_JSON(t *testing.T) {
	ts := FromTime(time.Date(2022, 8, 1, 13, 30, 0, 123456789, time.UTC))
	oid := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	ev := Event{
		Instrument: "AAPL",
		Side:       Ask,
		Price:      1724500,
		Size:       SizeOf(20),
		Kind:       VisibleFill,
		Timestamp:  ts,
	}
	ev.Attribute(Attribution{ParticipantID: 3, OrderID: oid})

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	line := string(data)
	for _, want := range []string{
		`"instrument":"AAPL"`,
		`"side":"S"`,
		`"price":"172.45"`,
		`"size":20`,
		`"kind":"visible_fill"`,
		`"hidden":false`,
		`"timestamp":"2022-08-01T13:30:00.123456789Z"`,
		`"participant_id":3`,
		`"order_id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("marshalled event %s missing %s", line, want)
		}
	}

	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if back.Price != ev.Price || back.Timestamp != ev.Timestamp || *back.Size != 20 {
		t.Errorf("round trip = %+v, want %+v", back, ev)
	}
}

func TestEvent_JSONNulls(t *testing.T) {
	ev := Event{Instrument: "AAPL", Side: Ask, Price: 1000000, Kind: MultiLevelSweep, Timestamp: 1}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	line := string(data)
	for _, want := range []string{`"size":null`, `"participant_id":null`, `"order_id":null`} {
		if !strings.Contains(line, want) {
			t.Errorf("marshalled event %s missing %s", line, want)
		}
	}
	if _, ok := ev.Attribution(); ok {
		t.Error("Attribution() ok = true for unattributed event")
	}
}
