package sweep

import (
	"testing"
	"time"

	"github.com/rickgao/iex-recon/internal/model"
)

const ms = model.Timestamp(time.Millisecond)

func TestDetector_MultiPriceBurst(t *testing.T) {
	d := NewDetector(DefaultWindow)

	if got := d.Observe("AAPL", model.Ask, 100, 0); len(got) != 0 {
		t.Errorf("first trade produced %d annotations, want 0", len(got))
	}

	got := d.Observe("AAPL", model.Ask, 101, 1*ms)
	if len(got) != 2 {
		t.Fatalf("second trade produced %d annotations, want 2", len(got))
	}

	got = d.Observe("AAPL", model.Ask, 100, 2*ms)
	if len(got) != 3 {
		t.Fatalf("third trade produced %d annotations, want 3", len(got))
	}
	wantPrices := []model.Price{100, 101, 100}
	wantTS := []model.Timestamp{0, 1 * ms, 2 * ms}
	for i, ev := range got {
		if ev.Kind != model.MultiLevelSweep {
			t.Errorf("annotation[%d].Kind = %v, want multi_level_sweep", i, ev.Kind)
		}
		if ev.Price != wantPrices[i] || ev.Timestamp != wantTS[i] {
			t.Errorf("annotation[%d] = (%d, %d), want (%d, %d)", i, ev.Price, ev.Timestamp, wantPrices[i], wantTS[i])
		}
		if ev.Size != nil || ev.ParticipantID != nil || ev.OrderID != nil || ev.Hidden {
			t.Errorf("annotation[%d] carries size/attribution/hidden: %+v", i, ev)
		}
	}
}

func TestDetector_SinglePriceNoSweep(t *testing.T) {
	d := NewDetector(DefaultWindow)
	for i := 0; i < 5; i++ {
		if got := d.Observe("AAPL", model.Ask, 100, model.Timestamp(i)*ms); len(got) != 0 {
			t.Fatalf("trade %d produced %d annotations, want 0", i, len(got))
		}
	}
}

func TestDetector_Eviction(t *testing.T) {
	d := NewDetector(DefaultWindow)
	d.Observe("AAPL", model.Ask, 100, 0)

	// Exactly at the window edge the old record is kept.
	if got := d.Observe("AAPL", model.Ask, 101, 5*ms); len(got) != 2 {
		t.Errorf("trade at window edge produced %d annotations, want 2", len(got))
	}

	d2 := NewDetector(DefaultWindow)
	d2.Observe("AAPL", model.Ask, 100, 0)
	if got := d2.Observe("AAPL", model.Ask, 101, 5*ms+1); len(got) != 0 {
		t.Errorf("trade past the window produced %d annotations, want 0", len(got))
	}
	if n := len(d2.Recent("AAPL")); n != 1 {
		t.Errorf("Recent len = %d, want 1 after eviction", n)
	}
}

func TestDetector_FiltersBySide(t *testing.T) {
	d := NewDetector(DefaultWindow)
	d.Observe("AAPL", model.Bid, 99, 0)
	if got := d.Observe("AAPL", model.Ask, 100, 1*ms); len(got) != 0 {
		t.Errorf("cross-side trades produced %d annotations, want 0", len(got))
	}
	if n := len(d.Recent("AAPL")); n != 2 {
		t.Errorf("Recent len = %d, want 2 (eviction is not per side)", n)
	}
}

func TestDetector_PerInstrument(t *testing.T) {
	d := NewDetector(DefaultWindow)
	d.Observe("AAPL", model.Ask, 100, 0)
	if got := d.Observe("MSFT", model.Ask, 101, 1*ms); len(got) != 0 {
		t.Errorf("cross-instrument trades produced %d annotations, want 0", len(got))
	}
}

func TestDetector_DefaultWindow(t *testing.T) {
	if w := NewDetector(0).Window(); w != DefaultWindow {
		t.Errorf("Window() = %v, want %v", w, DefaultWindow)
	}
}
