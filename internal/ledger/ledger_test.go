package ledger

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rickgao/iex-recon/internal/model"
)

func newTestLedger(pool int) *Ledger {
	return New(NewParticipants(pool), NewSequentialIDs(uuid.Nil))
}

func TestLedger_PushAssignsAttribution(t *testing.T) {
	l := newTestLedger(10)

	a := l.Push("AAPL", model.Bid, 100, 50)
	b := l.Push("AAPL", model.Bid, 100, 25)

	if a.ParticipantID != 0 || b.ParticipantID != 1 {
		t.Errorf("participants = %d, %d; want 0, 1", a.ParticipantID, b.ParticipantID)
	}
	if a.OrderID == b.OrderID {
		t.Error("two pushes produced the same order id")
	}
	if got := l.Sum("AAPL", model.Bid, 100); got != 75 {
		t.Errorf("Sum = %d, want 75", got)
	}
	if got := l.Len("AAPL", model.Bid, 100); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestLedger_ReduceFront(t *testing.T) {
	tests := []struct {
		name          string
		queued        []int64
		reduce        int64
		wantConsumed  int64
		wantExhausted bool
		wantRemaining []int64
	}{
		{"partial head", []int64{10, 5}, 4, 4, false, []int64{6, 5}},
		{"exact head", []int64{10, 5}, 10, 10, true, []int64{5}},
		{"more than head touches head only", []int64{3, 5}, 4, 3, true, []int64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(10)
			var first model.Attribution
			for i, s := range tt.queued {
				a := l.Push("AAPL", model.Ask, 100, s)
				if i == 0 {
					first = a
				}
			}

			r := l.ReduceFront("AAPL", model.Ask, 100, tt.reduce)
			if !r.Attributed || r.Attribution != first {
				t.Errorf("Attribution = %+v (%v), want head %+v", r.Attribution, r.Attributed, first)
			}
			if r.Consumed != tt.wantConsumed {
				t.Errorf("Consumed = %d, want %d", r.Consumed, tt.wantConsumed)
			}
			if r.Exhausted != tt.wantExhausted {
				t.Errorf("Exhausted = %v, want %v", r.Exhausted, tt.wantExhausted)
			}
			orders := l.Orders("AAPL", model.Ask, 100)
			if len(orders) != len(tt.wantRemaining) {
				t.Fatalf("orders left = %d, want %d", len(orders), len(tt.wantRemaining))
			}
			for i, want := range tt.wantRemaining {
				if orders[i].Remaining != want {
					t.Errorf("order[%d].Remaining = %d, want %d", i, orders[i].Remaining, want)
				}
			}
		})
	}
}

func TestLedger_ReduceFrontEmpty(t *testing.T) {
	l := newTestLedger(10)
	r := l.ReduceFront("AAPL", model.Ask, 100, 30)
	if r.Attributed {
		t.Error("Attributed = true on empty queue")
	}
	if r.Consumed != 30 {
		t.Errorf("Consumed = %d, want 30", r.Consumed)
	}
}

// Two adds of 3 then 5 and a cancel of 4: the first is exhausted and the
// second drops to 4, never out of order.
func TestLedger_ReduceIsFIFO(t *testing.T) {
	l := newTestLedger(10)
	first := l.Push("AAPL", model.Bid, 100, 3)
	second := l.Push("AAPL", model.Bid, 100, 5)

	attr, ok, taken := l.Reduce("AAPL", model.Bid, 100, 4)
	if !ok || attr != first {
		t.Errorf("first attribution = %+v (%v), want %+v", attr, ok, first)
	}
	if taken != 4 {
		t.Errorf("taken = %d, want 4", taken)
	}

	orders := l.Orders("AAPL", model.Bid, 100)
	if len(orders) != 1 {
		t.Fatalf("orders left = %d, want 1", len(orders))
	}
	if orders[0].OrderID != second.OrderID || orders[0].Remaining != 4 {
		t.Errorf("remaining order = %+v, want %v with 4", orders[0], second.OrderID)
	}
}

func TestLedger_ReduceDropsShortfall(t *testing.T) {
	l := newTestLedger(10)
	l.Push("AAPL", model.Bid, 100, 3)

	_, ok, taken := l.Reduce("AAPL", model.Bid, 100, 10)
	if !ok || taken != 3 {
		t.Errorf("Reduce = (%v, %d), want (true, 3)", ok, taken)
	}
	if got := l.Sum("AAPL", model.Bid, 100); got != 0 {
		t.Errorf("Sum = %d, want 0", got)
	}

	_, ok, taken = l.Reduce("AAPL", model.Bid, 100, 10)
	if ok || taken != 0 {
		t.Errorf("Reduce on empty = (%v, %d), want (false, 0)", ok, taken)
	}
}

func TestLedger_Drain(t *testing.T) {
	l := newTestLedger(10)
	first := l.Push("AAPL", model.Ask, 100, 3)
	l.Push("AAPL", model.Ask, 100, 5)
	l.Push("AAPL", model.Ask, 101, 7)

	attr, ok, total := l.Drain("AAPL", model.Ask, 100)
	if !ok || attr != first || total != 8 {
		t.Errorf("Drain = (%+v, %v, %d), want (%+v, true, 8)", attr, ok, total, first)
	}
	if l.Len("AAPL", model.Ask, 100) != 0 {
		t.Error("queue not empty after Drain")
	}
	if l.Sum("AAPL", model.Ask, 101) != 7 {
		t.Error("Drain touched another price")
	}

	if _, ok, _ := l.Drain("AAPL", model.Ask, 100); ok {
		t.Error("second Drain reported ok")
	}
}

func TestLedger_QueuesArePartitioned(t *testing.T) {
	l := newTestLedger(10)
	l.Push("AAPL", model.Bid, 100, 1)
	l.Push("AAPL", model.Ask, 100, 2)
	l.Push("MSFT", model.Bid, 100, 3)

	if l.Sum("AAPL", model.Bid, 100) != 1 || l.Sum("AAPL", model.Ask, 100) != 2 || l.Sum("MSFT", model.Bid, 100) != 3 {
		t.Error("queues leaked across instrument or side")
	}
}

func TestParticipants_RoundRobinSharedAcrossQueues(t *testing.T) {
	const pool = 4
	l := newTestLedger(pool)

	instruments := []string{"AAPL", "MSFT"}
	seen := make(map[int]bool)
	var ids []int
	for i := 0; i < 2*pool; i++ {
		a := l.Push(instruments[i%2], model.Sides[i%2], model.Price(100+i), 1)
		ids = append(ids, a.ParticipantID)
		if i < pool {
			seen[a.ParticipantID] = true
		}
	}

	if len(seen) != pool {
		t.Errorf("distinct ids in first cycle = %d, want %d", len(seen), pool)
	}
	for i := 0; i < pool; i++ {
		if ids[i] != ids[i+pool] {
			t.Errorf("ids[%d] = %d, ids[%d] = %d; want cycle to repeat", i, ids[i], i+pool, ids[i+pool])
		}
	}
}

func TestParticipants_DefaultSize(t *testing.T) {
	if p := NewParticipants(0); p.Size() != DefaultPoolSize {
		t.Errorf("Size() = %d, want %d", p.Size(), DefaultPoolSize)
	}
}

func TestSequentialIDs_Deterministic(t *testing.T) {
	a := NewSequentialIDs(uuid.Nil)
	b := NewSequentialIDs(uuid.Nil)
	for i := 0; i < 5; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("id %d differs: %v vs %v", i, x, y)
		}
	}

	other := NewSequentialIDs(uuid.NameSpaceDNS)
	if other.Next() == NewSequentialIDs(uuid.Nil).Next() {
		t.Error("different namespaces produced the same first id")
	}
}

func TestRandomIDs_Unique(t *testing.T) {
	var ids RandomIDs
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		if seen[id] {
			t.Fatalf("duplicate id %v", id)
		}
		seen[id] = true
	}
}
