package ledger

import (
	"github.com/google/uuid"

	"github.com/rickgao/iex-recon/internal/model"
)

// Order is a synthetic resting order.
type Order struct {
	ParticipantID int
	OrderID       uuid.UUID
	Remaining     int64
}

// Reduction is the result of consuming from the head of a queue.
type Reduction struct {
	Attribution model.Attribution
	Attributed  bool  // False when the queue was empty
	Consumed    int64 // Amount taken from the head order (the full request when unattributed)
	Exhausted   bool  // Head order was fully removed
}

type queueKey struct {
	instrument string
	side       model.Side
	price      model.Price
}

// queue is a FIFO of synthetic orders at one price.
type queue struct {
	orders []*Order
	sum    int64
}

func (q *queue) front() *Order {
	if len(q.orders) == 0 {
		return nil
	}
	return q.orders[0]
}

func (q *queue) popFront() {
	q.orders[0] = nil
	q.orders = q.orders[1:]
}

// Ledger holds every synthetic order queue.
type Ledger struct {
	queues       map[queueKey]*queue
	participants *Participants
	ids          IDSource
}

// New creates a ledger drawing participants and ids from the given sources.
func New(participants *Participants, ids IDSource) *Ledger {
	if participants == nil {
		participants = NewParticipants(DefaultPoolSize)
	}
	if ids == nil {
		ids = NewSequentialIDs(uuid.Nil)
	}
	return &Ledger{
		queues:       make(map[queueKey]*queue),
		participants: participants,
		ids:          ids,
	}
}

func (l *Ledger) queue(instrument string, side model.Side, price model.Price, create bool) *queue {
	key := queueKey{instrument, side, price}
	q, ok := l.queues[key]
	if !ok && create {
		q = &queue{}
		l.queues[key] = q
	}
	return q
}

func (l *Ledger) release(instrument string, side model.Side, price model.Price, q *queue) {
	if len(q.orders) == 0 {
		delete(l.queues, queueKey{instrument, side, price})
	}
}

// Push appends a new synthetic order of size to the queue and returns its
// attribution. size must be positive.
func (l *Ledger) Push(instrument string, side model.Side, price model.Price, size int64) model.Attribution {
	q := l.queue(instrument, side, price, true)
	o := &Order{
		ParticipantID: l.participants.Next(),
		OrderID:       l.ids.Next(),
		Remaining:     size,
	}
	q.orders = append(q.orders, o)
	q.sum += size
	return model.Attribution{ParticipantID: o.ParticipantID, OrderID: o.OrderID}
}

// ReduceFront consumes up to size from the head order only. A head with
// remaining <= size is removed. An empty queue yields an unattributed
// reduction with Consumed == size.
func (l *Ledger) ReduceFront(instrument string, side model.Side, price model.Price, size int64) Reduction {
	q := l.queue(instrument, side, price, false)
	if q == nil || q.front() == nil {
		return Reduction{Consumed: size}
	}

	head := q.front()
	r := Reduction{
		Attribution: model.Attribution{ParticipantID: head.ParticipantID, OrderID: head.OrderID},
		Attributed:  true,
	}
	if head.Remaining <= size {
		r.Consumed = head.Remaining
		r.Exhausted = true
		q.sum -= head.Remaining
		q.popFront()
		l.release(instrument, side, price, q)
	} else {
		r.Consumed = size
		head.Remaining -= size
		q.sum -= size
	}
	return r
}

// Reduce consumes size in FIFO order across as many head orders as needed.
// It returns the first order touched (if any) and the amount actually taken;
// a shortfall against an under-represented queue is dropped.
func (l *Ledger) Reduce(instrument string, side model.Side, price model.Price, size int64) (first model.Attribution, ok bool, taken int64) {
	for remaining := size; remaining > 0; {
		r := l.ReduceFront(instrument, side, price, remaining)
		if !r.Attributed {
			break
		}
		if !ok {
			first, ok = r.Attribution, true
		}
		taken += r.Consumed
		remaining -= r.Consumed
	}
	return first, ok, taken
}

// Drain removes every order at the price and returns the head's attribution
// and the total removed.
func (l *Ledger) Drain(instrument string, side model.Side, price model.Price) (first model.Attribution, ok bool, total int64) {
	q := l.queue(instrument, side, price, false)
	if q == nil || len(q.orders) == 0 {
		return model.Attribution{}, false, 0
	}
	head := q.orders[0]
	first = model.Attribution{ParticipantID: head.ParticipantID, OrderID: head.OrderID}
	total = q.sum
	delete(l.queues, queueKey{instrument, side, price})
	return first, true, total
}

// Sum returns the total remaining size queued at the price.
func (l *Ledger) Sum(instrument string, side model.Side, price model.Price) int64 {
	if q := l.queue(instrument, side, price, false); q != nil {
		return q.sum
	}
	return 0
}

// Len returns the number of orders queued at the price.
func (l *Ledger) Len(instrument string, side model.Side, price model.Price) int {
	if q := l.queue(instrument, side, price, false); q != nil {
		return len(q.orders)
	}
	return 0
}

// Orders returns a copy of the queue at the price, head first.
func (l *Ledger) Orders(instrument string, side model.Side, price model.Price) []Order {
	q := l.queue(instrument, side, price, false)
	if q == nil {
		return nil
	}
	out := make([]Order, len(q.orders))
	for i, o := range q.orders {
		out[i] = *o
	}
	return out
}
