package ledger

// DefaultPoolSize is the number of synthetic participant slots.
const DefaultPoolSize = 10

// Participants hands out participant ids round-robin over a fixed pool.
// One allocator is shared by every instrument and side.
type Participants struct {
	size int
	next int
}

// NewParticipants creates an allocator over size slots (ids 0..size-1).
func NewParticipants(size int) *Participants {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &Participants{size: size}
}

// Next returns the next participant id and advances the counter.
func (p *Participants) Next() int {
	id := p.next
	p.next = (p.next + 1) % p.size
	return id
}

// Size returns the pool size.
func (p *Participants) Size() int {
	return p.size
}
