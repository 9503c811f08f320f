package ledger

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// DefaultNamespace seeds SequentialIDs when no namespace is configured.
var DefaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("iex-recon/synthetic-orders"))

// IDSource produces unique synthetic order ids.
type IDSource interface {
	Next() uuid.UUID
}

// SequentialIDs derives name-based UUIDs from a namespace and a counter, so a
// rerun over the same input yields the same ids.
type SequentialIDs struct {
	namespace uuid.UUID
	seq       uint64
}

// NewSequentialIDs creates a deterministic id source under namespace.
func NewSequentialIDs(namespace uuid.UUID) *SequentialIDs {
	if namespace == uuid.Nil {
		namespace = DefaultNamespace
	}
	return &SequentialIDs{namespace: namespace}
}

// Next returns the id for the next sequence number.
func (s *SequentialIDs) Next() uuid.UUID {
	s.seq++
	var name [8]byte
	binary.BigEndian.PutUint64(name[:], s.seq)
	return uuid.NewSHA1(s.namespace, name[:])
}

// RandomIDs returns random (v4) UUIDs.
type RandomIDs struct{}

// Next returns a random id.
func (RandomIDs) Next() uuid.UUID {
	return uuid.New()
}
