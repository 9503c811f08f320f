package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("client closed")
	ErrStale        = errors.New("relay stale")
)

// Frame is one relay frame and its local receive time.
type Frame struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local time ReadMessage returned
}

// SubscribeCommand asks the relay to stream a set of symbols. An empty
// Symbols list subscribes to everything.
type SubscribeCommand struct {
	Action  string   `json:"action"` // "subscribe"
	Symbols []string `json:"symbols,omitempty"`
}

// ClientConfig configures a relay client.
type ClientConfig struct {
	URL          string        // Relay URL (e.g., ws://localhost:8765/deep)
	Token        string        // Bearer token for the Authorization header (empty = no auth)
	ReadTimeout  time.Duration // Max silence from the relay before the connection is stale (0 = none)
	PingInterval time.Duration // Interval between keepalive pings (0 = no pings); keep below ReadTimeout
	WriteTimeout time.Duration // Write deadline for commands and control frames
	BufferSize   int           // Frames buffered ahead of the consumer
	MaxFrameSize int64         // Largest accepted frame in bytes (0 = unlimited)
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReadTimeout:  60 * time.Second,
		PingInterval: 20 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
		MaxFrameSize: 4 * 1024 * 1024,
	}
}
