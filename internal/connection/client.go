package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a single connection to a feed relay.
type Client interface {
	// Connect dials the relay and starts reading.
	Connect(ctx context.Context) error

	// Subscribe sends a subscribe command for symbols.
	Subscribe(symbols []string) error

	// Frames returns frames in arrival order. It is closed when reading
	// stops, after the last frame read.
	Frames() <-chan Frame

	// Err reports why reading stopped. It is nil while reading and after
	// Close.
	Err() error

	// Close sends a close frame and tears the connection down.
	Close() error
}

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once

	// writeMu serializes data frames; control frames may be written
	// concurrently.
	writeMu sync.Mutex

	mu   sync.Mutex
	conn *websocket.Conn
	err  error
}

// NewClient creates a relay client. Connect must be called before use.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, cfg.BufferSize),
		done:   make(chan struct{}),
	}
}

func (c *client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed() {
		return ErrClosed
	}
	if c.conn != nil {
		return errors.New("already connected")
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	if c.cfg.MaxFrameSize > 0 {
		conn.SetReadLimit(c.cfg.MaxFrameSize)
	}
	c.extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		c.extendDeadline(conn)
		return nil
	})
	conn.SetPingHandler(func(data string) error {
		c.extendDeadline(conn)
		err := conn.WriteControl(websocket.PongMessage, []byte(data), c.writeDeadline())
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	c.conn = conn
	go c.readLoop(conn)
	go c.pingLoop(conn)

	c.logger.Debug("relay connected", "url", c.cfg.URL)
	return nil
}

func (c *client) extendDeadline(conn *websocket.Conn) {
	if c.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
}

// writeDeadline returns the deadline for the next write; zero means none.
func (c *client) writeDeadline() time.Time {
	if c.cfg.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.cfg.WriteTimeout)
}

func (c *client) Subscribe(symbols []string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	switch {
	case c.closed():
		return ErrClosed
	case conn == nil:
		return ErrNotConnected
	}

	data, err := json.Marshal(SubscribeCommand{Action: "subscribe", Symbols: symbols})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(c.writeDeadline())
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) Frames() <-chan Frame {
	return c.frames
}

func (c *client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			c.writeDeadline(),
		)
		err = conn.Close()
	})
	return err
}

// readLoop delivers frames until the connection fails or Close is called.
// A full buffer blocks the loop; frames are never dropped.
func (c *client) readLoop(conn *websocket.Conn) {
	defer close(c.frames)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		f := Frame{Data: data, ReceivedAt: time.Now()}
		c.extendDeadline(conn)

		select {
		case c.frames <- f:
		case <-c.done:
			return
		}
	}
}

// fail records a read error unless the client was closed locally.
func (c *client) fail(err error) {
	if c.closed() {
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		err = fmt.Errorf("%w: no traffic for %s: %w", ErrStale, c.cfg.ReadTimeout, err)
		c.logger.Warn("relay stale", "timeout", c.cfg.ReadTimeout)
	}

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// pingLoop sends keepalive pings. A failed ping ends the loop; the read
// deadline then reports the dead connection.
func (c *client) pingLoop(conn *websocket.Conn) {
	if c.cfg.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, c.writeDeadline()); err != nil {
				c.logger.Debug("keepalive ping failed", "error", err)
				return
			}
		}
	}
}
