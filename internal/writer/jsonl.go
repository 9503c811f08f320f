package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rickgao/iex-recon/internal/model"
)

// JSONLWriter writes one JSON event per line.
type JSONLWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	closed bool
	count  int64
}

// NewJSONLWriter creates (or truncates) path. "-" writes to stdout.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if path == "-" {
		return NewJSONLWriterTo(os.Stdout, nil), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return NewJSONLWriterTo(f, f), nil
}

// NewJSONLWriterTo writes to w. closer, if set, is closed by Close.
func NewJSONLWriterTo(w io.Writer, closer io.Closer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{buf: buf, enc: enc, closer: closer}
}

// Write encodes events in order.
func (w *JSONLWriter) Write(_ context.Context, events []model.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	for _, ev := range events {
		if err := w.enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		w.count++
	}
	return nil
}

// Count returns the number of events written.
func (w *JSONLWriter) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered output and closes the underlying file.
func (w *JSONLWriter) Close(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
