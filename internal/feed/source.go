package feed

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/iex-recon/internal/connection"
)

// Raw is one undecoded record and its position in the input.
type Raw struct {
	Seq        int64     // 1-based input position (line number for files)
	Data       []byte    // Raw JSON bytes
	ReceivedAt time.Time // Local read time
}

// Source produces raw records in input order. Run sends on out until the
// input is exhausted, the record limit is reached, or ctx is done; it does
// not close out. A returned error is fatal to the run.
type Source interface {
	Run(ctx context.Context, out chan<- Raw) error
}

// maxLineSize bounds a single JSON line.
const maxLineSize = 4 * 1024 * 1024

// FileSourceConfig configures a FileSource.
type FileSourceConfig struct {
	Path       string // JSON-lines file; ".gz" is decompressed; "-" reads stdin
	MaxRecords int64  // Stop after this many lines (0 = unlimited)
}

// FileSource reads decoded records from a JSON-lines file.
type FileSource struct {
	cfg    FileSourceConfig
	logger *slog.Logger
	stdin  io.Reader
}

// NewFileSource creates a file source.
func NewFileSource(cfg FileSourceConfig, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{cfg: cfg, logger: logger, stdin: os.Stdin}
}

// Run reads the file line by line. Every line counts toward MaxRecords,
// including lines that later fail to decode.
func (s *FileSource) Run(ctx context.Context, out chan<- Raw) error {
	r, closeFn, err := s.open()
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var seq int64
	for scanner.Scan() {
		if s.cfg.MaxRecords > 0 && seq >= s.cfg.MaxRecords {
			s.logger.Info("record limit reached", "path", s.cfg.Path, "max_records", s.cfg.MaxRecords)
			return nil
		}
		seq++

		line := scanner.Bytes()
		data := make([]byte, len(line))
		copy(data, line)

		select {
		case out <- Raw{Seq: seq, Data: data, ReceivedAt: time.Now()}:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s after line %d: %w", s.cfg.Path, seq, err)
	}

	s.logger.Debug("input exhausted", "path", s.cfg.Path, "lines", seq)
	return nil
}

func (s *FileSource) open() (io.Reader, func(), error) {
	if s.cfg.Path == "-" {
		return s.stdin, func() {}, nil
	}

	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	if !strings.HasSuffix(s.cfg.Path, ".gz") {
		return f, func() { f.Close() }, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open gzip input %s: %w", s.cfg.Path, err)
	}
	return gz, func() {
		gz.Close()
		f.Close()
	}, nil
}

// WSSourceConfig configures a WSSource.
type WSSourceConfig struct {
	Symbols    []string // Subscribe to these symbols (empty = no subscribe command)
	MaxRecords int64    // Stop after this many frames (0 = unlimited)
}

// WSSource reads decoded records from a WebSocket relay, one per frame.
type WSSource struct {
	cfg    WSSourceConfig
	client connection.Client
	logger *slog.Logger
}

// NewWSSource creates a relay source over client. Run connects it.
func NewWSSource(cfg WSSourceConfig, client connection.Client, logger *slog.Logger) *WSSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSSource{cfg: cfg, client: client, logger: logger}
}

// Run connects, subscribes and forwards frames until the relay closes the
// connection, the frame limit is reached, or ctx is done. A normal close
// ends the run cleanly; any other read failure is returned.
func (s *WSSource) Run(ctx context.Context, out chan<- Raw) error {
	if err := s.client.Connect(ctx); err != nil {
		return err
	}
	defer s.client.Close()

	if len(s.cfg.Symbols) > 0 {
		if err := s.client.Subscribe(s.cfg.Symbols); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		s.logger.Info("subscribed to relay", "symbols", s.cfg.Symbols)
	}

	var seq int64
	for {
		select {
		case <-ctx.Done():
			return nil

		case f, ok := <-s.client.Frames():
			if !ok {
				// Frames closes only after every frame read before the
				// failure has been delivered.
				return s.classify(s.client.Err(), seq)
			}
			seq++
			select {
			case out <- Raw{Seq: seq, Data: f.Data, ReceivedAt: f.ReceivedAt}:
			case <-ctx.Done():
				return nil
			}
			if s.cfg.MaxRecords > 0 && seq >= s.cfg.MaxRecords {
				s.logger.Info("record limit reached", "max_records", s.cfg.MaxRecords)
				return nil
			}
		}
	}
}

func (s *WSSource) classify(err error, seq int64) error {
	if err == nil {
		return nil
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) && (ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway) {
		s.logger.Info("relay closed connection", "frames", seq)
		return nil
	}
	return fmt.Errorf("relay read after frame %d: %w", seq, err)
}
