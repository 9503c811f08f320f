package config

import "time"

// Config is the root configuration for a reconstruction run.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Writers WritersConfig `yaml:"writers"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig holds classifier settings.
type EngineConfig struct {
	SweepWindow         time.Duration `yaml:"sweep_window"`
	TradeMatchWindow    time.Duration `yaml:"trade_match_window"`
	ParticipantPoolSize int           `yaml:"participant_pool_size"`
	OrderIDNamespace    string        `yaml:"order_id_namespace"` // UUID; empty = built-in namespace
	RandomOrderIDs      bool          `yaml:"random_order_ids"`   // Non-reproducible v4 ids
}

// Input source kinds.
const (
	SourceFile = "file"
	SourceWS   = "ws"
)

// InputConfig selects where decoded records come from.
type InputConfig struct {
	Source           string   `yaml:"source"` // "file" or "ws"
	Path             string   `yaml:"path"`   // JSON-lines file, ".gz" or "-" for stdin
	WSURL            string   `yaml:"ws_url"`
	WSToken          string   `yaml:"ws_token"`
	Symbols          []string `yaml:"symbols"`           // Relay subscription (defaults to the filter)
	InstrumentFilter string   `yaml:"instrument_filter"` // Symbol or "all"
	MaxInputRecords  int64    `yaml:"max_input_records"` // 0 = unlimited
}

// Output event orderings.
const (
	OrderInstrument = "instrument" // Grouped by instrument, first-seen order
	OrderArrival    = "arrival"    // Emission order across instruments
)

// OutputConfig controls where events go.
type OutputConfig struct {
	Path          string         `yaml:"path"` // Empty = <instrument>_events.txt / all_events.txt; "-" = stdout
	Order         string         `yaml:"order"`
	SnapshotDepth int            `yaml:"snapshot_depth"` // Levels per side in end-of-run snapshots
	Database      DatabaseConfig `yaml:"database"`
}

// DatabaseConfig enables the PostgreSQL event store.
type DatabaseConfig struct {
	Enabled  bool `yaml:"enabled"`
	DBConfig `yaml:",inline"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"` // Records buffered between source and engine
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
