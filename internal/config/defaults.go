package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSweepWindow         = 5 * time.Millisecond
	DefaultTradeMatchWindow    = 1 * time.Millisecond
	DefaultParticipantPoolSize = 10
	DefaultSource              = SourceFile
	DefaultInstrumentFilter    = "all"
	DefaultMaxInputRecords     = 100000
	DefaultOutputOrder         = OrderInstrument
	DefaultSnapshotDepth       = 10
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultBatchSize           = 1000
	DefaultFlushInterval       = 1 * time.Second
	DefaultBufferSize          = 10000
	DefaultMetricsPort         = 9090
	DefaultMetricsPath         = "/metrics"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

func (c *Config) applyDefaults() {
	// Engine defaults
	if c.Engine.SweepWindow == 0 {
		c.Engine.SweepWindow = DefaultSweepWindow
	}
	if c.Engine.TradeMatchWindow == 0 {
		c.Engine.TradeMatchWindow = DefaultTradeMatchWindow
	}
	if c.Engine.ParticipantPoolSize == 0 {
		c.Engine.ParticipantPoolSize = DefaultParticipantPoolSize
	}

	// Input defaults
	if c.Input.Source == "" {
		c.Input.Source = DefaultSource
	}
	if c.Input.InstrumentFilter == "" {
		c.Input.InstrumentFilter = DefaultInstrumentFilter
	}
	if c.Input.MaxInputRecords == 0 {
		c.Input.MaxInputRecords = DefaultMaxInputRecords
	}

	// Output defaults
	if c.Output.Order == "" {
		c.Output.Order = DefaultOutputOrder
	}
	if c.Output.SnapshotDepth == 0 {
		c.Output.SnapshotDepth = DefaultSnapshotDepth
	}
	applyDBDefaults(&c.Output.Database.DBConfig)

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}
	if c.Writers.BufferSize == 0 {
		c.Writers.BufferSize = DefaultBufferSize
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
