package config

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Engine.SweepWindow <= 0 {
		return errors.New("engine.sweep_window must be positive")
	}
	if c.Engine.TradeMatchWindow <= 0 {
		return errors.New("engine.trade_match_window must be positive")
	}
	if c.Engine.ParticipantPoolSize < 1 {
		return errors.New("engine.participant_pool_size must be >= 1")
	}
	if c.Engine.OrderIDNamespace != "" {
		if _, err := uuid.Parse(c.Engine.OrderIDNamespace); err != nil {
			return fmt.Errorf("engine.order_id_namespace must be a UUID: %w", err)
		}
	}

	switch c.Input.Source {
	case SourceFile:
		if c.Input.Path == "" {
			return errors.New("input.path is required for file input")
		}
	case SourceWS:
		if c.Input.WSURL == "" {
			return errors.New("input.ws_url is required for ws input")
		}
	default:
		return fmt.Errorf("input.source must be %q or %q, got %q", SourceFile, SourceWS, c.Input.Source)
	}
	if c.Input.MaxInputRecords < 0 {
		return errors.New("input.max_input_records must be >= 0")
	}

	if c.Output.Order != OrderInstrument && c.Output.Order != OrderArrival {
		return fmt.Errorf("output.order must be %q or %q, got %q", OrderInstrument, OrderArrival, c.Output.Order)
	}
	if c.Output.SnapshotDepth < 0 {
		return errors.New("output.snapshot_depth must be >= 0")
	}
	if c.Output.Database.Enabled {
		if err := c.Output.Database.DBConfig.validate("output.database"); err != nil {
			return err
		}
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}
	if c.Writers.BufferSize < 1 {
		return errors.New("writers.buffer_size must be >= 1")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
