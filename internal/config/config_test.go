package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
engine:
  sweep_window: 10ms
  trade_match_window: 500us
  participant_pool_size: 4
input:
  source: file
  path: /data/20220801_iexdata.txt.gz
  instrument_filter: AAPL
  max_input_records: 5000
output:
  path: aapl.jsonl
  order: arrival
  database:
    enabled: true
    host: localhost
    port: 5433
    name: recon
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.SweepWindow != 10*time.Millisecond {
		t.Errorf("Engine.SweepWindow = %v, want 10ms", cfg.Engine.SweepWindow)
	}
	if cfg.Engine.TradeMatchWindow != 500*time.Microsecond {
		t.Errorf("Engine.TradeMatchWindow = %v, want 500us", cfg.Engine.TradeMatchWindow)
	}
	if cfg.Input.InstrumentFilter != "AAPL" {
		t.Errorf("Input.InstrumentFilter = %q, want %q", cfg.Input.InstrumentFilter, "AAPL")
	}
	if cfg.Input.MaxInputRecords != 5000 {
		t.Errorf("Input.MaxInputRecords = %d, want 5000", cfg.Input.MaxInputRecords)
	}
	if cfg.Output.Order != OrderArrival {
		t.Errorf("Output.Order = %q, want %q", cfg.Output.Order, OrderArrival)
	}
	if !cfg.Output.Database.Enabled || cfg.Output.Database.Host != "localhost" || cfg.Output.Database.Port != 5433 {
		t.Errorf("Output.Database = %+v", cfg.Output.Database)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_FEED", "/data/feed.txt")

	yaml := `
input:
  path: ${TEST_FEED}
output:
  database:
    enabled: true
    host: localhost
    name: recon
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Output.Database.Password != "secret123" {
		t.Errorf("Output.Database.Password = %q, want %q", cfg.Output.Database.Password, "secret123")
	}
	if cfg.Input.Path != "/data/feed.txt" {
		t.Errorf("Input.Path = %q, want %q", cfg.Input.Path, "/data/feed.txt")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
input:
  path: feed.txt
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Engine.SweepWindow != DefaultSweepWindow {
		t.Errorf("Engine.SweepWindow = %v, want default %v", cfg.Engine.SweepWindow, DefaultSweepWindow)
	}
	if cfg.Engine.TradeMatchWindow != DefaultTradeMatchWindow {
		t.Errorf("Engine.TradeMatchWindow = %v, want default %v", cfg.Engine.TradeMatchWindow, DefaultTradeMatchWindow)
	}
	if cfg.Engine.ParticipantPoolSize != DefaultParticipantPoolSize {
		t.Errorf("Engine.ParticipantPoolSize = %d, want default %d", cfg.Engine.ParticipantPoolSize, DefaultParticipantPoolSize)
	}
	if cfg.Input.Source != SourceFile {
		t.Errorf("Input.Source = %q, want default %q", cfg.Input.Source, SourceFile)
	}
	if cfg.Input.InstrumentFilter != DefaultInstrumentFilter {
		t.Errorf("Input.InstrumentFilter = %q, want default %q", cfg.Input.InstrumentFilter, DefaultInstrumentFilter)
	}
	if cfg.Input.MaxInputRecords != DefaultMaxInputRecords {
		t.Errorf("Input.MaxInputRecords = %d, want default %d", cfg.Input.MaxInputRecords, DefaultMaxInputRecords)
	}
	if cfg.Output.Database.Port != DefaultDBPort {
		t.Errorf("Output.Database.Port = %d, want default %d", cfg.Output.Database.Port, DefaultDBPort)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoadAndValidate_Invalid(t *testing.T) {
	path := writeTempFile(t, "input:\n  source: kafka\n")

	_, err := LoadAndValidate(path)
	if err == nil || !strings.Contains(err.Error(), "input.source") {
		t.Errorf("LoadAndValidate() error = %v, want input.source failure", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() on a missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Input.Path = "feed.txt"
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing input path",
			mutate:  func(c *Config) { c.Input.Path = "" },
			wantErr: "input.path is required for file input",
		},
		{
			name:    "ws without url",
			mutate:  func(c *Config) { c.Input.Source = SourceWS },
			wantErr: "input.ws_url is required for ws input",
		},
		{
			name:    "zero pool",
			mutate:  func(c *Config) { c.Engine.ParticipantPoolSize = 0 },
			wantErr: "engine.participant_pool_size must be >= 1",
		},
		{
			name:    "negative sweep window",
			mutate:  func(c *Config) { c.Engine.SweepWindow = -time.Millisecond },
			wantErr: "engine.sweep_window must be positive",
		},
		{
			name:    "bad output order",
			mutate:  func(c *Config) { c.Output.Order = "random" },
			wantErr: `output.order must be "instrument" or "arrival", got "random"`,
		},
		{
			name: "missing database password",
			mutate: func(c *Config) {
				c.Output.Database.Enabled = true
				c.Output.Database.Host = "localhost"
				c.Output.Database.Name = "recon"
				c.Output.Database.User = "user"
			},
			wantErr: "output.database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Output.Database = DatabaseConfig{
					Enabled:  true,
					DBConfig: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				}
			},
			wantErr: "output.database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "disabled database is not validated",
			mutate:  func(c *Config) { c.Output.Database = DatabaseConfig{} },
			wantErr: "",
		},
		{
			name:    "bad metrics port",
			mutate:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level must be one of debug, info, warn, error, got "trace"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidate_Namespace(t *testing.T) {
	cfg := Default()
	cfg.Input.Path = "feed.txt"
	cfg.Engine.OrderIDNamespace = "not-a-uuid"
	if err := cfg.Validate(); err == nil || !strings.HasPrefix(err.Error(), "engine.order_id_namespace") {
		t.Errorf("Validate() error = %v, want order_id_namespace failure", err)
	}

	cfg.Engine.OrderIDNamespace = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
