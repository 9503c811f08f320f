package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rickgao/iex-recon/internal/config"
	"github.com/rickgao/iex-recon/internal/connection"
	"github.com/rickgao/iex-recon/internal/database"
	"github.com/rickgao/iex-recon/internal/engine"
	"github.com/rickgao/iex-recon/internal/feed"
	"github.com/rickgao/iex-recon/internal/ledger"
	"github.com/rickgao/iex-recon/internal/metrics"
	"github.com/rickgao/iex-recon/internal/pipeline"
	"github.com/rickgao/iex-recon/internal/version"
	"github.com/rickgao/iex-recon/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	input := flag.String("input", "", "JSON-lines input file, .gz, or - for stdin")
	instrument := flag.String("instrument", "", "reconstruct only this symbol")
	all := flag.Bool("all", false, "reconstruct every symbol")
	maxRecords := flag.Int64("max-records", -1, "stop after this many input records (0 = unlimited)")
	out := flag.String("out", "", "output path (- for stdout)")
	order := flag.String("order", "", "output order: instrument or arrival")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadWithDefaults(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to load config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override the file.
	if *input != "" {
		cfg.Input.Source = config.SourceFile
		cfg.Input.Path = *input
	}
	if *instrument != "" {
		cfg.Input.InstrumentFilter = strings.ToUpper(*instrument)
	}
	if *all {
		cfg.Input.InstrumentFilter = feed.AllInstruments
	}
	if *maxRecords >= 0 {
		cfg.Input.MaxInputRecords = *maxRecords
	}
	if *out != "" {
		cfg.Output.Path = *out
	}
	if *order != "" {
		cfg.Output.Order = *order
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		flag.Usage()
		os.Exit(2)
	}

	// Events may go to stdout, so logs always go to stderr.
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting reconstruct",
		"version", version.Version,
		"commit", version.Commit,
		"source", cfg.Input.Source,
		"instrument_filter", cfg.Input.InstrumentFilter,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("reconstruct failed", "error", err)
		os.Exit(1)
	}
	logger.Info("reconstruct stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	filter := feed.NewFilter(cfg.Input.InstrumentFilter)
	runID := uuid.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	eng := engine.New(engineOptions(cfg.Engine, logger, m)...)

	src, err := newSource(cfg.Input, filter, logger)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	// The database comes first so a failed connection leaves no empty
	// output file behind.
	var checks []metrics.Check
	if cfg.Output.Database.Enabled {
		pool, err := connectDatabase(ctx, cfg.Output.Database.DBConfig, "reconstruct "+runID.String(), logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		wcfg := writer.WriterConfig{
			BatchSize:     cfg.Writers.BatchSize,
			FlushInterval: cfg.Writers.FlushInterval,
		}
		opts = append(opts,
			pipeline.WithOutput("postgres", writer.NewPGWriter(wcfg, runID, pool, logger)),
			pipeline.WithSnapshotWriter(writer.NewSnapshotWriter(runID, pool, logger)),
		)
		checks = append(checks, metrics.Check{Name: "postgres", Fn: pool.Ping})
	}

	outPath := cfg.Output.Path
	if outPath == "" {
		outPath = writer.DefaultOutputPath(filter.Instrument())
	}
	jsonl, err := writer.NewJSONLWriter(outPath)
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithOutput("jsonl", jsonl))

	runner := pipeline.NewRunner(pipeline.Config{
		BufferSize:    cfg.Writers.BufferSize,
		BatchSize:     cfg.Writers.BatchSize,
		Order:         cfg.Output.Order,
		SnapshotDepth: cfg.Output.SnapshotDepth,
	}, src, feed.NewDecoder(filter), eng, logger, opts...)

	if cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metrics.NewHandler(reg, cfg.Metrics.Path, func() any { return runner.Progress() }, checks...),
		}
		go func() {
			logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("reconstruction running", "run_id", runID, "output", outPath, "order", cfg.Output.Order)
	start := time.Now()

	summary, err := runner.Run(ctx)

	stats := eng.Stats()
	attrs := []any{
		"run_id", runID,
		"lines", summary.Lines,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"filtered", summary.Filtered,
		"events", summary.Events,
		"last_line", summary.LastLine,
		"instruments", len(eng.Books().Instruments()),
		"elapsed", time.Since(start).Round(time.Millisecond),
	}
	for kind, n := range stats.EventsByKind {
		attrs = append(attrs, "events_"+kind.String(), n)
	}
	logger.Info("reconstruction summary", attrs...)
	return err
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func engineOptions(cfg config.EngineConfig, logger *slog.Logger, m *metrics.Metrics) []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithSweepWindow(cfg.SweepWindow),
		engine.WithTradeMatchWindow(cfg.TradeMatchWindow),
		engine.WithParticipantPool(cfg.ParticipantPoolSize),
	}
	switch {
	case cfg.RandomOrderIDs:
		opts = append(opts, engine.WithIDSource(ledger.RandomIDs{}))
	case cfg.OrderIDNamespace != "":
		// Validated by config.
		ns := uuid.MustParse(cfg.OrderIDNamespace)
		opts = append(opts, engine.WithIDSource(ledger.NewSequentialIDs(ns)))
	}
	return opts
}

func newSource(cfg config.InputConfig, filter feed.Filter, logger *slog.Logger) (feed.Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return feed.NewFileSource(feed.FileSourceConfig{
			Path:       cfg.Path,
			MaxRecords: cfg.MaxInputRecords,
		}, logger), nil

	case config.SourceWS:
		symbols := cfg.Symbols
		if len(symbols) == 0 && !filter.All() {
			symbols = []string{filter.Instrument()}
		}
		ccfg := connection.DefaultClientConfig()
		ccfg.URL = cfg.WSURL
		ccfg.Token = cfg.WSToken
		client := connection.NewClient(ccfg, logger)
		return feed.NewWSSource(feed.WSSourceConfig{
			Symbols:    symbols,
			MaxRecords: cfg.MaxInputRecords,
		}, client, logger), nil

	default:
		return nil, fmt.Errorf("unknown input source %q", cfg.Source)
	}
}

func connectDatabase(ctx context.Context, cfg config.DBConfig, appName string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)
	pool, err := database.Connect(ctx, cfg, appName)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database connected")
	return pool, nil
}
