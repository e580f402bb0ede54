package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/livinlefevreloca/bulkbench/internal/config"
	"github.com/livinlefevreloca/bulkbench/internal/runner"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file (TOML)")
	dsn := flag.String("dsn", "", "Database DSN (overrides config)")
	mode := flag.String("mode", "", "Workload mode: insert, update or full")
	insertStrategy := flag.String("insert-strategy", "", "Insert strategy: parameterized, streaming or compare")
	updateStrategy := flag.String("update-strategy", "", "Update strategy: range, keyed, staging-join or compare")
	records := flag.Int("records", 0, "Number of records to insert")
	insertBatch := flag.Int("insert-batch", 0, "Rows per insert batch")
	updateBatch := flag.Int("update-batch", 0, "Ids per update batch")
	limitRows := flag.Int64("limit-rows", -1, "Bound the update interval to this many ids (0 = whole relation)")
	seed := flag.Int64("seed", -1, "Generator seed (0 = time-derived)")
	appendRows := flag.Bool("append", false, "Append to the target relation instead of resetting it")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply flag overrides
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if *mode != "" {
		cfg.Workload.Mode = *mode
	}
	if *insertStrategy != "" {
		cfg.Workload.InsertStrategy = *insertStrategy
	}
	if *updateStrategy != "" {
		cfg.Workload.UpdateStrategy = *updateStrategy
	}
	if *records > 0 {
		cfg.Workload.TotalRecords = *records
	}
	if *insertBatch > 0 {
		cfg.Workload.InsertBatchSize = *insertBatch
	}
	if *updateBatch > 0 {
		cfg.Workload.UpdateBatchSize = *updateBatch
	}
	if *limitRows >= 0 {
		cfg.Workload.LimitRows = *limitRows
	}
	if *seed >= 0 {
		cfg.Workload.Seed = *seed
	}
	if *appendRows {
		cfg.Workload.ResetTable = false
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting bulkbench",
		"mode", cfg.Workload.Mode,
		"driver", cfg.Database.Driver)

	// Cancel the run on interrupt; in-flight batches finish, the next one
	// does not start.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.NewRunner(cfg.Workload, cfg.Database, logger)
	report, err := r.Run(ctx)
	if err != nil {
		slog.Error("benchmark run failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(report.Format())
	if !report.OK {
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
