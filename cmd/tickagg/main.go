// Tick Aggregator CLI
// This application cleans raw financial tick files (timestamp, price,
// size) and aggregates the cleaned stream into fixed-interval OHLCV
// bars over a requested time window.
//
// Usage:
//
//	tickagg clean --data ./data
//	tickagg aggregate --data ./data --start "2024-09-19 09:30:00.000" --end "2024-09-19 16:00:00.000" --interval 1h30m
//
// For detailed help on any command, use: tickagg <command> --help
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tickdata/go-tick-aggregator/internal/config"
	"github.com/tickdata/go-tick-aggregator/internal/export"
	"github.com/tickdata/go-tick-aggregator/internal/loader"
	"github.com/tickdata/go-tick-aggregator/internal/logger"
	"github.com/tickdata/go-tick-aggregator/internal/models"
	"github.com/tickdata/go-tick-aggregator/internal/pipeline"
	"github.com/tickdata/go-tick-aggregator/internal/request"
	"github.com/tickdata/go-tick-aggregator/internal/storage"
	"github.com/tickdata/go-tick-aggregator/internal/timeindex"
)

// CLI version information
const (
	Version = "1.0.0"
	AppName = "tickagg"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0
	ExitUsageError  = 1
	ExitConfigError = 2
	ExitDataError   = 4
	ExitInterrupt   = 130
)

// CLI holds the wired application components.
type CLI struct {
	config *config.AppConfig
	logger *slog.Logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(ExitUsageError)
	}

	// Graceful shutdown on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := &CLI{}
	if err := cli.initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		os.Exit(ExitConfigError)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "clean":
		if err := cli.handleClean(ctx, args); err != nil {
			cli.logger.Error("cleaning failed", "error", err)
			os.Exit(ExitDataError)
		}
	case "aggregate":
		if err := cli.handleAggregate(ctx, args); err != nil {
			cli.logger.Error("aggregation failed", "error", err)
			os.Exit(ExitDataError)
		}
	case "--version", "-v", "version":
		fmt.Printf("%s version %s\n", AppName, Version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(ExitUsageError)
	}
}

// initialize loads configuration and builds the logger.
func (c *CLI) initialize() error {
	cfg, err := config.Load(os.Getenv("TICKAGG_CONFIG"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}

	c.config = cfg
	c.logger = log
	return nil
}

// buildDataset loads the raw rows and runs the cleaning pipeline.
func (c *CLI) buildDataset(ctx context.Context, dataDir string) (*pipeline.Dataset, error) {
	l := loader.New(dataDir, loader.Config{
		Workers:        c.config.Loader.Workers,
		FilesPerSecond: c.config.Loader.FilesPerSecond,
		MaxRetries:     c.config.Loader.MaxRetries,
	}, c.logger)

	rows, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}

	dataset, err := pipeline.Build(rows, c.logger)
	if err != nil {
		return nil, err
	}

	session, err := c.config.TradingSession()
	if err != nil {
		return nil, err
	}
	return dataset.WithSession(session), nil
}

// handleClean loads and cleans the dataset, reporting drop statistics.
func (c *CLI) handleClean(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("clean", flag.ExitOnError)
	dataDir := flags.String("data", c.config.DataDir, "Directory containing raw tick CSV files")
	if err := flags.Parse(args); err != nil {
		return err
	}

	dataset, err := c.buildDataset(ctx, *dataDir)
	if err != nil {
		return err
	}

	stats := dataset.Stats()
	bounds := dataset.Bounds()
	fmt.Printf("Run %s\n", dataset.RunID())
	fmt.Printf("  total rows:      %d\n", stats.TotalRows)
	fmt.Printf("  malformed rows:  %d\n", stats.MalformedRows)
	fmt.Printf("  outlier ticks:   %d\n", stats.OutlierTicks)
	fmt.Printf("  duplicate ticks: %d\n", stats.DuplicateTicks)
	fmt.Printf("  clean ticks:     %d\n", stats.CleanTicks)
	fmt.Printf("  price bounds:    [%s, %s]\n", bounds.Lower, bounds.Upper)
	return nil
}

// handleAggregate runs the full pipeline: load, clean, select the
// requested window, bucket into bars, export to CSV and optionally
// persist to the configured bar store.
func (c *CLI) handleAggregate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("aggregate", flag.ExitOnError)
	dataDir := flags.String("data", c.config.DataDir, "Directory containing raw tick CSV files")
	outDir := flags.String("out", c.config.OutputDir, "Directory for exported bar CSV files")
	startStr := flags.String("start", "", "Window start (e.g. \"2024-09-19 09:30:00.000\")")
	endStr := flags.String("end", "", "Window end (e.g. \"2024-09-19 16:00:00.000\")")
	intervalSpec := flags.String("interval", "", "Bar interval spec (e.g. 1d, 1h30m, 45s)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *startStr == "" || *endStr == "" || *intervalSpec == "" {
		return errors.New("aggregate requires --start, --end and --interval")
	}

	// Reject malformed requests before any loading happens.
	window, err := request.ParseWindow(*startStr, *endStr)
	if err != nil {
		return err
	}
	interval, err := request.ParseInterval(*intervalSpec)
	if err != nil {
		return err
	}

	dataset, err := c.buildDataset(ctx, *dataDir)
	if err != nil {
		return err
	}

	bars, err := dataset.Aggregate(window, interval)
	if err != nil {
		if errors.Is(err, timeindex.ErrOutOfRange) {
			fmt.Println("No bars: requested window has no overlap with the dataset.")
			return nil
		}
		return err
	}

	writer := export.NewCSVWriter(*outDir, c.logger)
	path, err := writer.WriteBars(export.FileName(window, *intervalSpec), bars)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d bars to %s\n", len(bars), path)

	return c.storeBars(ctx, dataset.RunID(), bars)
}

// storeBars persists the bars when a storage backend is configured.
func (c *CLI) storeBars(ctx context.Context, runID string, bars []models.Bar) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return err
	}
	return store.Store(ctx, runID, bars)
}

// openStore builds the configured bar store, or nil when persistence
// is disabled.
func (c *CLI) openStore() (storage.BarStore, error) {
	switch c.config.Storage.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return storage.NewMemoryStore(), nil
	case "duckdb":
		return storage.NewDuckDBStore(c.config.Storage.Path, c.logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", c.config.Storage.Type)
	}
}

// printUsage prints top-level CLI usage.
func printUsage() {
	fmt.Printf(`%s - tick cleaning and OHLCV aggregation

Usage:
  %s <command> [flags]

Commands:
  clean       Load and clean the tick files, print drop statistics
  aggregate   Clean, select a time window and emit OHLCV bars as CSV
  version     Print version information
  help        Show this help

Aggregate flags:
  --data      Directory containing raw tick CSV files
  --out       Directory for exported bar CSV files
  --start     Window start, "YYYY-MM-DD HH:MM:SS.mmm"
  --end       Window end, "YYYY-MM-DD HH:MM:SS.mmm"
  --interval  Interval spec: days, hours, minutes, seconds (e.g. 1h30m)

Environment:
  TICKAGG_CONFIG  Path to a JSON configuration file
`, AppName, AppName)
}
