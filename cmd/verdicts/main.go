// Command verdicts downloads court decisions published in a date range and
// writes a metadata ledger next to them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/usestring/verdicts/internal/archive"
	"github.com/usestring/verdicts/internal/config"
	"github.com/usestring/verdicts/internal/inspect"
	"github.com/usestring/verdicts/internal/logging"
	"github.com/usestring/verdicts/internal/pipeline"
	"github.com/usestring/verdicts/internal/resolve"
	"github.com/usestring/verdicts/pkg/client"
)

// logFileName is the run log written inside the output directory unless
// log.file says otherwise.
const logFileName = "scraper.log"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run executes the command and returns the process exit code: 2 for usage
// errors, 1 for configuration or setup errors, 0 otherwise. A failed search is
// logged and still exits 0.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	// A missing .env is normal.
	_ = godotenv.Load()

	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "verdicts: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "verdicts: %v\n", err)
		return 1
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.OutputDir, logFileName)
	}

	logger, closeLog, err := logging.Setup(logging.Config{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Console:    stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "verdicts: setting up logging: %v\n", err)
		return 1
	}
	defer closeLog()

	runner, err := newRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", slog.String("error", err.Error()))
		return 1
	}

	meta, err := runner.Run(ctx, opts.criteria)
	if err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		return 1
	}
	if meta != nil {
		logger.Info("metadata written", slog.String("dir", cfg.OutputDir))
	}
	return 0
}

// newRunner wires the portal client and the optional run stages from cfg.
func newRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, error) {
	policy := client.DefaultRetryPolicy()
	policy.Retries = cfg.HTTP.Retries
	policy.BackoffFactor = cfg.HTTP.BackoffFactor

	c, err := client.New(
		client.WithBaseURL(cfg.BaseURL),
		client.WithSearchPath(cfg.SearchPath),
		client.WithHeaders(cfg.Headers),
		client.WithCookies(cfg.Cookies),
		client.WithRetryPolicy(policy),
		client.WithSearchTimeout(cfg.HTTP.SearchTimeout),
		client.WithDownloadTimeout(cfg.HTTP.DownloadTimeout),
		client.WithResultsQuery(cfg.ResultsQuery),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithThrottle(cfg.Throttle),
	}
	if cfg.InspectPDFs {
		opts = append(opts, pipeline.WithPageCounter(inspect.New()))
	}
	if cfg.Archive.Enabled {
		a, err := archive.New(&cfg.Archive, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithArchiver(a))
	}

	return pipeline.New(c, resolve.New(c.BaseURL(), logger), cfg.OutputDir, opts...), nil
}
