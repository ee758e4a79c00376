// Command policyscore is the batch driver for the policy alignment
// scoring pipeline: it reads the parliamentary input tables from
// internal/sink, runs the hash-diff planner and alignment pipeline over
// the affected people, and materializes the result back into
// vote_distribution.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mysociety/policyscore/internal/config"
	"github.com/mysociety/policyscore/internal/sink"
	"github.com/mysociety/policyscore/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:     "policyscore",
		Short:   "Compute policy alignment scores over parliamentary voting data",
		Version: version,
	}

	rootCmd.AddCommand(runCmd(ctx))
	rootCmd.AddCommand(planCmd(ctx))
	rootCmd.AddCommand(migrateCmd(ctx))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// bootstrap loads configuration, wires logging/telemetry, and opens the
// sink in the order every subcommand needs them, minus the HTTP server
// setup this batch driver has no use for.
func bootstrap(ctx context.Context, quiet bool) (config.Config, *slog.Logger, telemetry.Shutdown, *sink.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := parseLogLevel(cfg.LogLevel)
	if quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	runID := uuid.New()
	logger = logger.With("run_id", runID.String())
	logger.Info("policyscore starting", "version", version)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return config.Config{}, nil, nil, nil, fmt.Errorf("telemetry: %w", err)
	}

	db, err := sink.New(ctx, cfg.DatabaseURL, cfg.NotifyURL, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return config.Config{}, nil, nil, nil, fmt.Errorf("sink: %w", err)
	}

	return cfg, logger, otelShutdown, db, nil
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
