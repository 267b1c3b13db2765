// Package main is the entry point of the dashboard refresh worker.
//
// The worker drains DASHBOARD_SUMMARY_REFRESH_REQUESTED events into
// materialized snapshot rows on a fixed interval. It is safe to run
// alongside the API processes and safe to restart at any point: the
// checkpoint only moves on commit, so an interrupted pass is replayed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cyranoaladin/nexus-project-v0/config"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/postgres"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/redis"
	"github.com/cyranoaladin/nexus-project-v0/internal/worker"
	"github.com/cyranoaladin/nexus-project-v0/pkg/retry"
)

// minInterval is the floor for the refresh interval. Anything lower just
// burns connections polling an empty window.
const minInterval = 5 * time.Second

// CLI holds the command line flags.
type CLI struct {
	Interval int  `help:"Seconds between refresh passes." default:"30"`
	Once     bool `help:"Run a single refresh pass and exit."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("nexus-refresh-worker"),
		kong.Description("Materializes dashboard summary snapshots from refresh-request events."),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cli); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
	kctx.Exit(0)
}

func run(ctx context.Context, cli CLI) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	interval := time.Duration(cli.Interval) * time.Second
	if interval < minInterval {
		interval = minInterval
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting refresh worker",
		"env", string(cfg.App.Environment),
		"interval", interval.String(),
		"once", cli.Once,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Database
	// ─────────────────────────────────────────────────────────────────────────
	var conn *postgres.Connection
	if cfg.Database.URL != "" {
		conn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		conn, err = postgres.NewConnection(ctx, cfg.PostgresConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	// Sibling processes may hold the migration lock at startup.
	migrator := postgres.NewMigrator(conn)
	err = retry.DatabaseRetrier().Do(ctx, func(ctx context.Context) error {
		return retry.Retryable(migrator.Migrate(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var summaryCache worker.SnapshotCache
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(cfg.RedisCacheConfig())
		if err != nil {
			log.Warn("failed to connect to Redis, cache updates disabled", "error", err)
		} else {
			defer cache.Close()
			summaryCache = redis.NewSummaryCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Worker loop
	// ─────────────────────────────────────────────────────────────────────────
	store := postgres.NewStore(conn)
	w := worker.NewRefreshWorker(store, summaryCache, interval, log)

	if cli.Once {
		processed, err := w.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("refresh pass failed: %w", err)
		}
		log.Info("single pass complete", "requests", processed)
		return nil
	}

	// Cancel the loop on SIGINT/SIGTERM and let the current pass finish.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(sigCtx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	log.Info("shutdown completed")
	return nil
}

// setupLogger configures structured logging: JSON in production, text
// everywhere else.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
