// Command sync runs one ingestion pass: fetch listings for every
// (city, category) unit from the chosen source, normalize, merge, and
// upsert them. Designed for cron or one-shot job containers; the run is
// resumable and unit failures never produce a non-zero exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lakbayph/listingsync/internal/cache"
	"github.com/lakbayph/listingsync/internal/checkpoint"
	"github.com/lakbayph/listingsync/internal/config"
	"github.com/lakbayph/listingsync/internal/listing"
	"github.com/lakbayph/listingsync/internal/pipeline"
	"github.com/lakbayph/listingsync/internal/source"
	"github.com/lakbayph/listingsync/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("sync exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	var (
		sourceName = flag.String("source", "scrape", "source to ingest from: scrape or partner")
		city       = flag.String("city", "", "restrict the run to one city")
		category   = flag.String("category", "", "restrict the run to one category")
		limit      = flag.Int("limit", 0, "cap how many units this run handles (0 = all)")
		dryRun     = flag.Bool("dry-run", false, "fetch and normalize but write nothing")
		resume     = flag.Bool("resume", false, "continue from the previous checkpoint")
		overwrite  = flag.Bool("overwrite", false, "incoming non-empty values replace stored ones")
		refetch    = flag.Bool("refetch", false, "back up and clear all listings before the run")
		noBackup   = flag.Bool("no-backup", false, "with -refetch, skip the backup dump")
	)
	flag.Parse()

	cfg := config.Load()
	databaseURL := config.Must(log, "DATABASE_URL", cfg.DatabaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	repo := storage.NewRepository(pool)

	if *refetch {
		if *noBackup {
			log.Warn("clearing listings without backup")
			if err := repo.Clear(ctx); err != nil {
				return fmt.Errorf("clearing listings: %w", err)
			}
		} else {
			n, err := pipeline.BackupAndClear(ctx, repo, cfg.BackupPath, log)
			if err != nil {
				return fmt.Errorf("backing up listings: %w", err)
			}
			log.Info("listings backed up and cleared", "listings", n)
		}
	}

	producer, transport, err := buildProducer(*sourceName, cfg, log)
	if err != nil {
		return err
	}

	store, closeStore, err := buildCheckpointStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	mode := listing.FillEmpty
	if *overwrite {
		mode = listing.Overwrite
	}

	errs := &checkpoint.ErrorLog{}
	runner := pipeline.NewRunner(
		producer,
		storage.NewExecutor(repo, mode, log),
		checkpoint.NewLedger(store),
		errs,
		log,
	)

	summary, err := runner.Run(ctx, pipeline.Options{
		City:     *city,
		Category: *category,
		Limit:    *limit,
		DryRun:   *dryRun,
		Resume:   *resume,
		Mode:     mode,
	})
	if err != nil {
		return err
	}

	if err := errs.WriteFile(cfg.ErrorsPath); err != nil {
		log.Error("writing errors file failed", "err", err)
	}

	// Unit failures are already counted in the summary; the run itself
	// succeeded, so exit zero either way.
	fields := []any{
		"units", summary.Units,
		"updated", summary.Updated,
		"not_found", summary.NotFound,
		"errors", summary.Errors,
		"upserted", summary.Upserted,
		"failed_chunks", summary.FailedChunks,
	}
	if transport != nil {
		fields = append(fields, "proxy_calls", transport.Calls(), "proxy_key_index", transport.KeyIndex())
	}
	log.Info("sync complete", fields...)
	return nil
}

func buildProducer(name string, cfg *config.Config, log *slog.Logger) (source.Producer, *source.Transport, error) {
	switch name {
	case "scrape":
		if len(cfg.ScrapeProxyKeys) == 0 {
			return nil, nil, fmt.Errorf("SCRAPE_PROXY_KEYS is required for the scrape source")
		}
		transport := source.NewTransport(cfg.ScrapeProxyURL, cfg.ScrapeProxyKeys)
		return source.NewScrapeProducer(transport, cfg.ScrapeBaseURL), transport, nil
	case "partner":
		key := config.Must(log, "PARTNER_API_KEY", cfg.PartnerAPIKey)
		return source.NewPartnerProducer(cfg.PartnerBaseURL, key, 30), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want scrape or partner)", name)
	}
}

// buildCheckpointStore prefers Redis when configured so job containers
// without durable disk can still resume; otherwise falls back to a local
// file.
func buildCheckpointStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, func(), error) {
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return checkpoint.NewRedisStore(client, "listingsync:checkpoint"), func() { _ = client.Close() }, nil
	}
	return checkpoint.NewFileStore(cfg.CheckpointPath), func() {}, nil
}
