// Command enrich fills gaps in stored listings with LLM-generated data:
// descriptions, amenities, hours, and price levels for listings the
// scrape and partner sources left incomplete. Enriched values merge
// fill-empty, so they can never replace sourced data.
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
		log.Error("enrich exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	var (
		provider = flag.String("provider", "grok", "LLM provider: grok or claude")
		city     = flag.String("city", "", "restrict enrichment to one city")
		limit    = flag.Int("limit", 0, "cap how many listings are enriched (0 = all)")
		dryRun   = flag.Bool("dry-run", false, "call the LLM but write nothing")
		resume   = flag.Bool("resume", false, "continue from the previous checkpoint")
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

	enricher, err := buildEnricher(*provider, cfg, log)
	if err != nil {
		return err
	}

	store, closeStore, err := buildCheckpointStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	repo := storage.NewRepository(pool)
	errs := &checkpoint.ErrorLog{}
	runner := pipeline.NewEnrichRunner(
		repo,
		enricher,
		storage.NewExecutor(repo, listing.FillEmpty, log),
		checkpoint.NewLedger(store),
		errs,
		log,
	)

	summary, err := runner.Run(ctx, pipeline.EnrichOptions{
		City:   *city,
		Limit:  *limit,
		DryRun: *dryRun,
		Resume: *resume,
	})
	if err != nil {
		return err
	}

	if err := errs.WriteFile(cfg.EnrichErrorsPath); err != nil {
		log.Error("writing errors file failed", "err", err)
	}

	log.Info("enrichment complete",
		"enriched", summary.Updated,
		"errors", summary.Errors,
		"upserted", summary.Upserted,
	)
	return nil
}

// buildCheckpointStore mirrors cmd/sync: Redis when configured, local
// file otherwise. Enrichment has its own key and path so its candidate
// indexes never collide with sync's unit counters.
func buildCheckpointStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, func(), error) {
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return checkpoint.NewRedisStore(client, "listingsync:enrich_checkpoint"), func() { _ = client.Close() }, nil
	}
	return checkpoint.NewFileStore(cfg.EnrichCheckpointPath), func() {}, nil
}

func buildEnricher(provider string, cfg *config.Config, log *slog.Logger) (source.Enricher, error) {
	switch provider {
	case "grok":
		key := config.Must(log, "XAI_API_KEY", cfg.XAIAPIKey)
		return source.NewGrokEnricher(key), nil
	case "claude":
		key := config.Must(log, "ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
		return source.NewClaudeEnricher(key), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want grok or claude)", provider)
	}
}
