package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lakbayph/listingsync/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SCRAPE_PROXY_URL", "")
	t.Setenv("PARTNER_BASE_URL", "")
	t.Setenv("CHECKPOINT_PATH", "")

	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://app.scrapingbee.com/api/v1/", cfg.ScrapeProxyURL)
	assert.Equal(t, "https://api.content.tripadvisor.com/api/v1", cfg.PartnerBaseURL)
	assert.Equal(t, "sync_checkpoint.json", cfg.CheckpointPath)
}

func TestLoad_SyncAndEnrichBookkeepingAreSeparate(t *testing.T) {
	t.Setenv("CHECKPOINT_PATH", "")
	t.Setenv("ERRORS_PATH", "")
	t.Setenv("ENRICH_CHECKPOINT_PATH", "")
	t.Setenv("ENRICH_ERRORS_PATH", "")

	cfg := config.Load()
	assert.Equal(t, "enrich_checkpoint.json", cfg.EnrichCheckpointPath)
	assert.Equal(t, "enrich_errors.json", cfg.EnrichErrorsPath)
	// A failed sync's checkpoint must survive an enrich run, and the
	// other way around.
	assert.NotEqual(t, cfg.CheckpointPath, cfg.EnrichCheckpointPath)
	assert.NotEqual(t, cfg.ErrorsPath, cfg.EnrichErrorsPath)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/listings")

	cfg := config.Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost/listings", cfg.DatabaseURL)
}

func TestLoad_SplitsProxyKeys(t *testing.T) {
	t.Setenv("SCRAPE_PROXY_KEYS", "key-a, key-b ,key-c")

	cfg := config.Load()
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.ScrapeProxyKeys)
}

func TestLoad_EmptyProxyKeys(t *testing.T) {
	t.Setenv("SCRAPE_PROXY_KEYS", "")

	cfg := config.Load()
	assert.Nil(t, cfg.ScrapeProxyKeys)
}
