// Package config collects every setting the commands read from the
// environment. A .env file is honored when present so local runs do not
// need exported variables. Missing values are only fatal at the point a
// command actually needs them; see Must.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings with defaults applied.
type Config struct {
	DatabaseURL string
	RedisURL    string
	BearerToken string
	Port        string

	// Scrape source.
	ScrapeProxyURL  string
	ScrapeProxyKeys []string
	ScrapeBaseURL   string

	// Partner API source.
	PartnerAPIKey  string
	PartnerBaseURL string

	// LLM enrichment providers.
	XAIAPIKey       string
	AnthropicAPIKey string

	// Run bookkeeping files. Sync and enrich track progress separately:
	// their checkpoint indexes count different sequences, so sharing a
	// file would make one command resume against the other's counters.
	CheckpointPath       string
	ErrorsPath           string
	EnrichCheckpointPath string
	EnrichErrorsPath     string
	BackupPath           string
}

// Load reads .env if present and returns the collected settings.
func Load() *Config {
	// A missing .env is fine; real deployments export variables directly.
	_ = godotenv.Load()

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		BearerToken: os.Getenv("BEARER_TOKEN"),
		Port:        getEnv("PORT", "8080"),

		ScrapeProxyURL:  getEnv("SCRAPE_PROXY_URL", "https://app.scrapingbee.com/api/v1/"),
		ScrapeProxyKeys: splitList(os.Getenv("SCRAPE_PROXY_KEYS")),
		ScrapeBaseURL:   getEnv("SCRAPE_BASE_URL", "https://www.tripadvisor.com.ph"),

		PartnerAPIKey:  os.Getenv("PARTNER_API_KEY"),
		PartnerBaseURL: getEnv("PARTNER_BASE_URL", "https://api.content.tripadvisor.com/api/v1"),

		XAIAPIKey:       os.Getenv("XAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		CheckpointPath:       getEnv("CHECKPOINT_PATH", "sync_checkpoint.json"),
		ErrorsPath:           getEnv("ERRORS_PATH", "sync_errors.json"),
		EnrichCheckpointPath: getEnv("ENRICH_CHECKPOINT_PATH", "enrich_checkpoint.json"),
		EnrichErrorsPath:     getEnv("ENRICH_ERRORS_PATH", "enrich_errors.json"),
		BackupPath:           getEnv("BACKUP_PATH", "backups/listings.json"),
	}
}

// Must returns value or exits when it is empty. Commands call this for
// the settings they cannot run without.
func Must(log *slog.Logger, key, value string) string {
	if value == "" {
		log.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return value
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
