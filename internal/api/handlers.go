package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lakbayph/listingsync/internal/listing"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	repo  ListingRepo
	cache ListingCache
	log   *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(repo ListingRepo, cache ListingCache, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListListings handles GET /api/v1/listings?city=&category=&limit=.
// Cache hit → return. DB hit → cache + return. The default limit only
// applies on the DB path; cached entries were stored at the default.
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "city query parameter is required"})
		return
	}
	category := r.URL.Query().Get("category")

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	// Only default-shaped queries go through the cache; a custom limit
	// would poison the shared entry.
	useCache := limit == defaultListLimit
	if useCache {
		cached, err := h.cache.Get(r.Context(), city, category)
		if err != nil {
			h.log.Error("cache get failed", "city", city, "err", err)
		}
		if cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	results, err := h.repo.ListByCity(r.Context(), city, category, limit)
	if err != nil {
		h.log.Error("db list failed", "city", city, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if results == nil {
		results = []listing.Listing{}
	}

	if useCache {
		if err := h.cache.Set(r.Context(), city, category, results); err != nil {
			h.log.Warn("cache set failed after db hit", "city", city, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, results)
}

// LookupListing handles GET /api/v1/listings/lookup?key=.
// Identity keys contain ':' and '/', so they travel as a query parameter
// rather than a path segment.
func (h *Handlers) LookupListing(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key query parameter is required"})
		return
	}

	l, err := h.repo.GetByKey(r.Context(), key)
	if err != nil {
		h.log.Error("db lookup failed", "key", key, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if l == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// GetListing handles GET /api/v1/listings/{city}/{slug}.
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	slug := chi.URLParam(r, "slug")

	l, err := h.repo.GetBySlug(r.Context(), city, slug)
	if err != nil {
		h.log.Error("db get failed", "city", city, "slug", slug, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if l == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "listing not found"})
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// HealthCheck handles GET /api/v1/health.
// Pings DB and Redis; returns 200 if both ok, 503 otherwise.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]string{
			"status": func() string {
				if status == http.StatusOK {
					return "ok"
				}
				return "degraded"
			}(),
			"db":    dbStatus,
			"redis": redisStatus,
		})
	}
}
