package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakbayph/listingsync/internal/api"
	"github.com/lakbayph/listingsync/internal/listing"
)

// ---- mock implementations ----

type mockRepo struct {
	listFn     func(ctx context.Context, city, category string, limit int) ([]listing.Listing, error)
	getFn      func(ctx context.Context, city, slug string) (*listing.Listing, error)
	getByKeyFn func(ctx context.Context, key string) (*listing.Listing, error)
}

func (m *mockRepo) ListByCity(ctx context.Context, city, category string, limit int) ([]listing.Listing, error) {
	return m.listFn(ctx, city, category, limit)
}
func (m *mockRepo) GetBySlug(ctx context.Context, city, slug string) (*listing.Listing, error) {
	return m.getFn(ctx, city, slug)
}
func (m *mockRepo) GetByKey(ctx context.Context, key string) (*listing.Listing, error) {
	return m.getByKeyFn(ctx, key)
}

type mockCache struct {
	getFn    func(ctx context.Context, city, category string) ([]listing.Listing, error)
	setFn    func(ctx context.Context, city, category string, results []listing.Listing) error
	deleteFn func(ctx context.Context, city, category string) error
}

func (m *mockCache) Get(ctx context.Context, city, category string) ([]listing.Listing, error) {
	return m.getFn(ctx, city, category)
}
func (m *mockCache) Set(ctx context.Context, city, category string, results []listing.Listing) error {
	return m.setFn(ctx, city, category, results)
}
func (m *mockCache) Delete(ctx context.Context, city, category string) error {
	return m.deleteFn(ctx, city, category)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

func sampleResults() []listing.Listing {
	return []listing.Listing{
		{
			Name:            "Rizal Park",
			City:            "Manila",
			Category:        "Attractions",
			Slug:            "rizal-park-543636",
			VisibilityScore: 56.8,
		},
	}
}

// quietCache never hits and swallows sets.
func quietCache() *mockCache {
	return &mockCache{
		getFn:    func(_ context.Context, _, _ string) ([]listing.Listing, error) { return nil, nil },
		setFn:    func(_ context.Context, _, _ string, _ []listing.Listing) error { return nil },
		deleteFn: func(_ context.Context, _, _ string) error { return nil },
	}
}

const testToken = "secret-token"

func buildRouter(repo api.ListingRepo, cache api.ListingCache, db, redis *mockPinger) http.Handler {
	if db == nil {
		db = &mockPinger{}
	}
	if redis == nil {
		redis = &mockPinger{}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(repo, cache, log)
	return api.NewRouter(handlers, testToken, db, redis, log)
}

func authedGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

// ---- GET /api/v1/listings ----

func TestListListings_CacheHit(t *testing.T) {
	repo := &mockRepo{
		listFn: func(_ context.Context, _, _ string, _ int) ([]listing.Listing, error) {
			t.Fatal("repo should not be called on cache hit")
			return nil, nil
		},
	}
	cache := quietCache()
	cache.getFn = func(_ context.Context, _, _ string) ([]listing.Listing, error) {
		return sampleResults(), nil
	}

	router := buildRouter(repo, cache, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila"))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []listing.Listing
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Rizal Park", got[0].Name)
}

func TestListListings_DBHit_CacheMiss(t *testing.T) {
	setCalled := false
	repo := &mockRepo{
		listFn: func(_ context.Context, city, category string, limit int) ([]listing.Listing, error) {
			assert.Equal(t, "Manila", city)
			assert.Equal(t, "Attractions", category)
			assert.Equal(t, 50, limit)
			return sampleResults(), nil
		},
	}
	cache := quietCache()
	cache.setFn = func(_ context.Context, _, _ string, _ []listing.Listing) error {
		setCalled = true
		return nil
	}

	router := buildRouter(repo, cache, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila&category=Attractions"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, setCalled, "cache.Set should be called after DB hit")
}

func TestListListings_CustomLimitBypassesCache(t *testing.T) {
	cacheTouched := false
	repo := &mockRepo{
		listFn: func(_ context.Context, _, _ string, limit int) ([]listing.Listing, error) {
			assert.Equal(t, 10, limit)
			return sampleResults(), nil
		},
	}
	cache := quietCache()
	cache.getFn = func(_ context.Context, _, _ string) ([]listing.Listing, error) {
		cacheTouched = true
		return nil, nil
	}

	router := buildRouter(repo, cache, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila&limit=10"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, cacheTouched)
}

func TestListListings_MissingCity(t *testing.T) {
	router := buildRouter(&mockRepo{}, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListListings_BadLimit(t *testing.T) {
	router := buildRouter(&mockRepo{}, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila&limit=zero"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListListings_LimitCapped(t *testing.T) {
	repo := &mockRepo{
		listFn: func(_ context.Context, _, _ string, limit int) ([]listing.Listing, error) {
			assert.Equal(t, 200, limit)
			return nil, nil
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila&limit=9999"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListListings_NoResultsIsEmptyArray(t *testing.T) {
	repo := &mockRepo{
		listFn: func(_ context.Context, _, _ string, _ int) ([]listing.Listing, error) {
			return nil, nil
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Atlantis"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListListings_DBError(t *testing.T) {
	repo := &mockRepo{
		listFn: func(_ context.Context, _, _ string, _ int) ([]listing.Listing, error) {
			return nil, fmt.Errorf("db down")
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings?city=Manila"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/v1/listings/{city}/{slug} ----

func TestGetListing_Found(t *testing.T) {
	repo := &mockRepo{
		getFn: func(_ context.Context, city, slug string) (*listing.Listing, error) {
			assert.Equal(t, "Manila", city)
			assert.Equal(t, "rizal-park-543636", slug)
			l := sampleResults()[0]
			return &l, nil
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/Manila/rizal-park-543636"))

	assert.Equal(t, http.StatusOK, w.Code)
	var got listing.Listing
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Rizal Park", got.Name)
}

func TestGetListing_NotFound(t *testing.T) {
	repo := &mockRepo{
		getFn: func(_ context.Context, _, _ string) (*listing.Listing, error) { return nil, nil },
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/Manila/ghost"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetListing_DBError(t *testing.T) {
	repo := &mockRepo{
		getFn: func(_ context.Context, _, _ string) (*listing.Listing, error) {
			return nil, fmt.Errorf("db down")
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/Manila/rizal-park-543636"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/v1/listings/lookup ----

func TestLookupListing_Found(t *testing.T) {
	repo := &mockRepo{
		getByKeyFn: func(_ context.Context, key string) (*listing.Listing, error) {
			assert.Equal(t, "partner_api:543636", key)
			l := sampleResults()[0]
			return &l, nil
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/lookup?key="+url.QueryEscape("partner_api:543636")))

	assert.Equal(t, http.StatusOK, w.Code)
	var got listing.Listing
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Rizal Park", got.Name)
}

func TestLookupListing_SlugKey(t *testing.T) {
	// Slug-derived keys contain a '/', which must survive query escaping.
	repo := &mockRepo{
		getByKeyFn: func(_ context.Context, key string) (*listing.Listing, error) {
			assert.Equal(t, "slug:manila/rizal-park-543636", key)
			l := sampleResults()[0]
			return &l, nil
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/lookup?key="+url.QueryEscape("slug:manila/rizal-park-543636")))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLookupListing_NotFound(t *testing.T) {
	repo := &mockRepo{
		getByKeyFn: func(_ context.Context, _ string) (*listing.Listing, error) { return nil, nil },
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/lookup?key=partner_api:999999"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLookupListing_MissingKey(t *testing.T) {
	router := buildRouter(&mockRepo{}, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/lookup"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLookupListing_DBError(t *testing.T) {
	repo := &mockRepo{
		getByKeyFn: func(_ context.Context, _ string) (*listing.Listing, error) {
			return nil, fmt.Errorf("db down")
		},
	}

	router := buildRouter(repo, quietCache(), nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedGet("/api/v1/listings/lookup?key=partner_api:543636"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/v1/health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(nil, nil, &mockPinger{}, &mockPinger{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["redis"])
}

func TestHealth_DBDown(t *testing.T) {
	router := buildRouter(nil, nil,
		&mockPinger{err: fmt.Errorf("db unreachable")},
		&mockPinger{},
	)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "error", body["db"])
}

func TestHealth_RedisDown(t *testing.T) {
	router := buildRouter(nil, nil,
		&mockPinger{},
		&mockPinger{err: fmt.Errorf("redis unreachable")},
	)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ---- Auth middleware ----

func TestBearerAuth_NoHeader(t *testing.T) {
	router := buildRouter(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?city=Manila", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_WrongToken(t *testing.T) {
	router := buildRouter(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?city=Manila", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_HealthNoAuth(t *testing.T) {
	// Health endpoint must not require auth.
	router := buildRouter(nil, nil, &mockPinger{}, &mockPinger{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuth_MissingBearerPrefix(t *testing.T) {
	router := buildRouter(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?city=Manila", nil)
	req.Header.Set("Authorization", testToken) // no "Bearer " prefix
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
