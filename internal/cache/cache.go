package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lakbayph/listingsync/internal/listing"
)

const defaultTTL = 10 * time.Minute

// Cache wraps a Redis client and provides typed get/set/delete for listing
// query results. Entries are short-lived; a sync run invalidates nothing
// and simply waits out the TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 10-minute TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for a city/category query.
func key(city, category string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return "listings:" + norm(city) + ":" + norm(category)
}

// Get retrieves a cached query result.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, city, category string) ([]listing.Listing, error) {
	val, err := c.client.Get(ctx, key(city, category)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for city %s: %w", city, err)
	}

	var results []listing.Listing
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		return nil, fmt.Errorf("unmarshaling cached listings for city %s: %w", city, err)
	}

	return results, nil
}

// Set stores a query result in cache with the configured TTL.
func (c *Cache) Set(ctx context.Context, city, category string, results []listing.Listing) error {
	if results == nil {
		return nil
	}

	b, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling listings for city %s: %w", city, err)
	}

	if err := c.client.Set(ctx, key(city, category), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for city %s: %w", city, err)
	}

	return nil
}

// Delete removes the cached entry for a city/category query.
func (c *Cache) Delete(ctx context.Context, city, category string) error {
	if err := c.client.Del(ctx, key(city, category)).Err(); err != nil {
		return fmt.Errorf("cache delete for city %s: %w", city, err)
	}
	return nil
}
