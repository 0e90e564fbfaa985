package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect dials Redis from a redis:// URL and pings it, so a bad address
// fails at startup rather than on the first cache or checkpoint access.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}
