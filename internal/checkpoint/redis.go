package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoint state under a single Redis key, for runs
// executed on hosts without durable local disk (one-shot job containers).
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a RedisStore writing under the given key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading checkpoint %s: %w", r.key, err)
	}

	var s State
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", r.key, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clearing checkpoint %s: %w", r.key, err)
	}
	return nil
}
