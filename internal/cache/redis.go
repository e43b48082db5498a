package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/emrgen/manga/internal/compress"
)

const keyPrefix = "cache:"

var _ Cache = (*Redis)(nil)

// Redis caches gzip compressed JSON values in redis so several server
// instances share the same entries.
type Redis struct {
	client  *redis.Client
	encoder compress.Compress
	ttl     time.Duration
}

// NewRedis creates a redis cache. ttl applies when Set is called with zero ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, encoder: compress.NewGZip(), ttl: ttl}
}

func cacheKey(key string) string {
	return keyPrefix + key
}

func (r *Redis) Get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	data, err := r.encoder.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	encoded, err := r.encoder.Encode(data)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.ttl
	}

	return r.client.Set(ctx, cacheKey(key), encoded, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, cacheKey(key)).Err()
}
