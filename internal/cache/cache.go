package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidEntry is returned when a cached value cannot be decoded into the target.
var ErrInvalidEntry = errors.New("invalid cache entry")

// Cache holds JSON encoded values by key. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
