package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Cache = (*Memory)(nil)

// Memory is an in process cache. Values are stored encoded so callers never
// share the cached instance.
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates a cache whose entries expire after ttl unless Set says otherwise.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{items: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(ctx context.Context, key string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	raw, ok := m.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}
	return true, nil
}

// Set stores v under key. A zero ttl uses the cache default.
func (m *Memory) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, data, ttl)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.items.Delete(key)
	return ctx.Err()
}
