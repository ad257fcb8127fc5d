package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/pkg/enums"
)

// MultiShipKey is the sentinel cache field tracking whether every shipment
// in a multi-ship basket has passed shipping validation.
const MultiShipKey = "multiship"

// ValidityCache tracks per-shipment address/method completeness across
// requests. Entries gate advancing to payment; the cache is cleared after
// successful order placement.
type ValidityCache interface {
	Mark(ctx context.Context, basketID uuid.UUID, field string, v enums.ShipmentValidity) error
	Get(ctx context.Context, basketID uuid.UUID, field string) (enums.ShipmentValidity, bool, error)
	All(ctx context.Context, basketID uuid.UUID) (map[string]enums.ShipmentValidity, error)
	Clear(ctx context.Context, basketID uuid.UUID) error
}

type validityStore interface {
	ValidityKey(basketID string) string
	HSet(ctx context.Context, key string, pairs ...any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisValidityCache keeps one hash per basket, TTL-bound so abandoned
// checkouts expire on their own.
type RedisValidityCache struct {
	store validityStore
	ttl   time.Duration
}

// NewRedisValidityCache builds the production validity cache.
func NewRedisValidityCache(store validityStore, ttl time.Duration) (*RedisValidityCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisValidityCache{store: store, ttl: ttl}, nil
}

func (c *RedisValidityCache) Mark(ctx context.Context, basketID uuid.UUID, field string, v enums.ShipmentValidity) error {
	key := c.store.ValidityKey(basketID.String())
	if err := c.store.HSet(ctx, key, field, v.String()); err != nil {
		return err
	}
	if c.ttl > 0 {
		return c.store.Expire(ctx, key, c.ttl)
	}
	return nil
}

func (c *RedisValidityCache) Get(ctx context.Context, basketID uuid.UUID, field string) (enums.ShipmentValidity, bool, error) {
	all, err := c.All(ctx, basketID)
	if err != nil {
		return "", false, err
	}
	v, ok := all[field]
	return v, ok, nil
}

func (c *RedisValidityCache) All(ctx context.Context, basketID uuid.UUID) (map[string]enums.ShipmentValidity, error) {
	raw, err := c.store.HGetAll(ctx, c.store.ValidityKey(basketID.String()))
	if err != nil {
		return nil, err
	}
	out := make(map[string]enums.ShipmentValidity, len(raw))
	for field, value := range raw {
		parsed, err := enums.ParseShipmentValidity(value)
		if err != nil {
			// stale or foreign entry, treat as not validated
			continue
		}
		out[field] = parsed
	}
	return out, nil
}

func (c *RedisValidityCache) Clear(ctx context.Context, basketID uuid.UUID) error {
	return c.store.Del(ctx, c.store.ValidityKey(basketID.String()))
}

// MemoryValidityCache is a process-local implementation used in tests and
// single-node development.
type MemoryValidityCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]map[string]enums.ShipmentValidity
}

// NewMemoryValidityCache builds an empty in-memory cache.
func NewMemoryValidityCache() *MemoryValidityCache {
	return &MemoryValidityCache{entries: map[uuid.UUID]map[string]enums.ShipmentValidity{}}
}

func (c *MemoryValidityCache) Mark(ctx context.Context, basketID uuid.UUID, field string, v enums.ShipmentValidity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[basketID] == nil {
		c.entries[basketID] = map[string]enums.ShipmentValidity{}
	}
	c.entries[basketID][field] = v
	return nil
}

func (c *MemoryValidityCache) Get(ctx context.Context, basketID uuid.UUID, field string) (enums.ShipmentValidity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[basketID][field]
	return v, ok, nil
}

func (c *MemoryValidityCache) All(ctx context.Context, basketID uuid.UUID) (map[string]enums.ShipmentValidity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]enums.ShipmentValidity, len(c.entries[basketID]))
	for field, v := range c.entries[basketID] {
		out[field] = v
	}
	return out, nil
}

func (c *MemoryValidityCache) Clear(ctx context.Context, basketID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, basketID)
	return nil
}
