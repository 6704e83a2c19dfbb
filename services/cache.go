package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	CollectionCustomers  = "customers"
	CollectionServices   = "services"
	CollectionCategories = "service_categories"
	CollectionStaff      = "staff"
	CollectionProducts   = "products"
)

// CollectionCache keeps list results per salon and collection. Each
// collection is one Redis hash keyed by query variant, so a single DEL drops
// every cached variant on write. A nil cache or nil client passes through.
type CollectionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCollectionCache(rdb *redis.Client, ttl time.Duration) *CollectionCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CollectionCache{redis: rdb, ttl: ttl}
}

func collectionKey(salonID uuid.UUID, collection string) string {
	return fmt.Sprintf("salon:%s:%s", salonID, collection)
}

func (c *CollectionCache) enabled() bool {
	return c != nil && c.redis != nil
}

// Invalidate drops the cached lists of the given collections.
func (c *CollectionCache) Invalidate(ctx context.Context, salonID uuid.UUID, collections ...string) {
	if !c.enabled() || len(collections) == 0 {
		return
	}
	keys := make([]string, 0, len(collections))
	for _, col := range collections {
		keys = append(keys, collectionKey(salonID, col))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidation failed", "salon", salonID, "keys", keys, "error", err)
	}
}

// CachedList serves a list from the cache, falling back to load on a miss or
// any Redis error.
func CachedList[T any](ctx context.Context, c *CollectionCache, salonID uuid.UUID, collection, variant string, load func() ([]T, error)) ([]T, error) {
	if !c.enabled() {
		return load()
	}
	key := collectionKey(salonID, collection)

	data, err := c.redis.HGet(ctx, key, variant).Bytes()
	switch {
	case err == nil:
		var out []T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		slog.Warn("discarding unreadable cache entry", "key", key, "variant", variant)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("redis error, continuing with database", "key", key, "error", err)
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		slog.Warn("failed to marshal cache entry", "key", key, "error", err)
		return items, nil
	}
	pipe := c.redis.TxPipeline()
	pipe.HSet(ctx, key, variant, payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("failed to populate cache", "key", key, "error", err)
	}
	return items, nil
}
