package hospitals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// DefaultCacheTTL is used when no TTL is configured. Hospital reference
// data changes rarely compared to how often booking forms read it.
const DefaultCacheTTL = 10 * time.Minute

// CachedStore fronts the hospital store with a Redis cache for the hot
// read paths the booking form hits. Writes go straight through and
// invalidate the affected keys; cache trouble degrades to database
// reads rather than failing requests.
type CachedStore struct {
	store  *Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps store with Redis caching.
func NewCachedStore(store *Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if store == nil {
		panic("hospitals: store required")
	}
	if client == nil {
		panic("hospitals: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedStore{store: store, redis: client, ttl: ttl, logger: logger}
}

// GetHospital reads through the cache.
func (c *CachedStore) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	key := hospitalKey(id)
	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var h Hospital
		if err := json.Unmarshal(data, &h); err == nil {
			return &h, nil
		}
		// A corrupt entry is dropped and refilled from the database.
		c.redis.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Error("hospital cache read failed", "key", key, "error", err)
	}

	h, err := c.store.GetHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, h)
	return h, nil
}

// ListActive reads the active-hospital listing through the cache.
func (c *CachedStore) ListActive(ctx context.Context) ([]*Hospital, error) {
	const key = "hospitals:active"
	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var out []*Hospital
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		c.redis.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Error("hospital cache read failed", "key", key, "error", err)
	}

	out, err := c.store.ListHospitals(ctx, true)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, out)
	return out, nil
}

// Invalidate drops the cached entries touched by a hospital write.
func (c *CachedStore) Invalidate(ctx context.Context, hospitalID uuid.UUID) {
	keys := []string{hospitalKey(hospitalID), "hospitals:active"}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("hospital cache invalidate failed", "error", err)
	}
}

func (c *CachedStore) fill(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("hospital cache write failed", "key", key, "error", err)
	}
}

func hospitalKey(id uuid.UUID) string {
	return fmt.Sprintf("hospital:%s", id)
}
