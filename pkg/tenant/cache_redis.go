package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved tenants across processes. Errors degrade to a
// cache miss; the provider remains the source of truth.
type redisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache wraps a connected redis client as a tenant Cache.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client, keyPrefix: "tenant:"}
}

func (c *redisCache) Get(ctx context.Context, slug string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.keyPrefix+slug).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, slug string, t *Tenant, ttl time.Duration) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.keyPrefix+slug, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, slug string) {
	_ = c.client.Del(ctx, c.keyPrefix+slug).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
