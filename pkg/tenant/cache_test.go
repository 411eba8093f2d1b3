package tenant_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/tenant"
)

func TestInMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme", &tenant.Tenant{Slug: "acme"}, time.Minute)
		got, ok := c.Get(ctx, "acme")
		require.True(t, ok)
		assert.Equal(t, "acme", got.Slug)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme", &tenant.Tenant{Slug: "acme"}, -time.Second)
		_, ok := c.Get(ctx, "acme")
		assert.False(t, ok)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		defer c.Close()

		c.Set(ctx, "acme", &tenant.Tenant{Slug: "acme"}, time.Minute)
		c.Delete(ctx, "acme")
		_, ok := c.Get(ctx, "acme")
		assert.False(t, ok)
	})

	t.Run("least recently used entry is evicted at capacity", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCacheWithSize(2)
		defer c.Close()

		c.Set(ctx, "a", &tenant.Tenant{Slug: "a"}, time.Minute)
		c.Set(ctx, "b", &tenant.Tenant{Slug: "b"}, time.Minute)
		c.Get(ctx, "a") // touch a, making b the eviction candidate
		c.Set(ctx, "c", &tenant.Tenant{Slug: "c"}, time.Minute)

		_, ok := c.Get(ctx, "b")
		assert.False(t, ok)
		_, ok = c.Get(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCacheWithSize(8)
		defer c.Close()

		done := make(chan struct{})
		for i := 0; i < 4; i++ {
			go func(i int) {
				defer func() { done <- struct{}{} }()
				for j := 0; j < 100; j++ {
					slug := fmt.Sprintf("t-%d-%d", i, j%10)
					c.Set(ctx, slug, &tenant.Tenant{Slug: slug}, time.Minute)
					c.Get(ctx, slug)
				}
			}(i)
		}
		for i := 0; i < 4; i++ {
			<-done
		}
	})
}

func TestNoopCache(t *testing.T) {
	t.Parallel()

	c := tenant.NewNoopCache()
	c.Set(context.Background(), "acme", &tenant.Tenant{Slug: "acme"}, time.Minute)
	_, ok := c.Get(context.Background(), "acme")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}
