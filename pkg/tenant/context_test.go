package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/tenant"
)

func TestContextPropagation(t *testing.T) {
	t.Parallel()

	t.Run("empty context has no tenant", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		_, ok := tenant.FromContext(ctx)
		assert.False(t, ok)
		_, ok = tenant.SlugFromContext(ctx)
		assert.False(t, ok)

		_, err := tenant.CurrentTenant(ctx)
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("resolved tenant round-trips", func(t *testing.T) {
		t.Parallel()

		acme := &tenant.Tenant{Slug: "acme", Name: "Acme", Active: true}
		ctx := tenant.WithTenant(context.Background(), acme)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", got.Slug)

		slug, ok := tenant.SlugFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", slug)
	})

	t.Run("lazy slug does not hit storage until dereferenced", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		ctx := tenant.WithSlug(context.Background(), store, "acme")

		// Slug is visible without any lookup.
		slug, ok := tenant.SlugFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", slug)

		// Unresolved handle yields no tenant yet.
		_, ok = tenant.FromContext(ctx)
		assert.False(t, ok)

		// Tenant created after the context was built: dereference succeeds.
		store.Put(&tenant.Tenant{Slug: "acme", Name: "Acme", Active: true})
		got, err := tenant.CurrentTenant(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)

		// Now memoized and visible without I/O.
		_, ok = tenant.FromContext(ctx)
		assert.True(t, ok)
	})

	t.Run("dereference of missing tenant fails without poisoning the handle", func(t *testing.T) {
		t.Parallel()

		store := tenant.NewMemoryStore()
		ctx := tenant.WithSlug(context.Background(), store, "ghost")

		_, err := tenant.CurrentTenant(ctx)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

		store.Put(&tenant.Tenant{Slug: "ghost", Active: true})
		got, err := tenant.CurrentTenant(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ghost", got.Slug)
	})

	t.Run("no leakage between sequential units of work", func(t *testing.T) {
		t.Parallel()

		// Same goroutine, two logical units of work: the second unit's
		// fresh context must not observe the first unit's tenant, even
		// though the first unit aborted mid-flight.
		unit := func(ctx context.Context, slug string, abort bool) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = assert.AnError
				}
			}()
			ctx = tenant.WithTenant(ctx, &tenant.Tenant{Slug: slug, Active: true})
			_ = ctx
			if abort {
				panic("mid-request failure")
			}
			return nil
		}

		require.Error(t, unit(context.Background(), "acme", true))

		next := context.Background()
		_, ok := tenant.SlugFromContext(next)
		assert.False(t, ok, "a new unit of work must start tenant-free")
	})

	t.Run("MustFromContext panics when empty", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { tenant.MustFromContext(context.Background()) })
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := tenant.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{Slug: "acme"})
	attr, ok := extract(ctx)
	require.True(t, ok)
	assert.Equal(t, "tenant", attr.Key)
	assert.Equal(t, "acme", attr.Value.String())
}
