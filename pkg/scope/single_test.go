package scope_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/scope"
	"github.com/sharedschema/tenantkit/pkg/tenant"
)

type project struct {
	id     uuid.UUID
	tenant string
	name   string
}

func (p *project) ID() uuid.UUID            { return p.id }
func (p *project) TenantSlug() string       { return p.tenant }
func (p *project) SetTenantSlug(slug string) { p.tenant = slug }

func tenantCtx(slug string) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{Slug: slug, Active: true})
}

func TestSingleOwner(t *testing.T) {
	t.Parallel()

	t.Run("create stamps ambient tenant", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "launch"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))
		assert.Equal(t, "acme", p.TenantSlug())
	})

	t.Run("ambient tenant overrides a pre-stamped slug", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), tenant: "globex", name: "launch"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))
		assert.Equal(t, "acme", p.TenantSlug())
	})

	t.Run("create without any tenant fails closed", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		err := store.Create(context.Background(), &project{id: uuid.New(), name: "launch"})
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("list sees only the ambient tenant's rows", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		require.NoError(t, store.Create(tenantCtx("acme"), &project{id: uuid.New(), name: "a1"}))
		require.NoError(t, store.Create(tenantCtx("acme"), &project{id: uuid.New(), name: "a2"}))
		require.NoError(t, store.Create(tenantCtx("globex"), &project{id: uuid.New(), name: "g1"}))

		got, err := store.List(tenantCtx("acme"))
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, p := range got {
			assert.Equal(t, "acme", p.TenantSlug())
		}
	})

	t.Run("list without a tenant fails closed", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		_, err := store.List(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("cross-tenant get reads as not found", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "secret"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))

		_, err := store.Get(tenantCtx("globex"), p.ID())
		assert.ErrorIs(t, err, scope.ErrNotFound)

		got, err := store.Get(tenantCtx("acme"), p.ID())
		require.NoError(t, err)
		assert.Equal(t, "secret", got.name)
	})

	t.Run("cross-tenant delete reads as not found", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "keep"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))

		assert.ErrorIs(t, store.Delete(tenantCtx("globex"), p.ID()), scope.ErrNotFound)

		got, err := store.Get(tenantCtx("acme"), p.ID())
		require.NoError(t, err)
		assert.Equal(t, "keep", got.name)
	})

	t.Run("cross-tenant update reads as not found", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "original"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))

		// A caller stamping its own slug on someone else's row ID must
		// not be able to take the row over.
		hijack := &project{id: p.ID(), tenant: "globex", name: "hijacked"}
		assert.ErrorIs(t, store.Update(tenantCtx("globex"), hijack), scope.ErrNotFound)

		got, err := store.Get(tenantCtx("acme"), p.ID())
		require.NoError(t, err)
		assert.Equal(t, "original", got.name)
		assert.Equal(t, "acme", got.TenantSlug())
	})

	t.Run("update cannot move a row to another tenant", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "launch"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))

		renamed := &project{id: p.ID(), tenant: "globex", name: "renamed"}
		require.NoError(t, store.Update(tenantCtx("acme"), renamed))

		got, err := store.Get(tenantCtx("acme"), p.ID())
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.name)
		assert.Equal(t, "acme", got.TenantSlug())
	})

	t.Run("explicit override lists another tenant", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		require.NoError(t, store.Create(tenantCtx("acme"), &project{id: uuid.New(), name: "a1"}))

		got, err := store.ListFor(context.Background(), "acme")
		require.NoError(t, err)
		assert.Len(t, got, 1)

		all, err := store.ListFor(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("unscoped bypasses filtering", func(t *testing.T) {
		t.Parallel()

		store := scope.NewSingleOwner[*project](scope.NewMemoryCollection[*project]())
		p := &project{id: uuid.New(), name: "raw"}
		require.NoError(t, store.Create(tenantCtx("acme"), p))

		got, err := store.Unscoped().Get(context.Background(), p.ID())
		require.NoError(t, err)
		assert.Equal(t, "raw", got.name)
	})
}
