package scope_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/scope"
	"github.com/sharedschema/tenantkit/pkg/tenant"
)

type tag struct {
	id      uuid.UUID
	name    string
	tenants []string
}

func (t *tag) ID() uuid.UUID             { return t.id }
func (t *tag) Key() string               { return t.name }
func (t *tag) Tenants() []string         { return t.tenants }
func (t *tag) SetTenants(slugs []string) { t.tenants = slugs }

func TestMultiMember(t *testing.T) {
	t.Parallel()

	newStore := func() *scope.MultiMember[*tag] {
		return scope.NewMultiMember[*tag](scope.NewMemoryMemberCollection[*tag]())
	}

	t.Run("first create inserts with ambient membership", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		got, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, got.Tenants())
	})

	t.Run("second tenant creating the same key attaches instead of duplicating", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		first, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)

		second, err := store.Create(tenantCtx("globex"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)

		assert.Equal(t, first.ID(), second.ID(), "same underlying entity")
		assert.ElementsMatch(t, []string{"acme", "globex"}, second.Tenants())
	})

	t.Run("repeat create by the same tenant is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		_, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)
		got, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, got.Tenants())
	})

	t.Run("concurrent first creates converge on one entity", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		slugs := []string{"acme", "globex", "initech", "hooli"}

		results := make([]*tag, len(slugs))
		var wg sync.WaitGroup
		for i, slug := range slugs {
			i, slug := i, slug
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := store.Create(tenantCtx(slug), &tag{id: uuid.New(), name: "urgent"})
				assert.NoError(t, err)
				results[i] = got
			}()
		}
		wg.Wait()

		for _, got := range results[1:] {
			assert.Equal(t, results[0].ID(), got.ID(), "every creator must land on the same entity")
		}

		winner, err := store.Get(tenantCtx("acme"), "urgent")
		require.NoError(t, err)
		assert.ElementsMatch(t, slugs, winner.Tenants())
	})

	t.Run("list shows only attached entities", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		_, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)
		_, err = store.Create(tenantCtx("globex"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)
		_, err = store.Create(tenantCtx("globex"), &tag{id: uuid.New(), name: "internal"})
		require.NoError(t, err)

		acme, err := store.List(tenantCtx("acme"))
		require.NoError(t, err)
		require.Len(t, acme, 1)
		assert.Equal(t, "urgent", acme[0].Key())

		globex, err := store.List(tenantCtx("globex"))
		require.NoError(t, err)
		assert.Len(t, globex, 2)

		initech, err := store.List(tenantCtx("initech"))
		require.NoError(t, err)
		assert.Empty(t, initech)
	})

	t.Run("get requires membership", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		_, err := store.Create(tenantCtx("acme"), &tag{id: uuid.New(), name: "urgent"})
		require.NoError(t, err)

		_, err = store.Get(tenantCtx("globex"), "urgent")
		assert.ErrorIs(t, err, scope.ErrNotFound)

		got, err := store.Get(tenantCtx("acme"), "urgent")
		require.NoError(t, err)
		assert.Equal(t, "urgent", got.Key())
	})

	t.Run("operations without a tenant fail closed", func(t *testing.T) {
		t.Parallel()

		store := newStore()
		_, err := store.Create(context.Background(), &tag{id: uuid.New(), name: "urgent"})
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
		_, err = store.List(context.Background())
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})
}
