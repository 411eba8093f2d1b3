package membership_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/membership"
	"github.com/sharedschema/tenantkit/pkg/tenant"
)

type grantDirectory struct {
	userID uuid.UUID
	perms  []string
}

func (d grantDirectory) GetRelationship(_ context.Context, userID uuid.UUID, slug string) (*tenant.Relationship, error) {
	if userID != d.userID {
		return nil, tenant.ErrRelationshipNotFound
	}
	return &tenant.Relationship{UserID: userID, TenantSlug: slug, Permissions: d.perms}, nil
}

func (d grantDirectory) GetGroup(context.Context, string) (*tenant.Group, error) {
	return nil, tenant.ErrRelationshipNotFound
}

func TestChecker(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	outsider := uuid.New()

	newChecker := func(t *testing.T) *membership.Checker {
		t.Helper()
		store := tenant.NewMemoryStore()
		svc := tenant.NewService(store)
		_, err := svc.CreateTenant(context.Background(), tenant.CreateTenantInput{
			Name: "Acme", Slug: "acme", Domain: "acme.example.com", OwnerID: owner,
		})
		require.NoError(t, err)
		return membership.NewChecker(store)
	}

	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{Slug: "acme", Active: true})

	t.Run("owner holds group permissions", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)
		ok, err := checker.Can(ctx, owner, "tenant.change")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown permission is denied without error", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)
		ok, err := checker.Can(ctx, owner, "payments.refund")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-member is denied without error", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)
		ok, err := checker.Can(ctx, outsider, "tenant.change")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing ambient tenant is an error, not a denial", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)
		_, err := checker.Can(context.Background(), owner, "tenant.change")
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("permissions union direct grants and groups", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)
		perms, err := checker.Permissions(ctx, owner)
		require.NoError(t, err)
		assert.Contains(t, perms, "tenant.change")
	})

	t.Run("wildcard grant covers nested codes", func(t *testing.T) {
		t.Parallel()

		checker := membership.NewChecker(grantDirectory{userID: owner, perms: []string{"billing.*"}})
		ok, err := checker.Can(ctx, owner, "billing.invoice.read")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = checker.Can(ctx, owner, "reports.read")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("membership check", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(t)

		ok, err := checker.IsMember(ctx, owner)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = checker.IsMember(ctx, outsider)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
