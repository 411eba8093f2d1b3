package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/scopes"
	"github.com/sharedschema/tenantkit/pkg/tenant"
)

// Directory is the subset of the tenant store the checker reads.
type Directory interface {
	GetRelationship(ctx context.Context, userID uuid.UUID, tenantSlug string) (*tenant.Relationship, error)
	GetGroup(ctx context.Context, name string) (*tenant.Group, error)
}

// GroupEnsurer is implemented by stores that can provision groups.
type GroupEnsurer interface {
	EnsureGroup(ctx context.Context, name string, permissions []string) (*tenant.Group, error)
}

// EnsureOwnerGroup provisions the tenant_owner group with the given
// permission set (tenant.DefaultOwnerPermissions when empty). Idempotent;
// an existing group keeps its current permissions.
func EnsureOwnerGroup(ctx context.Context, store GroupEnsurer, permissions []string) (*tenant.Group, error) {
	if len(permissions) == 0 {
		permissions = tenant.DefaultOwnerPermissions
	}
	return store.EnsureGroup(ctx, tenant.OwnerGroupName, permissions)
}

// Checker evaluates user permissions within the ambient tenant.
type Checker struct {
	dir Directory
	log *slog.Logger
}

// CheckerOption configures the checker.
type CheckerOption func(*Checker)

// WithCheckerLogger sets the logger used for denied checks.
func WithCheckerLogger(log *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

func NewChecker(dir Directory, opts ...CheckerOption) *Checker {
	c := &Checker{dir: dir, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Can reports whether the user holds the permission within the ambient
// tenant. A user with no relationship to the tenant simply cannot, without
// error; operational failures (no ambient tenant, storage errors) are
// returned so callers do not mistake them for a denial.
func (c *Checker) Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return false, tenant.ErrNoTenantInContext
	}

	perms, err := c.Permissions(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return false, nil
		}
		return false, err
	}

	if scopes.Has(perms, permission) {
		return true, nil
	}
	c.log.DebugContext(ctx, "permission denied",
		slog.String("tenant", slug),
		slog.String("user_id", userID.String()),
		slog.String("permission", permission))
	return false, nil
}

// Permissions returns the user's effective permission codes within the
// ambient tenant: direct grants plus every group's permissions, normalized
// and deduplicated.
func (c *Checker) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}

	rel, err := c.dir.GetRelationship(ctx, userID, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrRelationshipNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("load relationship: %w", err)
	}

	perms := append([]string{}, rel.Permissions...)
	for _, name := range rel.Groups {
		group, err := c.dir.GetGroup(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load group %q: %w", name, err)
		}
		perms = append(perms, group.Permissions...)
	}
	return scopes.Normalize(perms), nil
}

// IsMember reports whether the user has any relationship with the ambient
// tenant.
func (c *Checker) IsMember(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := c.Permissions(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
