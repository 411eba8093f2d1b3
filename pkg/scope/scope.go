package scope

import (
	"context"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/tenant"
)

// Owned is an entity that belongs to exactly one tenant. Implementations
// are pointer types; SetTenantSlug mutates the receiver.
type Owned interface {
	ID() uuid.UUID
	TenantSlug() string
	SetTenantSlug(slug string)
}

// Member is an entity shared across tenants. Key is the global
// deduplication key (a normalized name, typically). Tenants lists the
// slugs of every tenant the entity is attached to.
type Member interface {
	ID() uuid.UUID
	Key() string
	Tenants() []string
	SetTenants(slugs []string)
}

// Collection is the storage backend for single-owner entities. It is
// unscoped; SingleOwner layers the tenant filtering on top.
type Collection[T Owned] interface {
	Insert(ctx context.Context, item T) error
	Get(ctx context.Context, id uuid.UUID) (T, error)
	// List returns entities owned by tenantSlug, or every entity when
	// tenantSlug is empty.
	List(ctx context.Context, tenantSlug string) ([]T, error)
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemberCollection is the storage backend for shared entities. Upsert is
// the atomic dedup-or-insert: it either creates the entity with the given
// tenant attached or attaches the tenant to the existing entity with the
// same key, and returns the stored entity with its full membership set.
type MemberCollection[T Member] interface {
	Upsert(ctx context.Context, item T, tenantSlug string) (T, error)
	FindByKey(ctx context.Context, key string) (T, error)
	// List returns entities attached to tenantSlug, or every entity when
	// tenantSlug is empty.
	List(ctx context.Context, tenantSlug string) ([]T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func ambientSlug(ctx context.Context) (string, error) {
	slug, ok := tenant.SlugFromContext(ctx)
	if !ok {
		return "", tenant.ErrNoTenantInContext
	}
	return slug, nil
}
