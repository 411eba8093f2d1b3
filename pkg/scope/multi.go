package scope

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// MultiMember manages entities shared across tenants. Entities are unique
// by Key across the whole installation; each tenant sees only the entities
// it is attached to.
type MultiMember[T Member] struct {
	coll MemberCollection[T]
}

// NewMultiMember wraps coll with tenant scoping.
func NewMultiMember[T Member](coll MemberCollection[T]) *MultiMember[T] {
	return &MultiMember[T]{coll: coll}
}

// Create attaches the ambient tenant to the entity with item's key,
// inserting the entity first if no tenant has created it yet. The returned
// entity carries the full membership set, so creating "urgent" under a
// second tenant yields the same entity with both tenants attached.
func (m *MultiMember[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T

	slug, err := ambientSlug(ctx)
	if err != nil {
		return zero, err
	}
	return m.coll.Upsert(ctx, item, slug)
}

// Get returns the entity by key, provided the ambient tenant is attached
// to it. Entities the tenant is not a member of read as ErrNotFound.
func (m *MultiMember[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	slug, err := ambientSlug(ctx)
	if err != nil {
		return zero, err
	}

	item, err := m.coll.FindByKey(ctx, key)
	if err != nil {
		return zero, err
	}
	if !slices.Contains(item.Tenants(), slug) {
		return zero, ErrNotFound
	}
	return item, nil
}

// List returns the entities the ambient tenant is attached to.
func (m *MultiMember[T]) List(ctx context.Context) ([]T, error) {
	slug, err := ambientSlug(ctx)
	if err != nil {
		return nil, err
	}
	return m.coll.List(ctx, slug)
}

// ListFor returns entities attached to an explicit tenant.
func (m *MultiMember[T]) ListFor(ctx context.Context, tenantSlug string) ([]T, error) {
	return m.coll.List(ctx, tenantSlug)
}

// Delete removes the entity for every tenant. There is no per-tenant
// detach on this path; it is an administrative operation.
func (m *MultiMember[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return m.coll.Delete(ctx, id)
}

// Unscoped exposes the raw collection without tenant filtering.
func (m *MultiMember[T]) Unscoped() MemberCollection[T] {
	return m.coll
}
