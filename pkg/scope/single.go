package scope

import (
	"context"

	"github.com/google/uuid"
)

// SingleOwner enforces per-tenant isolation over a Collection of
// single-owner entities. Every read is filtered to the ambient tenant and
// every write is checked against it.
type SingleOwner[T Owned] struct {
	coll Collection[T]
}

// NewSingleOwner wraps coll with tenant scoping.
func NewSingleOwner[T Owned](coll Collection[T]) *SingleOwner[T] {
	return &SingleOwner[T]{coll: coll}
}

// Create inserts item stamped with the ambient tenant. When a tenant is
// ambient it always wins over whatever slug the item already carries.
// Without an ambient tenant the item's own slug is honored, which lets
// provisioning code create rows for a tenant it is not acting as; an item
// with neither fails closed.
func (s *SingleOwner[T]) Create(ctx context.Context, item T) error {
	if slug, err := ambientSlug(ctx); err == nil {
		item.SetTenantSlug(slug)
	} else if item.TenantSlug() == "" {
		return err
	}
	return s.coll.Insert(ctx, item)
}

// Get returns the entity only when it is owned by the ambient tenant.
// Another tenant's entity is reported as ErrNotFound, not as a permission
// failure, so existence does not leak across tenants.
func (s *SingleOwner[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	slug, err := ambientSlug(ctx)
	if err != nil {
		return zero, err
	}

	item, err := s.coll.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if item.TenantSlug() != slug {
		return zero, ErrNotFound
	}
	return item, nil
}

// List returns the ambient tenant's entities.
func (s *SingleOwner[T]) List(ctx context.Context) ([]T, error) {
	slug, err := ambientSlug(ctx)
	if err != nil {
		return nil, err
	}
	return s.coll.List(ctx, slug)
}

// ListFor returns entities for an explicit tenant, bypassing the ambient
// one. Intended for administrative and cross-tenant maintenance paths.
func (s *SingleOwner[T]) ListFor(ctx context.Context, tenantSlug string) ([]T, error) {
	return s.coll.List(ctx, tenantSlug)
}

// Update persists changes to an entity owned by the ambient tenant. The
// stored row's owner is authoritative, not the slug the item carries, so
// another tenant's entity reads as ErrNotFound and ownership cannot be
// reassigned through an update.
func (s *SingleOwner[T]) Update(ctx context.Context, item T) error {
	slug, err := ambientSlug(ctx)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, item.ID()); err != nil {
		return err
	}
	item.SetTenantSlug(slug)
	return s.coll.Update(ctx, item)
}

// Delete removes an entity owned by the ambient tenant.
func (s *SingleOwner[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.coll.Delete(ctx, id)
}

// Unscoped exposes the raw collection without tenant filtering.
func (s *SingleOwner[T]) Unscoped() Collection[T] {
	return s.coll
}
