package scope

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryCollection is an in-memory Collection used by tests and
// single-process embedding. Entities are stored by reference; callers own
// any copying.
type MemoryCollection[T Owned] struct {
	mu    sync.RWMutex
	items map[uuid.UUID]T
}

func NewMemoryCollection[T Owned]() *MemoryCollection[T] {
	return &MemoryCollection[T]{items: make(map[uuid.UUID]T)}
}

func (c *MemoryCollection[T]) Insert(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[item.ID()]; ok {
		return ErrDuplicateID
	}
	c.items[item.ID()] = item
	return nil
}

func (c *MemoryCollection[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

func (c *MemoryCollection[T]) List(ctx context.Context, tenantSlug string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, item := range c.items {
		if tenantSlug == "" || item.TenantSlug() == tenantSlug {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return compareStrings(a.ID().String(), b.ID().String())
	})
	return out, nil
}

func (c *MemoryCollection[T]) Update(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[item.ID()]; !ok {
		return ErrNotFound
	}
	c.items[item.ID()] = item
	return nil
}

func (c *MemoryCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return ErrNotFound
	}
	delete(c.items, id)
	return nil
}

// MemoryMemberCollection is an in-memory MemberCollection. Upsert runs
// under a single lock, giving the same atomicity as the Postgres
// implementation's transaction.
type MemoryMemberCollection[T Member] struct {
	mu    sync.RWMutex
	byKey map[string]T
}

func NewMemoryMemberCollection[T Member]() *MemoryMemberCollection[T] {
	return &MemoryMemberCollection[T]{byKey: make(map[string]T)}
}

func (c *MemoryMemberCollection[T]) Upsert(ctx context.Context, item T, tenantSlug string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.byKey[item.Key()]
	if !ok {
		item.SetTenants([]string{tenantSlug})
		c.byKey[item.Key()] = item
		return item, nil
	}
	if !slices.Contains(existing.Tenants(), tenantSlug) {
		existing.SetTenants(append(existing.Tenants(), tenantSlug))
	}
	return existing, nil
}

func (c *MemoryMemberCollection[T]) FindByKey(ctx context.Context, key string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byKey[key]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

func (c *MemoryMemberCollection[T]) List(ctx context.Context, tenantSlug string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, item := range c.byKey {
		if tenantSlug == "" || slices.Contains(item.Tenants(), tenantSlug) {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return compareStrings(a.Key(), b.Key())
	})
	return out, nil
}

func (c *MemoryMemberCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, item := range c.byKey {
		if item.ID() == id {
			delete(c.byKey, key)
			return nil
		}
	}
	return ErrNotFound
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
