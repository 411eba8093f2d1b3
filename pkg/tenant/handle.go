package tenant

import (
	"context"
	"sync"
)

// Handle is a lazily-resolved tenant reference. It stores the slug
// immediately and defers the provider lookup until the first Resolve call,
// so a tenant may be placed in context before the row exists (background
// jobs queued during provisioning, tests). A successful lookup is memoized;
// failures are not, allowing a later Resolve to succeed once the tenant
// appears.
type Handle struct {
	slug     string
	provider Provider

	mu     sync.Mutex
	tenant *Tenant
}

// NewHandle builds an unresolved handle for slug.
func NewHandle(provider Provider, slug string) *Handle {
	return &Handle{slug: slug, provider: provider}
}

// ResolvedHandle wraps an already-loaded tenant, skipping any lookup.
func ResolvedHandle(t *Tenant) *Handle {
	return &Handle{slug: t.Slug, tenant: t}
}

// Slug returns the slug without touching storage.
func (h *Handle) Slug() string {
	return h.slug
}

// Resolve dereferences the handle, hitting the provider at most once for a
// tenant that exists.
func (h *Handle) Resolve(ctx context.Context) (*Tenant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.tenant != nil {
		return h.tenant, nil
	}
	if h.provider == nil {
		return nil, ErrTenantNotFound
	}

	t, err := h.provider.GetBySlug(ctx, h.slug)
	if err != nil {
		return nil, err
	}
	h.tenant = t
	return t, nil
}

// Resolved returns the memoized tenant, if any lookup has completed.
func (h *Handle) Resolved() (*Tenant, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tenant, h.tenant != nil
}
