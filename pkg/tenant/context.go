package tenant

import (
	"context"
	"log/slog"

	"github.com/sharedschema/tenantkit/pkg/logger"
)

// The ambient tenant rides the request context rather than any global
// execution-unit map: the context dies with the unit of work on every exit
// path (return, panic, cancellation), so a reused goroutine can never
// inherit a stale tenant.

type contextKey struct{}

// WithTenant stores a fully-loaded tenant in the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, ResolvedHandle(t))
}

// WithHandle stores a lazy tenant handle in the context. Storage is not
// touched until the handle is dereferenced.
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, contextKey{}, h)
}

// WithSlug is shorthand for WithHandle(ctx, NewHandle(provider, slug)).
func WithSlug(ctx context.Context, provider Provider, slug string) context.Context {
	return context.WithValue(ctx, contextKey{}, NewHandle(provider, slug))
}

// HandleFromContext returns the stored handle, resolved or not.
func HandleFromContext(ctx context.Context) (*Handle, bool) {
	h, ok := ctx.Value(contextKey{}).(*Handle)
	return h, ok && h != nil
}

// SlugFromContext returns the ambient tenant slug without hitting storage.
// Absence is a valid state; callers choose fail-open or fail-closed.
func SlugFromContext(ctx context.Context) (string, bool) {
	h, ok := HandleFromContext(ctx)
	if !ok || h.Slug() == "" {
		return "", false
	}
	return h.Slug(), true
}

// FromContext returns the ambient tenant if it has already been resolved.
// It never performs I/O; use CurrentTenant to force resolution.
func FromContext(ctx context.Context) (*Tenant, bool) {
	h, ok := HandleFromContext(ctx)
	if !ok {
		return nil, false
	}
	return h.Resolved()
}

// CurrentTenant dereferences the ambient handle, performing the provider
// lookup if it has not happened yet. Returns ErrNoTenantInContext when the
// context carries no tenant at all.
func CurrentTenant(ctx context.Context) (*Tenant, error) {
	h, ok := HandleFromContext(ctx)
	if !ok {
		return nil, ErrNoTenantInContext
	}
	return h.Resolve(ctx)
}

// MustFromContext returns the resolved ambient tenant or panics. Only for
// handlers behind RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no resolved tenant in context")
	}
	return t
}

// LoggerExtractor stamps the ambient tenant slug onto every log record
// emitted with a tenant-carrying context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if s, ok := SlugFromContext(ctx); ok {
			return slog.String("tenant", s), true
		}
		return slog.Attr{}, false
	}
}
