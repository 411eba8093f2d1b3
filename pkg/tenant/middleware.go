package tenant

import (
	"net/http"
	"strings"
	"time"
)

// Middleware resolves the tenant for each request exactly once and stamps
// it into the request context. Resolution runs the strategy chain; a
// strategy error short-circuits the request. When no strategy has an
// opinion the request continues without a tenant — downstream code decides
// whether that is acceptable (see RequireTenant).
//
// Because the tenant rides the request context, it is released on every
// exit path of the handler, including panics; no cleanup call is needed.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		cache:         NewInMemoryCache(),
		cacheTTL:      5 * time.Minute,
		errorHandler:  defaultErrorHandler,
		requireActive: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slug, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if slug == "" {
				next.ServeHTTP(w, r)
				return
			}

			t, ok := cfg.cache.Get(r.Context(), slug)
			if !ok {
				t, err = provider.GetBySlug(r.Context(), slug)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				cfg.cache.Set(r.Context(), slug, t, cfg.cacheTTL)
			}

			if cfg.requireActive && !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			if cfg.persist != nil {
				cfg.persist(r, t.Slug)
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

// RequireTenant rejects requests whose context carries no tenant. Put it in
// front of routes where scoping is mandatory.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SlugFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrTenantNotFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
