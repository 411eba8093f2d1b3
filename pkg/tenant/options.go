package tenant

import (
	"errors"
	"net/http"
	"time"
)

// ErrorHandler renders tenant-resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// SessionWriter persists the resolved slug for stickiness on later requests.
type SessionWriter func(r *http.Request, slug string)

type middlewareConfig struct {
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	persist       SessionWriter
}

// Option configures the middleware.
type Option func(*middlewareConfig)

// WithCache swaps the tenant cache implementation (e.g. NewRedisCache).
func WithCache(cache Cache) Option {
	return func(c *middlewareConfig) { c.cache = cache }
}

// WithCacheTTL sets how long resolved tenants stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *middlewareConfig) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithErrorHandler replaces the default error responses.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths disables resolution for path prefixes (health checks, assets).
func WithSkipPaths(paths ...string) Option {
	return func(c *middlewareConfig) { c.skipPaths = append(c.skipPaths, paths...) }
}

// WithRequireActive controls whether inactive tenants are rejected.
func WithRequireActive(require bool) Option {
	return func(c *middlewareConfig) { c.requireActive = require }
}

// WithSessionPersistence stores the resolved slug in the session after each
// successful resolution, so the session strategy can answer next time.
func WithSessionPersistence(w SessionWriter) Option {
	return func(c *middlewareConfig) { c.persist = w }
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Tenant is inactive", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
