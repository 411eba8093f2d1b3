package tenant

import (
	"errors"
	"net/http"
	"strings"
)

// DefaultHeaderName is the HTTP header consulted by the header strategy
// unless configured otherwise.
const DefaultHeaderName = "Tenant-Slug"

// SessionKey is the session entry holding the sticky tenant slug.
const SessionKey = "tenant_slug"

// Resolver is one strategy for determining the tenant a request belongs to.
// An empty slug with a nil error means "this strategy has no opinion" and
// the next strategy runs. A non-nil error (typically ErrTenantNotFound:
// the strategy identified a tenant that does not exist) aborts resolution
// entirely — it is not the same as having no opinion.
type Resolver interface {
	Resolve(r *http.Request) (slug string, err error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// HostResolver resolves the tenant owning the request's host via registered
// sites. An unregistered host is no opinion, not an error.
type HostResolver struct {
	sites SiteLookup
}

func NewHostResolver(sites SiteLookup) *HostResolver {
	return &HostResolver{sites: sites}
}

func (hr *HostResolver) Resolve(r *http.Request) (string, error) {
	host := r.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if host == "" {
		return "", nil
	}

	site, err := hr.sites.GetByDomain(r.Context(), host)
	if err != nil {
		if errors.Is(err, ErrSiteNotFound) {
			return "", nil
		}
		return "", err
	}
	return site.TenantSlug, nil
}

// HeaderResolver reads the tenant slug from an HTTP header.
type HeaderResolver struct {
	name string
}

func NewHeaderResolver(name string) *HeaderResolver {
	if name == "" {
		name = DefaultHeaderName
	}
	return &HeaderResolver{name: name}
}

func (hr *HeaderResolver) Resolve(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get(hr.name)), nil
}

// SessionData is the minimal session surface the session strategy needs.
type SessionData interface {
	GetString(key string) string
}

// SessionResolver reads a previously persisted tenant slug from the
// request's session, giving users sticky tenancy across requests.
type SessionResolver struct {
	getSession func(r *http.Request) (SessionData, error)
}

func NewSessionResolver(getSession func(r *http.Request) (SessionData, error)) *SessionResolver {
	return &SessionResolver{getSession: getSession}
}

func (sr *SessionResolver) Resolve(r *http.Request) (string, error) {
	if sr.getSession == nil {
		return "", errors.New("session resolver: no session accessor configured")
	}

	session, err := sr.getSession(r)
	if err != nil || session == nil {
		return "", err
	}
	return session.GetString(SessionKey), nil
}

// ContextResolver falls back to whatever tenant is already in the request
// context. This covers non-HTTP entry points — background jobs that seed
// the context themselves before invoking shared handler code.
type ContextResolver struct{}

func NewContextResolver() *ContextResolver {
	return &ContextResolver{}
}

func (cr *ContextResolver) Resolve(r *http.Request) (string, error) {
	if slug, ok := SlugFromContext(r.Context()); ok {
		return slug, nil
	}
	return "", nil
}

// ChainResolver runs strategies in the configured order and stops at the
// first one that produces a slug or fails. No strategy yielding a tenant is
// a valid outcome, returned as an empty slug.
type ChainResolver struct {
	resolvers []Resolver
}

func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

func (c *ChainResolver) Resolve(r *http.Request) (string, error) {
	for _, resolver := range c.resolvers {
		slug, err := resolver.Resolve(r)
		if err != nil {
			return "", err
		}
		if slug != "" {
			return slug, nil
		}
	}
	return "", nil
}
