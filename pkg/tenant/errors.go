package tenant

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound is returned when a tenant cannot be located for a
	// slug, or when a scoped operation requires an ambient tenant and none
	// is set.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSiteNotFound is returned when no site row matches a domain.
	ErrSiteNotFound = errors.New("tenant site not found")

	// ErrDuplicateTenantSlug is returned when a tenant with the slug
	// already exists. User-correctable.
	ErrDuplicateTenantSlug = errors.New("tenant slug already taken")

	// ErrDuplicateDomain is returned when a site with the domain is already
	// registered. User-correctable.
	ErrDuplicateDomain = errors.New("domain already registered to a tenant")

	// ErrNoTenantInContext is returned when a caller requires a tenant in
	// context and none is present. It matches ErrTenantNotFound under
	// errors.Is so fail-closed scoped reads surface uniformly.
	ErrNoTenantInContext = fmt.Errorf("%w: no tenant in context", ErrTenantNotFound)

	// ErrInactiveTenant is returned when a resolved tenant is deactivated.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrRelationshipNotFound is returned when a user has no relationship
	// with the tenant in question.
	ErrRelationshipNotFound = errors.New("tenant relationship not found")

	// ErrInvalidTypeConfiguration is a configuration error: an attribute
	// schema declares an unsupported type or references an unregistered
	// validator. Fails loudly at schema construction, never at write time.
	ErrInvalidTypeConfiguration = errors.New("invalid attribute type configuration")
)
