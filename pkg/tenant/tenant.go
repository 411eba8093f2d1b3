package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is one isolated organization sharing the physical schema with all
// others. The slug is the primary identity: immutable, globally unique and
// URL-safe.
type Tenant struct {
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	ExtraData map[string]any `json:"extra_data"`
	Settings  map[string]any `json:"settings"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Site links a network host to a tenant for host-based resolution.
// Each domain maps to exactly one tenant.
type Site struct {
	ID         uuid.UUID `json:"id"`
	TenantSlug string    `json:"tenant_slug"`
	Domain     string    `json:"domain"`
	CreatedAt  time.Time `json:"created_at"`
}

// Relationship ties a user to a tenant. Groups and permission codes are
// scoped to that tenant: a role granted here means nothing anywhere else.
// Unique on (user, tenant).
type Relationship struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	TenantSlug  string    `json:"tenant_slug"`
	Groups      []string  `json:"groups"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// Group names a reusable permission bundle. The "tenant_owner" group is
// provisioned automatically the first time a tenant is created.
type Group struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// OwnerGroupName is attached to the creating user of every new tenant.
const OwnerGroupName = "tenant_owner"

// Provider loads a tenant by slug. Returns ErrTenantNotFound when no tenant
// carries the slug.
type Provider interface {
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
}

// SiteLookup maps a request host to the owning tenant's slug. Returns
// ErrSiteNotFound when the domain is not registered.
type SiteLookup interface {
	GetByDomain(ctx context.Context, domain string) (*Site, error)
}

// Store is the full persistence surface for tenant records. Create runs as
// one transaction covering the tenant row, its site, the creator's
// relationship and the idempotent owner group.
type Store interface {
	Provider
	SiteLookup

	Create(ctx context.Context, t *Tenant, domain string, ownerID uuid.UUID) error
	UpdateExtraData(ctx context.Context, slug string, data map[string]any) error
	UpdateSettings(ctx context.Context, slug string, data map[string]any) error
	DeleteSite(ctx context.Context, id uuid.UUID) error
	GetRelationship(ctx context.Context, userID uuid.UUID, slug string) (*Relationship, error)
	GetGroup(ctx context.Context, name string) (*Group, error)
}
