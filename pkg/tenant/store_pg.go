package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// PGStore is the PostgreSQL-backed tenant store.
type PGStore struct {
	pool       *pgxpool.Pool
	ownerPerms []string
}

// PGStoreOption configures the store.
type PGStoreOption func(*PGStore)

// WithOwnerPermissions sets the permission codes granted to the
// tenant_owner group when it is first provisioned.
func WithOwnerPermissions(perms []string) PGStoreOption {
	return func(s *PGStore) {
		if len(perms) > 0 {
			s.ownerPerms = perms
		}
	}
}

// NewPGStore builds a tenant store over a pgx pool.
func NewPGStore(pool *pgxpool.Pool, opts ...PGStoreOption) *PGStore {
	s := &PGStore{pool: pool, ownerPerms: DefaultOwnerPermissions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const tenantColumns = "slug, name, extra_data, settings, active, created_at, updated_at"

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.Slug, &t.Name, &t.ExtraData, &t.Settings, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}
	return &t, nil
}

func (s *PGStore) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE slug = $1", slug)
	return scanTenant(row)
}

func (s *PGStore) GetByDomain(ctx context.Context, domain string) (*Site, error) {
	var site Site
	err := s.pool.QueryRow(ctx,
		"SELECT id, tenant_slug, domain, created_at FROM tenant_sites WHERE domain = $1",
		domain,
	).Scan(&site.ID, &site.TenantSlug, &site.Domain, &site.CreatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("looking up site: %w", err)
	}
	return &site, nil
}

// Create provisions the tenant, its site, the owner group and the creating
// user's relationship in one transaction. Any failure rolls everything back.
func (s *PGStore) Create(ctx context.Context, t *Tenant, domain string, ownerID uuid.UUID) error {
	return pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO tenants (slug, name, extra_data, settings, active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`,
			t.Slug, t.Name, t.ExtraData, t.Settings, t.Active,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			if pg.IsUniqueViolation(err) {
				return ErrDuplicateTenantSlug
			}
			return fmt.Errorf("inserting tenant: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_sites (id, tenant_slug, domain)
			VALUES ($1, $2, $3)`,
			uuid.New(), t.Slug, domain,
		); err != nil {
			if pg.IsUniqueViolation(err) {
				return ErrDuplicateDomain
			}
			return fmt.Errorf("inserting tenant site: %w", err)
		}

		// Idempotent: the owner group is shared by all tenants and only the
		// first tenant creation actually inserts it.
		if _, err := tx.Exec(ctx, `
			INSERT INTO groups (name, permissions)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`,
			OwnerGroupName, s.ownerPerms,
		); err != nil {
			return fmt.Errorf("provisioning owner group: %w", err)
		}

		relID := uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_relationships (id, user_id, tenant_slug, permissions)
			VALUES ($1, $2, $3, $4)`,
			relID, ownerID, t.Slug, []string{},
		); err != nil {
			return fmt.Errorf("inserting owner relationship: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_relationship_groups (relationship_id, group_name)
			VALUES ($1, $2)`,
			relID, OwnerGroupName,
		); err != nil {
			return fmt.Errorf("attaching owner group: %w", err)
		}

		return nil
	})
}

func (s *PGStore) UpdateExtraData(ctx context.Context, slug string, data map[string]any) error {
	return s.updateAttrColumn(ctx, "extra_data", slug, data)
}

func (s *PGStore) UpdateSettings(ctx context.Context, slug string, data map[string]any) error {
	return s.updateAttrColumn(ctx, "settings", slug, data)
}

func (s *PGStore) updateAttrColumn(ctx context.Context, column, slug string, data map[string]any) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE tenants SET "+column+" = $2, updated_at = now() WHERE slug = $1",
		slug, data)
	if err != nil {
		return fmt.Errorf("updating tenant %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// DeleteSite removes a host mapping. The row is the 1:1 link itself, so
// deleting it severs host-based resolution for that domain.
func (s *PGStore) DeleteSite(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tenant_sites WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting tenant site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

func (s *PGStore) GetRelationship(ctx context.Context, userID uuid.UUID, slug string) (*Relationship, error) {
	var rel Relationship
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.user_id, r.tenant_slug, r.permissions, r.created_at,
		       COALESCE(array_agg(g.group_name) FILTER (WHERE g.group_name IS NOT NULL), '{}')
		FROM tenant_relationships r
		LEFT JOIN tenant_relationship_groups g ON g.relationship_id = r.id
		WHERE r.user_id = $1 AND r.tenant_slug = $2
		GROUP BY r.id`,
		userID, slug,
	).Scan(&rel.ID, &rel.UserID, &rel.TenantSlug, &rel.Permissions, &rel.CreatedAt, &rel.Groups)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrRelationshipNotFound
		}
		return nil, fmt.Errorf("loading relationship: %w", err)
	}
	return &rel, nil
}

// EnsureGroup creates the group if it does not exist yet and returns the
// stored definition. Safe to call concurrently; the insert is a no-op when
// another caller won the race.
func (s *PGStore) EnsureGroup(ctx context.Context, name string, permissions []string) (*Group, error) {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO groups (name, permissions)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		name, permissions,
	); err != nil {
		return nil, fmt.Errorf("ensuring group %q: %w", name, err)
	}
	return s.GetGroup(ctx, name)
}

func (s *PGStore) GetGroup(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := s.pool.QueryRow(ctx,
		"SELECT name, permissions FROM groups WHERE name = $1", name,
	).Scan(&g.Name, &g.Permissions)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, fmt.Errorf("group %q: %w", name, ErrRelationshipNotFound)
		}
		return nil, fmt.Errorf("loading group: %w", err)
	}
	return &g, nil
}
