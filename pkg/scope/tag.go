package scope

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tag is the reference Member implementation: a label deduplicated by name
// across the installation and shared between tenants through memberships.
type Tag struct {
	TagID       uuid.UUID
	Name        string
	TenantSlugs []string
	CreatedAt   time.Time
}

// NewTag builds an unattached tag; Create attaches the ambient tenant.
func NewTag(name string) *Tag {
	return &Tag{TagID: uuid.New(), Name: name, CreatedAt: time.Now()}
}

func (t *Tag) ID() uuid.UUID             { return t.TagID }
func (t *Tag) Key() string               { return t.Name }
func (t *Tag) Tenants() []string         { return t.TenantSlugs }
func (t *Tag) SetTenants(slugs []string) { t.TenantSlugs = slugs }

// NewPGTagCollection maps Tag onto the tags and tag_tenants tables.
func NewPGTagCollection(pool *pgxpool.Pool) (*PGMemberCollection[*Tag], error) {
	return NewPGMemberCollection(pool, PGMemberCollectionConfig[*Tag]{
		Table:            "tags",
		Columns:          []string{"id", "name", "created_at"},
		JoinTable:        "tag_tenants",
		JoinEntityColumn: "tag_id",
		Row: func(row pgx.CollectableRow) (*Tag, error) {
			var t Tag
			if err := row.Scan(&t.TagID, &t.Name, &t.CreatedAt); err != nil {
				return nil, err
			}
			return &t, nil
		},
		Values: func(t *Tag) []any {
			return []any{t.TagID, t.Name, t.CreatedAt}
		},
	})
}

// NewTagStore returns the tenant-scoped tag store backed by Postgres.
func NewTagStore(pool *pgxpool.Pool) (*MultiMember[*Tag], error) {
	coll, err := NewPGTagCollection(pool)
	if err != nil {
		return nil, err
	}
	return NewMultiMember[*Tag](coll), nil
}
