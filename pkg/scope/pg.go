package scope

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// PGCollectionConfig maps a single-owner entity onto its table. Columns is
// the full insert/select column list; Row and Values translate between the
// entity and that column order.
type PGCollectionConfig[T Owned] struct {
	Table        string
	Columns      []string
	IDColumn     string // defaults to "id"
	TenantColumn string // defaults to "tenant_slug"
	Row          pgx.RowToFunc[T]
	Values       func(T) []any
}

// PGCollection is a Postgres-backed Collection.
type PGCollection[T Owned] struct {
	q   pg.Querier
	cfg PGCollectionConfig[T]
}

// NewPGCollection validates cfg and builds the collection. q is typically a
// *pgxpool.Pool; passing a pgx.Tx runs the collection inside a caller-owned
// transaction.
func NewPGCollection[T Owned](q pg.Querier, cfg PGCollectionConfig[T]) (*PGCollection[T], error) {
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}
	if cfg.TenantColumn == "" {
		cfg.TenantColumn = "tenant_slug"
	}
	if cfg.Table == "" || len(cfg.Columns) == 0 || cfg.Row == nil || cfg.Values == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("table, columns, row and values are required"))
	}
	if !slices.Contains(cfg.Columns, cfg.IDColumn) || !slices.Contains(cfg.Columns, cfg.TenantColumn) {
		return nil, errors.Join(ErrInvalidConfig, errors.New("columns must include the id and tenant columns"))
	}
	return &PGCollection[T]{q: q, cfg: cfg}, nil
}

func (c *PGCollection[T]) Insert(ctx context.Context, item T) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		c.cfg.Table,
		strings.Join(c.cfg.Columns, ", "),
		placeholders(1, len(c.cfg.Columns)),
	)
	if _, err := c.q.Exec(ctx, query, c.cfg.Values(item)...); err != nil {
		if pg.IsUniqueViolation(err) {
			return errors.Join(ErrDuplicateID, err)
		}
		return fmt.Errorf("insert %s: %w", c.cfg.Table, err)
	}
	return nil
}

func (c *PGCollection[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(c.cfg.Columns, ", "), c.cfg.Table, c.cfg.IDColumn,
	)
	rows, err := c.q.Query(ctx, query, id)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", c.cfg.Table, err)
	}

	item, err := pgx.CollectOneRow(rows, c.cfg.Row)
	if err != nil {
		if pg.IsNotFound(err) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", c.cfg.Table, err)
	}
	return item, nil
}

func (c *PGCollection[T]) List(ctx context.Context, tenantSlug string) ([]T, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s",
		strings.Join(c.cfg.Columns, ", "), c.cfg.Table,
	)
	args := []any{}
	if tenantSlug != "" {
		query += fmt.Sprintf(" WHERE %s = $1", c.cfg.TenantColumn)
		args = append(args, tenantSlug)
	}
	query += fmt.Sprintf(" ORDER BY %s", c.cfg.IDColumn)

	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.Table, err)
	}
	items, err := pgx.CollectRows(rows, c.cfg.Row)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.Table, err)
	}
	return items, nil
}

func (c *PGCollection[T]) Update(ctx context.Context, item T) error {
	values := c.cfg.Values(item)

	var (
		sets   []string
		args   []any
		id     any
		argPos = 1
	)
	for i, col := range c.cfg.Columns {
		if col == c.cfg.IDColumn {
			id = values[i]
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, values[i])
		argPos++
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		c.cfg.Table, strings.Join(sets, ", "), c.cfg.IDColumn, argPos,
	)
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", c.cfg.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PGCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", c.cfg.Table, c.cfg.IDColumn)
	tag, err := c.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.cfg.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PGMemberCollectionConfig maps a shared entity onto its table plus the
// membership join table. Columns covers the entity table only; memberships
// live in JoinTable as (JoinEntityColumn, JoinTenantColumn) pairs.
type PGMemberCollectionConfig[T Member] struct {
	Table            string
	Columns          []string
	IDColumn         string // defaults to "id"
	KeyColumn        string // defaults to "name"
	JoinTable        string
	JoinEntityColumn string // defaults to "entity_id"
	JoinTenantColumn string // defaults to "tenant_slug"
	Row              pgx.RowToFunc[T]
	Values           func(T) []any
}

// PGMemberCollection is a Postgres-backed MemberCollection. Upsert runs in
// a single transaction so the dedup check, the insert and the membership
// attach cannot interleave with a concurrent creator.
type PGMemberCollection[T Member] struct {
	pool *pgxpool.Pool
	cfg  PGMemberCollectionConfig[T]
}

func NewPGMemberCollection[T Member](pool *pgxpool.Pool, cfg PGMemberCollectionConfig[T]) (*PGMemberCollection[T], error) {
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}
	if cfg.KeyColumn == "" {
		cfg.KeyColumn = "name"
	}
	if cfg.JoinEntityColumn == "" {
		cfg.JoinEntityColumn = "entity_id"
	}
	if cfg.JoinTenantColumn == "" {
		cfg.JoinTenantColumn = "tenant_slug"
	}
	if cfg.Table == "" || cfg.JoinTable == "" || len(cfg.Columns) == 0 || cfg.Row == nil || cfg.Values == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("table, join table, columns, row and values are required"))
	}
	return &PGMemberCollection[T]{pool: pool, cfg: cfg}, nil
}

func (c *PGMemberCollection[T]) Upsert(ctx context.Context, item T, tenantSlug string) (T, error) {
	var out T

	err := pg.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		existing, err := c.findByKey(ctx, tx, item.Key(), true)
		switch {
		case err == nil:
			out = existing
		case errors.Is(err, ErrNotFound):
			// FOR UPDATE locks nothing for a missing key, so a concurrent
			// first-create can commit between the SELECT and this INSERT.
			// DO NOTHING absorbs that loss and the re-select converges on
			// the winner's row.
			insert := fmt.Sprintf(
				"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
				c.cfg.Table,
				strings.Join(c.cfg.Columns, ", "),
				placeholders(1, len(c.cfg.Columns)),
				c.cfg.KeyColumn,
			)
			tag, err := tx.Exec(ctx, insert, c.cfg.Values(item)...)
			if err != nil {
				return fmt.Errorf("insert %s: %w", c.cfg.Table, err)
			}
			if tag.RowsAffected() == 0 {
				winner, err := c.findByKey(ctx, tx, item.Key(), true)
				if err != nil {
					return err
				}
				out = winner
			} else {
				out = item
			}
		default:
			return err
		}

		attach := fmt.Sprintf(
			"INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			c.cfg.JoinTable, c.cfg.JoinEntityColumn, c.cfg.JoinTenantColumn,
		)
		if _, err := tx.Exec(ctx, attach, out.ID(), tenantSlug); err != nil {
			return fmt.Errorf("attach tenant to %s: %w", c.cfg.Table, err)
		}

		tenants, err := c.memberships(ctx, tx, out.ID())
		if err != nil {
			return err
		}
		out.SetTenants(tenants)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *PGMemberCollection[T]) FindByKey(ctx context.Context, key string) (T, error) {
	var zero T

	item, err := c.findByKey(ctx, c.pool, key, false)
	if err != nil {
		return zero, err
	}
	tenants, err := c.memberships(ctx, c.pool, item.ID())
	if err != nil {
		return zero, err
	}
	item.SetTenants(tenants)
	return item, nil
}

func (c *PGMemberCollection[T]) List(ctx context.Context, tenantSlug string) ([]T, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s e",
		strings.Join(prefixed("e", c.cfg.Columns), ", "), c.cfg.Table,
	)
	args := []any{}
	if tenantSlug != "" {
		query += fmt.Sprintf(
			" JOIN %s j ON j.%s = e.%s WHERE j.%s = $1",
			c.cfg.JoinTable, c.cfg.JoinEntityColumn, c.cfg.IDColumn, c.cfg.JoinTenantColumn,
		)
		args = append(args, tenantSlug)
	}
	query += fmt.Sprintf(" ORDER BY e.%s", c.cfg.KeyColumn)

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.Table, err)
	}
	items, err := pgx.CollectRows(rows, c.cfg.Row)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.Table, err)
	}

	for _, item := range items {
		tenants, err := c.memberships(ctx, c.pool, item.ID())
		if err != nil {
			return nil, err
		}
		item.SetTenants(tenants)
	}
	return items, nil
}

func (c *PGMemberCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	// Membership rows go with the entity via ON DELETE CASCADE.
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", c.cfg.Table, c.cfg.IDColumn)
	tag, err := c.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.cfg.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PGMemberCollection[T]) findByKey(ctx context.Context, q pg.Querier, key string, forUpdate bool) (T, error) {
	var zero T

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(c.cfg.Columns, ", "), c.cfg.Table, c.cfg.KeyColumn,
	)
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := q.Query(ctx, query, key)
	if err != nil {
		return zero, fmt.Errorf("find %s: %w", c.cfg.Table, err)
	}
	item, err := pgx.CollectOneRow(rows, c.cfg.Row)
	if err != nil {
		if pg.IsNotFound(err) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("find %s: %w", c.cfg.Table, err)
	}
	return item, nil
}

func (c *PGMemberCollection[T]) memberships(ctx context.Context, q pg.Querier, id uuid.UUID) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
		c.cfg.JoinTenantColumn, c.cfg.JoinTable, c.cfg.JoinEntityColumn, c.cfg.JoinTenantColumn,
	)
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("memberships for %s: %w", c.cfg.Table, err)
	}
	tenants, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("memberships for %s: %w", c.cfg.Table, err)
	}
	return tenants, nil
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = alias + "." + col
	}
	return out
}
