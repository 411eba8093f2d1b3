package customfields

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// PGRowBackend stores dynamic table rows in custom_table_rows and their
// values in the pivot tables.
type PGRowBackend struct {
	pool   *pgxpool.Pool
	attrs  *PGAttributeStore
	engine *QueryEngine
}

func NewPGRowBackend(pool *pgxpool.Pool) *PGRowBackend {
	return &PGRowBackend{
		pool:   pool,
		attrs:  NewPGAttributeStore(pool),
		engine: NewQueryEngine(pool),
	}
}

// InsertRow writes the row and every pivot value in one transaction; a
// failed pivot write rolls the row back too.
func (b *PGRowBackend) InsertRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error {
	return pg.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO custom_table_rows (id, table_id, tenant_slug)
			VALUES ($1, $2, $3)
			RETURNING created_at, updated_at`,
			row.RowID, row.TableID, row.Tenant,
		).Scan(&row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
		return b.writeValues(ctx, tx, row, defs, values)
	})
}

// UpdateRow bumps the row and writes the changed pivot values in one
// transaction.
func (b *PGRowBackend) UpdateRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error {
	return pg.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE custom_table_rows SET updated_at = now()
			WHERE id = $1 AND table_id = $2`,
			row.RowID, row.TableID)
		if err != nil {
			return fmt.Errorf("updating row: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrRowNotFound
		}
		return b.writeValues(ctx, tx, row, defs, values)
	})
}

func (b *PGRowBackend) writeValues(ctx context.Context, tx pgx.Tx, row *Row, defs []*Definition, values map[string]any) error {
	byName := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	attrs := b.attrs.WithQuerier(tx)
	ref := EntityRef{Kind: KindTableRow, ID: row.RowID}
	for name, value := range values {
		def, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrFieldNotFound, name)
		}
		if err := attrs.Write(ctx, def, ref, value); err != nil {
			return err
		}
	}
	return nil
}

func (b *PGRowBackend) GetRow(ctx context.Context, tableID, rowID uuid.UUID, defs []*Definition) (*Row, error) {
	var row Row
	err := b.pool.QueryRow(ctx, `
		SELECT id, table_id, tenant_slug, created_at, updated_at
		FROM custom_table_rows WHERE id = $1 AND table_id = $2`,
		rowID, tableID,
	).Scan(&row.RowID, &row.TableID, &row.Tenant, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("loading row: %w", err)
	}

	values, err := b.attrs.ReadMany(ctx, defs, []EntityRef{{Kind: KindTableRow, ID: row.RowID}})
	if err != nil {
		return nil, err
	}
	row.Values = values[row.RowID]
	return &row, nil
}

func (b *PGRowBackend) ListRows(ctx context.Context, tableID uuid.UUID, defs []*Definition, filters []Filter, sorts []Sort) ([]*Row, error) {
	spec := SelectSpec{
		Table:    "custom_table_rows",
		Kind:     KindTableRow,
		Columns:  []string{"id", "table_id", "tenant_slug", "created_at", "updated_at"},
		Defs:     defs,
		Filters:  append([]Filter{{Field: "table_id", Op: OpEq, Value: tableID}}, filters...),
		Sorts:    sorts,
	}
	if len(sorts) == 0 {
		spec.Sorts = []Sort{{Field: "created_at"}}
	}

	records, err := b.engine.Select(ctx, spec)
	if err != nil {
		return nil, err
	}

	rows := make([]*Row, 0, len(records))
	for _, rec := range records {
		row := &Row{
			RowID:   asUUID(rec["id"]),
			TableID: asUUID(rec["table_id"]),
			Values:  make(map[string]any, len(defs)),
		}
		if slug, ok := rec["tenant_slug"].(string); ok {
			row.Tenant = slug
		}
		if ts, ok := rec["created_at"].(time.Time); ok {
			row.CreatedAt = ts
		}
		if ts, ok := rec["updated_at"].(time.Time); ok {
			row.UpdatedAt = ts
		}
		for _, def := range defs {
			if v := rec[def.Name]; v != nil {
				row.Values[def.Name] = v
			} else if dv, ok := def.DefaultValue(); ok {
				row.Values[def.Name] = dv
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *PGRowBackend) DeleteRow(ctx context.Context, tableID, rowID uuid.UUID) error {
	return pg.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		if err := b.attrs.WithQuerier(tx).DeleteEntity(ctx, EntityRef{Kind: KindTableRow, ID: rowID}); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			"DELETE FROM custom_table_rows WHERE id = $1 AND table_id = $2", rowID, tableID)
		if err != nil {
			return fmt.Errorf("deleting row: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrRowNotFound
		}
		return nil
	})
}

func asUUID(v any) uuid.UUID {
	switch x := v.(type) {
	case uuid.UUID:
		return x
	case [16]byte:
		return uuid.UUID(x)
	case string:
		u, err := uuid.Parse(x)
		if err == nil {
			return u
		}
	}
	return uuid.Nil
}
