package customfields

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// PGDefinitionStore persists definitions in field_definitions.
type PGDefinitionStore struct {
	pool *pgxpool.Pool
}

func NewPGDefinitionStore(pool *pgxpool.Pool) *PGDefinitionStore {
	return &PGDefinitionStore{pool: pool}
}

const definitionColumns = `id, tenant_slug, target_kind, target_table_id, name, label,
	data_type, required, default_value, validators, created_at, updated_at`

func scanDefinition(row pgx.Row) (*Definition, error) {
	var (
		def      Definition
		kind     string
		dataType string
	)
	err := row.Scan(&def.ID, &def.TenantSlug, &kind, &def.Target.TableID, &def.Name,
		&def.Label, &dataType, &def.Required, &def.Default, &def.Validators,
		&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("scanning field definition: %w", err)
	}
	def.Target.Kind = EntityKind(kind)
	def.Type = DataType(dataType)
	return &def, nil
}

func (s *PGDefinitionStore) Insert(ctx context.Context, def *Definition) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO field_definitions
			(id, tenant_slug, target_kind, target_table_id, name, label,
			 data_type, required, default_value, validators)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		def.ID, def.TenantSlug, string(def.Target.Kind), def.Target.TableID,
		def.Name, def.Label, string(def.Type), def.Required, def.Default, def.Validators,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateField, def.Name)
		}
		return fmt.Errorf("inserting field definition: %w", err)
	}
	return nil
}

func (s *PGDefinitionStore) Get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+definitionColumns+" FROM field_definitions WHERE id = $1", id)
	return scanDefinition(row)
}

func (s *PGDefinitionStore) ListFor(ctx context.Context, tenantSlug string, target Target) ([]*Definition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+definitionColumns+` FROM field_definitions
		WHERE tenant_slug = $1 AND target_kind = $2 AND target_table_id = $3
		ORDER BY created_at, name`,
		tenantSlug, string(target.Kind), target.TableID)
	if err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing field definitions: %w", err)
	}
	return defs, nil
}

func (s *PGDefinitionStore) Update(ctx context.Context, def *Definition) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE field_definitions
		SET label = $2, required = $3, default_value = $4, validators = $5,
		    updated_at = now()
		WHERE id = $1`,
		def.ID, def.Label, def.Required, def.Default, def.Validators)
	if err != nil {
		return fmt.Errorf("updating field definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFieldNotFound
	}
	return nil
}

// DeleteCascade removes the definition and its values in one transaction.
// The pivot tables carry ON DELETE CASCADE foreign keys, so deleting the
// definition row is sufficient; the transaction keeps the HasValues check
// and the delete from racing a concurrent write.
func (s *PGDefinitionStore) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM field_definitions WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("deleting field definition: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrFieldNotFound
		}
		return nil
	})
}

func (s *PGDefinitionStore) HasValues(ctx context.Context, id uuid.UUID) (bool, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE definition_id = $1)", pivotTable(def.Type))
	if err := s.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking stored values: %w", err)
	}
	return exists, nil
}
