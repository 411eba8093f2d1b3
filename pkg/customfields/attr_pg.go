package customfields

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// pivotTable returns the table holding values of the given type.
func pivotTable(d DataType) string {
	switch d {
	case TypeInteger:
		return "custom_integer_values"
	case TypeChar:
		return "custom_char_values"
	case TypeText:
		return "custom_text_values"
	case TypeFloat:
		return "custom_float_values"
	case TypeDate:
		return "custom_date_values"
	case TypeDatetime:
		return "custom_datetime_values"
	default:
		return ""
	}
}

// PGAttributeStore stores values in the six pivot tables. It is stateless
// over a Querier, so the same store runs against the pool or inside a
// caller-owned transaction via WithQuerier.
type PGAttributeStore struct {
	q pg.Querier
}

func NewPGAttributeStore(q pg.Querier) *PGAttributeStore {
	return &PGAttributeStore{q: q}
}

// WithQuerier returns a copy of the store bound to q, typically a pgx.Tx.
func (s *PGAttributeStore) WithQuerier(q pg.Querier) *PGAttributeStore {
	return &PGAttributeStore{q: q}
}

func (s *PGAttributeStore) Write(ctx context.Context, def *Definition, ref EntityRef, value any) error {
	cv, err := Coerce(def.Type, value)
	if err != nil {
		return fmt.Errorf("field %q: %s", def.Name, err)
	}

	table := pivotTable(def.Type)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, definition_id, entity_kind, entity_id, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (definition_id, entity_kind, entity_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, table)

	if _, err := s.q.Exec(ctx, query, uuid.New(), def.ID, string(ref.Kind), ref.ID, cv); err != nil {
		return fmt.Errorf("writing %s value: %w", def.Type, err)
	}
	return nil
}

func (s *PGAttributeStore) Read(ctx context.Context, def *Definition, ref EntityRef) (any, error) {
	table := pivotTable(def.Type)
	query := fmt.Sprintf(
		"SELECT value FROM %s WHERE definition_id = $1 AND entity_kind = $2 AND entity_id = $3",
		table)

	value, err := scanValue(def.Type, func(dest any) error {
		return s.q.QueryRow(ctx, query, def.ID, string(ref.Kind), ref.ID).Scan(dest)
	})
	if err != nil {
		if pg.IsNotFound(err) {
			if dv, ok := def.DefaultValue(); ok {
				return dv, nil
			}
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s value: %w", def.Type, err)
	}
	return value, nil
}

func (s *PGAttributeStore) ReadMany(ctx context.Context, defs []*Definition, refs []EntityRef) (Values, error) {
	stored := make(Values)
	if len(defs) > 0 && len(refs) > 0 {
		// One query per pivot store touched by the definition set.
		byTable := make(map[string][]*Definition)
		for _, def := range defs {
			byTable[pivotTable(def.Type)] = append(byTable[pivotTable(def.Type)], def)
		}

		kind := string(refs[0].Kind)
		ids := make([]uuid.UUID, len(refs))
		for i, ref := range refs {
			ids[i] = ref.ID
		}

		for table, tableDefs := range byTable {
			defIDs := make([]uuid.UUID, len(tableDefs))
			nameByID := make(map[uuid.UUID]*Definition, len(tableDefs))
			for i, def := range tableDefs {
				defIDs[i] = def.ID
				nameByID[def.ID] = def
			}

			query := fmt.Sprintf(`
				SELECT definition_id, entity_id, value FROM %s
				WHERE definition_id = ANY($1) AND entity_kind = $2 AND entity_id = ANY($3)`,
				table)
			rows, err := s.q.Query(ctx, query, defIDs, kind, ids)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", table, err)
			}

			// Every definition in one pivot store shares a value type.
			valueType := tableDefs[0].Type
			for rows.Next() {
				var (
					defID    uuid.UUID
					entityID uuid.UUID
				)
				value, err := scanValue(valueType, func(dest any) error {
					return rows.Scan(&defID, &entityID, dest)
				})
				if err != nil {
					rows.Close()
					return nil, fmt.Errorf("scanning %s: %w", table, err)
				}
				if stored[entityID] == nil {
					stored[entityID] = make(map[string]any)
				}
				stored[entityID][nameByID[defID].Name] = value
			}
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", table, err)
			}
		}
	}
	return fillDefaults(defs, refs, stored), nil
}

func (s *PGAttributeStore) DeleteEntity(ctx context.Context, ref EntityRef) error {
	for _, d := range []DataType{TypeInteger, TypeChar, TypeText, TypeFloat, TypeDate, TypeDatetime} {
		query := fmt.Sprintf(
			"DELETE FROM %s WHERE entity_kind = $1 AND entity_id = $2", pivotTable(d))
		if _, err := s.q.Exec(ctx, query, string(ref.Kind), ref.ID); err != nil {
			return fmt.Errorf("deleting %s values: %w", d, err)
		}
	}
	return nil
}

// scanValue scans the value column into the canonical Go type for d.
func scanValue(d DataType, scan func(dest any) error) (any, error) {
	switch d {
	case TypeInteger:
		var v int64
		if err := scan(&v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeChar, TypeText:
		var v string
		if err := scan(&v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeFloat:
		var v float64
		if err := scan(&v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeDate, TypeDatetime:
		var v time.Time
		if err := scan(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTypeConfiguration, d)
	}
}
