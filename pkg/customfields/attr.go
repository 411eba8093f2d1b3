package customfields

import (
	"context"

	"github.com/google/uuid"
)

// Values maps entity IDs to their field values (by field name).
type Values map[uuid.UUID]map[string]any

// AttributeStore persists field values in one pivot store per data type.
//
// Write upserts: an entity holds at most one value per definition. Read
// falls back to the definition's coerced default when no value is stored;
// a field that is neither stored nor defaulted reads as (nil, nil).
// ReadMany batches: implementations issue at most one query per pivot
// store touched by the definition set, never one per (definition, entity).
// All refs passed to ReadMany must share an entity kind.
type AttributeStore interface {
	Write(ctx context.Context, def *Definition, ref EntityRef, value any) error
	Read(ctx context.Context, def *Definition, ref EntityRef) (any, error)
	ReadMany(ctx context.Context, defs []*Definition, refs []EntityRef) (Values, error)
	// DeleteEntity removes every value stored for the entity, across all
	// pivot stores. Called when the entity itself is deleted.
	DeleteEntity(ctx context.Context, ref EntityRef) error
}

// fillDefaults layers definition defaults under stored values for each
// requested entity.
func fillDefaults(defs []*Definition, refs []EntityRef, stored Values) Values {
	out := make(Values, len(refs))
	for _, ref := range refs {
		fields := stored[ref.ID]
		if fields == nil {
			fields = make(map[string]any, len(defs))
		}
		for _, def := range defs {
			if _, ok := fields[def.Name]; ok {
				continue
			}
			if dv, ok := def.DefaultValue(); ok {
				fields[def.Name] = dv
			}
		}
		out[ref.ID] = fields
	}
	return out
}
