package customfields

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory definition store, attribute store and row backend
// in one, used by tests and single-process embedding. Semantics mirror the
// Postgres implementations, including atomic multi-value writes (a single
// lock spans each write batch) and definition cascade deletes.
type Memory struct {
	mu       sync.RWMutex
	defs     map[uuid.UUID]*Definition
	defOrder []uuid.UUID
	// values[defID][entityKey] = canonical value
	values map[uuid.UUID]map[string]any
	rows   map[uuid.UUID]*Row
}

func NewMemory() *Memory {
	return &Memory{
		defs:   make(map[uuid.UUID]*Definition),
		values: make(map[uuid.UUID]map[string]any),
		rows:   make(map[uuid.UUID]*Row),
	}
}

func entityKey(ref EntityRef) string {
	return string(ref.Kind) + "/" + ref.ID.String()
}

// --- DefinitionStore ---

func (m *Memory) Insert(ctx context.Context, def *Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.defs {
		if other.TenantSlug == def.TenantSlug && other.Target == def.Target && other.Name == def.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateField, def.Name)
		}
	}

	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now
	cp := *def
	m.defs[def.ID] = &cp
	m.defOrder = append(m.defOrder, def.ID)
	return nil
}

func (m *Memory) Get(ctx context.Context, id uuid.UUID) (*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.defs[id]
	if !ok {
		return nil, ErrFieldNotFound
	}
	cp := *def
	return &cp, nil
}

func (m *Memory) ListFor(ctx context.Context, tenantSlug string, target Target) ([]*Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var defs []*Definition
	for _, id := range m.defOrder {
		def, ok := m.defs[id]
		if !ok {
			continue
		}
		if def.TenantSlug == tenantSlug && def.Target == target {
			cp := *def
			defs = append(defs, &cp)
		}
	}
	return defs, nil
}

func (m *Memory) Update(ctx context.Context, def *Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[def.ID]; !ok {
		return ErrFieldNotFound
	}
	def.UpdatedAt = time.Now()
	cp := *def
	m.defs[def.ID] = &cp
	return nil
}

func (m *Memory) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.defs[id]; !ok {
		return ErrFieldNotFound
	}
	delete(m.defs, id)
	delete(m.values, id)
	if i := slices.Index(m.defOrder, id); i >= 0 {
		m.defOrder = slices.Delete(m.defOrder, i, i+1)
	}
	return nil
}

func (m *Memory) HasValues(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values[id]) > 0, nil
}

// --- AttributeStore ---

func (m *Memory) Write(ctx context.Context, def *Definition, ref EntityRef, value any) error {
	cv, err := Coerce(def.Type, value)
	if err != nil {
		return fmt.Errorf("field %q: %s", def.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values[def.ID] == nil {
		m.values[def.ID] = make(map[string]any)
	}
	m.values[def.ID][entityKey(ref)] = cv
	return nil
}

func (m *Memory) Read(ctx context.Context, def *Definition, ref EntityRef) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if v, ok := m.values[def.ID][entityKey(ref)]; ok {
		return v, nil
	}
	if dv, ok := def.DefaultValue(); ok {
		return dv, nil
	}
	return nil, nil
}

func (m *Memory) ReadMany(ctx context.Context, defs []*Definition, refs []EntityRef) (Values, error) {
	m.mu.RLock()
	stored := make(Values)
	for _, ref := range refs {
		for _, def := range defs {
			if v, ok := m.values[def.ID][entityKey(ref)]; ok {
				if stored[ref.ID] == nil {
					stored[ref.ID] = make(map[string]any)
				}
				stored[ref.ID][def.Name] = v
			}
		}
	}
	m.mu.RUnlock()
	return fillDefaults(defs, refs, stored), nil
}

func (m *Memory) DeleteEntity(ctx context.Context, ref EntityRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entityKey(ref)
	for _, byEntity := range m.values {
		delete(byEntity, key)
	}
	return nil
}

// --- RowBackend ---

func (m *Memory) InsertRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error {
	byName := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[row.RowID]; ok {
		return fmt.Errorf("row %s already exists", row.RowID)
	}

	// Coerce everything up front so the batch cannot fail half-written.
	coerced, err := coerceBatch(byName, values)
	if err != nil {
		return err
	}

	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now
	cp := *row
	m.rows[row.RowID] = &cp

	m.storeBatch(row.RowID, coerced)
	return nil
}

func (m *Memory) UpdateRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error {
	byName := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.rows[row.RowID]
	if !ok || stored.TableID != row.TableID {
		return ErrRowNotFound
	}

	coerced, err := coerceBatch(byName, values)
	if err != nil {
		return err
	}

	stored.UpdatedAt = time.Now()
	m.storeBatch(row.RowID, coerced)
	return nil
}

func (m *Memory) GetRow(ctx context.Context, tableID, rowID uuid.UUID, defs []*Definition) (*Row, error) {
	m.mu.RLock()
	stored, ok := m.rows[rowID]
	if !ok || stored.TableID != tableID {
		m.mu.RUnlock()
		return nil, ErrRowNotFound
	}
	cp := *stored
	m.mu.RUnlock()

	values, err := m.ReadMany(ctx, defs, []EntityRef{{Kind: KindTableRow, ID: rowID}})
	if err != nil {
		return nil, err
	}
	cp.Values = values[rowID]
	return &cp, nil
}

func (m *Memory) ListRows(ctx context.Context, tableID uuid.UUID, defs []*Definition, filters []Filter, sorts []Sort) ([]*Row, error) {
	byName := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	m.mu.RLock()
	var candidates []*Row
	for _, row := range m.rows {
		if row.TableID == tableID {
			cp := *row
			candidates = append(candidates, &cp)
		}
	}

	// Filters see stored values only, matching SQL NULL semantics for
	// unset fields; defaults appear in the returned Values but do not
	// match filters.
	storedValue := func(row *Row, def *Definition) (any, bool) {
		v, ok := m.values[def.ID][entityKey(EntityRef{Kind: KindTableRow, ID: row.RowID})]
		return v, ok
	}

	var filtered []*Row
	var filterErr error
rowLoop:
	for _, row := range candidates {
		for _, f := range filters {
			var (
				def *Definition
				v   any
			)
			switch native, ok := rowColumns[f.Field]; {
			case ok:
				v = native(row)
			case byName[f.Field] != nil:
				def = byName[f.Field]
				stored, ok := storedValue(row, def)
				if !ok {
					continue rowLoop
				}
				v = stored
			default:
				filterErr = fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, f.Field)
				break rowLoop
			}
			match, err := matchFilter(def, v, f)
			if err != nil {
				filterErr = err
				break rowLoop
			}
			if !match {
				continue rowLoop
			}
		}
		filtered = append(filtered, row)
	}
	m.mu.RUnlock()
	if filterErr != nil {
		return nil, filterErr
	}

	slices.SortStableFunc(filtered, func(a, b *Row) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	for i := len(sorts) - 1; i >= 0; i-- {
		s := sorts[i]
		native, isNative := rowColumns[s.Field]
		def := byName[s.Field]
		if !isNative && def == nil {
			return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, s.Field)
		}
		slices.SortStableFunc(filtered, func(a, b *Row) int {
			var cmp int
			if isNative {
				cmp, _ = compareValues(native(a), native(b))
			} else {
				av, aok := m.valueFor(a.RowID, def)
				bv, bok := m.valueFor(b.RowID, def)
				cmp = compareOptional(av, aok, bv, bok)
			}
			if s.Desc {
				cmp = -cmp
			}
			return cmp
		})
	}

	refs := make([]EntityRef, len(filtered))
	for i, row := range filtered {
		refs[i] = EntityRef{Kind: KindTableRow, ID: row.RowID}
	}
	values, err := m.ReadMany(ctx, defs, refs)
	if err != nil {
		return nil, err
	}
	for _, row := range filtered {
		row.Values = values[row.RowID]
	}
	return filtered, nil
}

func (m *Memory) DeleteRow(ctx context.Context, tableID, rowID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.rows[rowID]
	if !ok || stored.TableID != tableID {
		return ErrRowNotFound
	}
	delete(m.rows, rowID)

	key := entityKey(EntityRef{Kind: KindTableRow, ID: rowID})
	for _, byEntity := range m.values {
		delete(byEntity, key)
	}
	return nil
}

func (m *Memory) valueFor(rowID uuid.UUID, def *Definition) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[def.ID][entityKey(EntityRef{Kind: KindTableRow, ID: rowID})]
	return v, ok
}

func (m *Memory) storeBatch(rowID uuid.UUID, coerced map[uuid.UUID]any) {
	key := entityKey(EntityRef{Kind: KindTableRow, ID: rowID})
	for defID, value := range coerced {
		if m.values[defID] == nil {
			m.values[defID] = make(map[string]any)
		}
		m.values[defID][key] = value
	}
}

func coerceBatch(byName map[string]*Definition, values map[string]any) (map[uuid.UUID]any, error) {
	coerced := make(map[uuid.UUID]any, len(values))
	for name, value := range values {
		def, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
		}
		cv, err := Coerce(def.Type, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %s", name, err)
		}
		coerced[def.ID] = cv
	}
	return coerced, nil
}

// rowColumns resolves the fixed row columns that the Postgres backend
// exposes through its select spec, so both backends accept the same
// filters and sorts.
var rowColumns = map[string]func(*Row) any{
	"id":          func(r *Row) any { return r.RowID.String() },
	"table_id":    func(r *Row) any { return r.TableID.String() },
	"tenant_slug": func(r *Row) any { return r.Tenant },
	"created_at":  func(r *Row) any { return r.CreatedAt },
	"updated_at":  func(r *Row) any { return r.UpdatedAt },
}

func normalizeNative(v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return v
	}
}

// matchFilter evaluates one filter against a stored value. A nil def means
// f.Field is a native row column; the value is compared as-is.
func matchFilter(def *Definition, stored any, f Filter) (bool, error) {
	want := normalizeNative(f.Value)
	if def != nil {
		cv, err := Coerce(def.Type, f.Value)
		if err != nil {
			return false, fmt.Errorf("%w: field %q: %s", ErrInvalidFilter, f.Field, err)
		}
		want = cv
	}

	if f.Op == OpContains {
		if def != nil && def.Type != TypeChar && def.Type != TypeText {
			return false, fmt.Errorf("%w: contains requires a char or text field, %q is %s",
				ErrInvalidFilter, f.Field, def.Type)
		}
		hay, hok := stored.(string)
		needle, nok := want.(string)
		if !hok || !nok {
			return false, fmt.Errorf("%w: contains requires a text value for %q", ErrInvalidFilter, f.Field)
		}
		return strings.Contains(strings.ToLower(hay), strings.ToLower(needle)), nil
	}

	cmp, ok := compareValues(stored, want)
	if !ok {
		return false, fmt.Errorf("%w: field %q: cannot compare %T with %T", ErrInvalidFilter, f.Field, stored, want)
	}

	switch f.Op {
	case OpEq:
		return cmp == 0, nil
	case OpNeq:
		return cmp != 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
	}
}

func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	default:
		return 0, false
	}
}

func compareOptional(a any, aok bool, b any, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1 // unset sorts last, like SQL NULLS LAST under ASC
	case !bok:
		return -1
	default:
		cmp, _ := compareValues(a, b)
		return cmp
	}
}
