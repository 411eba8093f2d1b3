package customfields

import (
	"context"
	"fmt"
	"strings"

	"github.com/sharedschema/tenantkit/pkg/pg"
)

// Op is a filter operator. Comparison operators apply to every data type;
// contains applies to char and text only.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpContains Op = "contains"
)

func (o Op) sql() (string, bool) {
	switch o {
	case OpEq:
		return "=", true
	case OpNeq:
		return "<>", true
	case OpGt:
		return ">", true
	case OpGte:
		return ">=", true
	case OpLt:
		return "<", true
	case OpLte:
		return "<=", true
	default:
		return "", false
	}
}

// Filter constrains a query on a native column or a dynamic field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Sort orders a query on a native column or a dynamic field.
type Sort struct {
	Field string
	Desc  bool
}

// SelectSpec describes a query over a base table whose rows carry dynamic
// fields. Native columns are projected as-is; each definition becomes one
// correlated subquery against its pivot store, referenced again in WHERE
// and ORDER BY, so dynamic fields behave like native columns.
type SelectSpec struct {
	Table    string
	Alias    string // defaults to "e"
	IDColumn string // defaults to "id"
	Kind     EntityKind
	Columns  []string // native projections
	Defs     []*Definition
	Filters  []Filter
	Sorts    []Sort
	Limit    int
	Offset   int
}

// BuildSelect renders a SelectSpec into SQL and positional args. Pure; the
// engine and tests share it.
func BuildSelect(spec SelectSpec) (string, []any, error) {
	alias := spec.Alias
	if alias == "" {
		alias = "e"
	}
	idCol := spec.IDColumn
	if idCol == "" {
		idCol = "id"
	}

	byName := make(map[string]*Definition, len(spec.Defs))
	for _, def := range spec.Defs {
		byName[def.Name] = def
	}
	native := make(map[string]bool, len(spec.Columns))
	for _, col := range spec.Columns {
		native[col] = true
	}

	var args []any
	sub := func(def *Definition) string {
		args = append(args, def.ID, string(spec.Kind))
		return fmt.Sprintf(
			"(SELECT v.value FROM %s v WHERE v.definition_id = $%d AND v.entity_kind = $%d AND v.entity_id = %s.%s)",
			pivotTable(def.Type), len(args)-1, len(args), alias, idCol)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	projections := make([]string, 0, len(spec.Columns)+len(spec.Defs))
	for _, col := range spec.Columns {
		projections = append(projections, alias+"."+col)
	}
	for _, def := range spec.Defs {
		projections = append(projections, fmt.Sprintf("%s AS %s", sub(def), def.Name))
	}
	b.WriteString(strings.Join(projections, ", "))
	fmt.Fprintf(&b, " FROM %s %s", spec.Table, alias)

	var conds []string
	for _, f := range spec.Filters {
		expr, err := filterExpr(f, alias, native, byName, sub, &args)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, expr)
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if len(spec.Sorts) > 0 {
		var orders []string
		for _, s := range spec.Sorts {
			var expr string
			switch {
			case native[s.Field]:
				expr = alias + "." + s.Field
			case byName[s.Field] != nil:
				expr = sub(byName[s.Field])
			default:
				return "", nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, s.Field)
			}
			if s.Desc {
				expr += " DESC"
			}
			orders = append(orders, expr)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	if spec.Limit > 0 {
		args = append(args, spec.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if spec.Offset > 0 {
		args = append(args, spec.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return b.String(), args, nil
}

func filterExpr(f Filter, alias string, native map[string]bool, byName map[string]*Definition, sub func(*Definition) string, args *[]any) (string, error) {
	var (
		expr string
		def  *Definition
	)
	switch {
	case native[f.Field]:
		expr = alias + "." + f.Field
	case byName[f.Field] != nil:
		def = byName[f.Field]
		expr = sub(def)
	default:
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, f.Field)
	}

	if f.Op == OpContains {
		if def != nil && def.Type != TypeChar && def.Type != TypeText {
			return "", fmt.Errorf("%w: contains requires a char or text field, %q is %s",
				ErrInvalidFilter, f.Field, def.Type)
		}
		*args = append(*args, f.Value)
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", expr, len(*args)), nil
	}

	op, ok := f.Op.sql()
	if !ok {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Op)
	}

	value := f.Value
	if def != nil {
		cv, err := Coerce(def.Type, f.Value)
		if err != nil {
			return "", fmt.Errorf("%w: field %q: %s", ErrInvalidFilter, f.Field, err)
		}
		value = cv
	}
	*args = append(*args, value)
	return fmt.Sprintf("%s %s $%d", expr, op, len(*args)), nil
}

// QueryEngine runs dynamic selects against Postgres.
type QueryEngine struct {
	q pg.Querier
}

func NewQueryEngine(q pg.Querier) *QueryEngine {
	return &QueryEngine{q: q}
}

// Select executes a SelectSpec and returns one map per row, keyed by native
// column and field name. Dynamic values come back in the field's canonical
// Go type; unset fields with no default are nil.
func (e *QueryEngine) Select(ctx context.Context, spec SelectSpec) ([]map[string]any, error) {
	query, args, err := BuildSelect(spec)
	if err != nil {
		return nil, err
	}

	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dynamic select on %s: %w", spec.Table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("dynamic select on %s: %w", spec.Table, err)
		}
		record := make(map[string]any, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dynamic select on %s: %w", spec.Table, err)
	}
	return out, nil
}
