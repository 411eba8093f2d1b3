package customfields

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/scope"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

// Table is a tenant-defined dynamic table. Rows carry no structural
// columns beyond the table reference; every user-visible column is a field
// definition targeting the table.
type Table struct {
	TableID   uuid.UUID
	Tenant    string
	Name      string
	CreatedAt time.Time
}

func (t *Table) ID() uuid.UUID            { return t.TableID }
func (t *Table) TenantSlug() string       { return t.Tenant }
func (t *Table) SetTenantSlug(slug string) { t.Tenant = slug }

// Row is one record in a dynamic table. Values holds the dynamic fields,
// with definition defaults filled in for unset fields.
type Row struct {
	RowID     uuid.UUID
	TableID   uuid.UUID
	Tenant    string
	CreatedAt time.Time
	UpdatedAt time.Time
	Values    map[string]any
}

func (r *Row) ID() uuid.UUID            { return r.RowID }
func (r *Row) TenantSlug() string       { return r.Tenant }
func (r *Row) SetTenantSlug(slug string) { r.Tenant = slug }

// RowBackend persists rows and their pivot values. Insert and update are
// atomic: the row write and every pivot write commit or roll back together.
type RowBackend interface {
	InsertRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error
	UpdateRow(ctx context.Context, row *Row, defs []*Definition, values map[string]any) error
	GetRow(ctx context.Context, tableID, rowID uuid.UUID, defs []*Definition) (*Row, error)
	ListRows(ctx context.Context, tableID uuid.UUID, defs []*Definition, filters []Filter, sorts []Sort) ([]*Row, error)
	DeleteRow(ctx context.Context, tableID, rowID uuid.UUID) error
}

// Tables manages per-tenant dynamic tables. All operations run against the
// ambient tenant and fail closed without one.
type Tables struct {
	tables   *scope.SingleOwner[*Table]
	registry *Registry
	rows     RowBackend
	log      *slog.Logger
}

// TablesOption configures the service.
type TablesOption func(*Tables)

// WithTablesLogger sets the logger.
func WithTablesLogger(log *slog.Logger) TablesOption {
	return func(t *Tables) {
		if log != nil {
			t.log = log
		}
	}
}

func NewTables(tables scope.Collection[*Table], registry *Registry, rows RowBackend, opts ...TablesOption) *Tables {
	t := &Tables{
		tables:   scope.NewSingleOwner(tables),
		registry: registry,
		rows:     rows,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CreateTable creates an empty table for the ambient tenant. Names are
// lowercase identifiers, unique per tenant.
func (t *Tables) CreateTable(ctx context.Context, name string) (*Table, error) {
	if !ValidFieldName(name) {
		return nil, validator.ValidationErrors{{
			Field: "name", Message: "must be a lowercase identifier",
		}}
	}

	existing, err := t.tables.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.Name == name {
			return nil, ErrDuplicateTable
		}
	}

	table := &Table{TableID: uuid.New(), Name: name, CreatedAt: time.Now()}
	if err := t.tables.Create(ctx, table); err != nil {
		if errors.Is(err, scope.ErrDuplicateID) {
			return nil, ErrDuplicateTable
		}
		return nil, err
	}
	t.log.InfoContext(ctx, "table created",
		slog.String("tenant", table.Tenant), slog.String("table", name))
	return table, nil
}

// GetTable returns the ambient tenant's table by ID.
func (t *Tables) GetTable(ctx context.Context, tableID uuid.UUID) (*Table, error) {
	table, err := t.tables.Get(ctx, tableID)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return table, nil
}

// GetTableByName returns the ambient tenant's table by name.
func (t *Tables) GetTableByName(ctx context.Context, name string) (*Table, error) {
	tables, err := t.tables.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if table.Name == name {
			return table, nil
		}
	}
	return nil, ErrTableNotFound
}

// ListTables returns the ambient tenant's tables.
func (t *Tables) ListTables(ctx context.Context) ([]*Table, error) {
	return t.tables.List(ctx)
}

// AddField defines a column on the table. Target is derived from the
// table; any Target set on the input is ignored.
func (t *Tables) AddField(ctx context.Context, tableID uuid.UUID, in DefineInput) (*Definition, error) {
	table, err := t.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	in.Target = RowTarget(table.TableID)
	return t.registry.Define(ctx, in)
}

// Fields returns the table's definitions in creation order.
func (t *Tables) Fields(ctx context.Context, tableID uuid.UUID) ([]*Definition, error) {
	table, err := t.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return t.registry.ListFor(ctx, RowTarget(table.TableID))
}

// InsertRow validates values against the table's fields and writes the row
// plus its pivot values atomically. Defaults fill absent fields.
func (t *Tables) InsertRow(ctx context.Context, tableID uuid.UUID, values map[string]any) (*Row, error) {
	table, defs, err := t.tableAndFields(ctx, tableID)
	if err != nil {
		return nil, err
	}

	coerced, err := t.registry.Validate(defs, values, false)
	if err != nil {
		return nil, err
	}

	row := &Row{
		RowID:   uuid.New(),
		TableID: table.TableID,
		Tenant:  table.Tenant,
	}
	if err := t.rows.InsertRow(ctx, row, defs, coerced); err != nil {
		return nil, err
	}
	row.Values = coerced
	return row, nil
}

// UpdateRow applies a partial update to the row's dynamic fields.
func (t *Tables) UpdateRow(ctx context.Context, tableID, rowID uuid.UUID, values map[string]any) (*Row, error) {
	_, defs, err := t.tableAndFields(ctx, tableID)
	if err != nil {
		return nil, err
	}

	coerced, err := t.registry.Validate(defs, values, true)
	if err != nil {
		return nil, err
	}

	row, err := t.rows.GetRow(ctx, tableID, rowID, defs)
	if err != nil {
		return nil, err
	}
	if err := t.rows.UpdateRow(ctx, row, defs, coerced); err != nil {
		return nil, err
	}
	for name, value := range coerced {
		row.Values[name] = value
	}
	return row, nil
}

// GetRow returns one row with its values, defaults filled in.
func (t *Tables) GetRow(ctx context.Context, tableID, rowID uuid.UUID) (*Row, error) {
	_, defs, err := t.tableAndFields(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return t.rows.GetRow(ctx, tableID, rowID, defs)
}

// ListRows returns the table's rows, filtered and sorted on dynamic fields
// as if they were native columns.
func (t *Tables) ListRows(ctx context.Context, tableID uuid.UUID, filters []Filter, sorts []Sort) ([]*Row, error) {
	_, defs, err := t.tableAndFields(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return t.rows.ListRows(ctx, tableID, defs, filters, sorts)
}

// DeleteRow removes a row and its values.
func (t *Tables) DeleteRow(ctx context.Context, tableID, rowID uuid.UUID) error {
	if _, err := t.GetTable(ctx, tableID); err != nil {
		return err
	}
	return t.rows.DeleteRow(ctx, tableID, rowID)
}

func (t *Tables) tableAndFields(ctx context.Context, tableID uuid.UUID) (*Table, []*Definition, error) {
	table, err := t.GetTable(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	defs, err := t.registry.ListFor(ctx, RowTarget(table.TableID))
	if err != nil {
		return nil, nil, err
	}
	return table, defs, nil
}
