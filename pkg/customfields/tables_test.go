package customfields_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedschema/tenantkit/pkg/customfields"
	"github.com/sharedschema/tenantkit/pkg/scope"
	"github.com/sharedschema/tenantkit/pkg/tenant"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

func newTables() *customfields.Tables {
	mem := customfields.NewMemory()
	reg := customfields.NewRegistry(mem,
		customfields.WithFieldValidator("severity_range", rangeValidator(1, 5)))
	return customfields.NewTables(scope.NewMemoryCollection[*customfields.Table](), reg, mem)
}

func TestTablesCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates a table for the ambient tenant", func(t *testing.T) {
		t.Parallel()

		svc := newTables()
		table, err := svc.CreateTable(tenantCtx("acme"), "incidents")
		require.NoError(t, err)
		assert.Equal(t, "acme", table.Tenant)

		got, err := svc.GetTableByName(tenantCtx("acme"), "incidents")
		require.NoError(t, err)
		assert.Equal(t, table.TableID, got.TableID)
	})

	t.Run("duplicate name within a tenant rejected", func(t *testing.T) {
		t.Parallel()

		svc := newTables()
		_, err := svc.CreateTable(tenantCtx("acme"), "incidents")
		require.NoError(t, err)
		_, err = svc.CreateTable(tenantCtx("acme"), "incidents")
		assert.ErrorIs(t, err, customfields.ErrDuplicateTable)
	})

	t.Run("same name under two tenants stays independent", func(t *testing.T) {
		t.Parallel()

		svc := newTables()
		acme, err := svc.CreateTable(tenantCtx("acme"), "incidents")
		require.NoError(t, err)
		globex, err := svc.CreateTable(tenantCtx("globex"), "incidents")
		require.NoError(t, err)

		_, err = svc.AddField(tenantCtx("acme"), acme.TableID, customfields.DefineInput{
			Name: "severity", Type: customfields.TypeInteger,
		})
		require.NoError(t, err)
		_, err = svc.AddField(tenantCtx("globex"), globex.TableID, customfields.DefineInput{
			Name: "region", Type: customfields.TypeChar,
		})
		require.NoError(t, err)

		acmeFields, err := svc.Fields(tenantCtx("acme"), acme.TableID)
		require.NoError(t, err)
		require.Len(t, acmeFields, 1)
		assert.Equal(t, "severity", acmeFields[0].Name)

		globexFields, err := svc.Fields(tenantCtx("globex"), globex.TableID)
		require.NoError(t, err)
		require.Len(t, globexFields, 1)
		assert.Equal(t, "region", globexFields[0].Name)
	})

	t.Run("cross-tenant table access reads as not found", func(t *testing.T) {
		t.Parallel()

		svc := newTables()
		table, err := svc.CreateTable(tenantCtx("acme"), "incidents")
		require.NoError(t, err)

		_, err = svc.GetTable(tenantCtx("globex"), table.TableID)
		assert.ErrorIs(t, err, customfields.ErrTableNotFound)
	})

	t.Run("fails closed without ambient tenant", func(t *testing.T) {
		t.Parallel()

		svc := newTables()
		_, err := svc.CreateTable(context.Background(), "incidents")
		assert.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})
}

func TestTablesRows(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*customfields.Tables, *customfields.Table) {
		t.Helper()
		svc := newTables()
		table, err := svc.CreateTable(tenantCtx("acme"), "incidents")
		require.NoError(t, err)

		_, err = svc.AddField(tenantCtx("acme"), table.TableID, customfields.DefineInput{
			Name: "severity", Type: customfields.TypeInteger,
			Required: true, Validators: []string{"severity_range"},
		})
		require.NoError(t, err)
		_, err = svc.AddField(tenantCtx("acme"), table.TableID, customfields.DefineInput{
			Name: "summary", Type: customfields.TypeText, Required: true,
		})
		require.NoError(t, err)
		_, err = svc.AddField(tenantCtx("acme"), table.TableID, customfields.DefineInput{
			Name: "env", Type: customfields.TypeChar, Default: "production",
		})
		require.NoError(t, err)
		return svc, table
	}

	t.Run("insert validates and fills defaults", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		row, err := svc.InsertRow(tenantCtx("acme"), table.TableID, map[string]any{
			"severity": 4,
			"summary":  "crash on login",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), row.Values["severity"])
		assert.Equal(t, "production", row.Values["env"])

		got, err := svc.GetRow(tenantCtx("acme"), table.TableID, row.RowID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.Values["severity"])
		assert.Equal(t, "production", got.Values["env"])
	})

	t.Run("invalid insert writes nothing", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		_, err := svc.InsertRow(tenantCtx("acme"), table.TableID, map[string]any{
			"severity": 9,
			"summary":  "too severe",
		})
		require.Error(t, err)
		assert.True(t, validator.Extract(err).Has("severity"))

		rows, err := svc.ListRows(tenantCtx("acme"), table.TableID, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("partial update touches only given fields", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		row, err := svc.InsertRow(tenantCtx("acme"), table.TableID, map[string]any{
			"severity": 2, "summary": "slow dashboard",
		})
		require.NoError(t, err)

		updated, err := svc.UpdateRow(tenantCtx("acme"), table.TableID, row.RowID, map[string]any{
			"severity": 5,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), updated.Values["severity"])
		assert.Equal(t, "slow dashboard", updated.Values["summary"])
	})

	t.Run("filters and sorts behave like native columns", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		for _, in := range []map[string]any{
			{"severity": 1, "summary": "typo on pricing page"},
			{"severity": 5, "summary": "database crash"},
			{"severity": 3, "summary": "crash in exporter"},
		} {
			_, err := svc.InsertRow(tenantCtx("acme"), table.TableID, in)
			require.NoError(t, err)
		}

		rows, err := svc.ListRows(tenantCtx("acme"), table.TableID,
			[]customfields.Filter{{Field: "severity", Op: customfields.OpGte, Value: 3}},
			[]customfields.Sort{{Field: "severity", Desc: true}})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(5), rows[0].Values["severity"])
		assert.Equal(t, int64(3), rows[1].Values["severity"])

		rows, err = svc.ListRows(tenantCtx("acme"), table.TableID,
			[]customfields.Filter{{Field: "summary", Op: customfields.OpContains, Value: "crash"}}, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("native columns filter and sort alongside dynamic fields", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		var rowIDs []uuid.UUID
		for _, in := range []map[string]any{
			{"severity": 1, "summary": "first report"},
			{"severity": 2, "summary": "second report"},
			{"severity": 3, "summary": "third report"},
		} {
			row, err := svc.InsertRow(tenantCtx("acme"), table.TableID, in)
			require.NoError(t, err)
			rowIDs = append(rowIDs, row.RowID)
		}

		rows, err := svc.ListRows(tenantCtx("acme"), table.TableID,
			[]customfields.Filter{{Field: "id", Op: customfields.OpEq, Value: rowIDs[1]}}, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, rowIDs[1], rows[0].RowID)

		rows, err = svc.ListRows(tenantCtx("acme"), table.TableID,
			[]customfields.Filter{{Field: "tenant_slug", Op: customfields.OpEq, Value: "acme"}},
			[]customfields.Sort{{Field: "created_at", Desc: true}})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, int64(3), rows[0].Values["severity"])
		assert.Equal(t, int64(1), rows[2].Values["severity"])

		_, err = svc.ListRows(tenantCtx("acme"), table.TableID,
			[]customfields.Filter{{Field: "no_such_column", Op: customfields.OpEq, Value: 1}}, nil)
		assert.ErrorIs(t, err, customfields.ErrInvalidFilter)
	})

	t.Run("rows are invisible to other tenants", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		row, err := svc.InsertRow(tenantCtx("acme"), table.TableID, map[string]any{
			"severity": 2, "summary": "internal note",
		})
		require.NoError(t, err)

		_, err = svc.GetRow(tenantCtx("globex"), table.TableID, row.RowID)
		assert.ErrorIs(t, err, customfields.ErrTableNotFound)

		_, err = svc.ListRows(tenantCtx("globex"), table.TableID, nil, nil)
		assert.ErrorIs(t, err, customfields.ErrTableNotFound)
	})

	t.Run("delete removes the row and its values", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		row, err := svc.InsertRow(tenantCtx("acme"), table.TableID, map[string]any{
			"severity": 2, "summary": "flaky test",
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRow(tenantCtx("acme"), table.TableID, row.RowID))
		_, err = svc.GetRow(tenantCtx("acme"), table.TableID, row.RowID)
		assert.ErrorIs(t, err, customfields.ErrRowNotFound)
	})

	t.Run("unknown row reads as not found", func(t *testing.T) {
		t.Parallel()

		svc, table := setup(t)
		_, err := svc.GetRow(tenantCtx("acme"), table.TableID, uuid.New())
		assert.ErrorIs(t, err, customfields.ErrRowNotFound)
	})
}
