// Package customfields implements per-tenant dynamic fields over a shared
// relational schema.
//
// A tenant defines fields against a target entity kind; values are stored
// in one pivot table per data type, keyed by (definition, entity). Reads
// fall back to the definition's default. The query engine folds dynamic
// fields back into SQL as correlated subqueries, so they filter and sort
// like native columns.
//
// Definitions are tenant-scoped: two tenants can hold a field of the same
// name with different types against the same kind without interfering.
//
// The Tables service builds on all of the above to give each tenant fully
// dynamic tables: a row has no structural columns beyond its table
// reference, every user-visible column is a custom field.
package customfields
