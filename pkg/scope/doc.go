// Package scope provides tenant-scoped data access on top of the ambient
// tenant carried by context (see package tenant).
//
// Two ownership shapes are supported:
//
//   - SingleOwner: each row belongs to exactly one tenant. Reads are
//     filtered to the ambient tenant and writes stamp it.
//   - MultiMember: rows are deduplicated globally and shared across
//     tenants through a membership set. Creating an entity that already
//     exists attaches the ambient tenant to it instead of inserting a
//     duplicate.
//
// Both stores fail closed: operations without an ambient tenant return
// tenant.ErrNoTenantInContext rather than touching every tenant's data.
// Cross-tenant maintenance code goes through Unscoped or the ListFor
// overrides, which make the bypass explicit at the call site.
//
// Storage is pluggable via the Collection and MemberCollection interfaces.
// Postgres-backed implementations live in pg.go; in-memory implementations
// in memory.go serve tests and single-process embedding.
package scope
