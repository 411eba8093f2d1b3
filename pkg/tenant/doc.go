// Package tenant implements shared-schema multi-tenancy: tenant identity,
// request-scoped tenant propagation, pluggable resolution strategies and
// schema-validated tenant attributes.
//
// # Resolution
//
// A request's tenant is determined by a chain of strategies run in a fixed
// order, stopping at the first that has an opinion: host/domain lookup via
// registered sites, a configurable HTTP header (default "Tenant-Slug"), a
// session value, and finally whatever is already in the context (background
// jobs). A strategy that names a tenant which does not exist aborts the
// chain — that is an error, not a miss.
//
//	resolver := tenant.NewChainResolver(
//		tenant.NewHostResolver(store),
//		tenant.NewHeaderResolver(""),
//		tenant.NewSessionResolver(getSession),
//		tenant.NewContextResolver(),
//	)
//	mux.Handle("/", tenant.Middleware(resolver, store)(handler))
//
// # Propagation
//
// The resolved tenant travels in the request context, never in a global
// map keyed by goroutine. The context is released on every exit path,
// including panics and cancellation, so a pooled worker can never leak one
// request's tenant into the next. Handles are lazy: placing a slug in
// context costs nothing until somebody dereferences it.
//
// # Attributes
//
// Tenants carry two administrator-schematized attribute maps, extra_data
// (business metadata) and settings (configuration). Writes are validated
// against the declared field schemas: unknown keys and missing required
// keys are rejected, each field runs its validator chain, and failures
// accumulate across fields so clients fix everything in one round trip.
package tenant
