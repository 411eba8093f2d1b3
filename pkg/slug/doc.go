// Package slug generates URL-safe identifiers from display names.
// Tenant slugs are derived with it when one is not supplied explicitly.
package slug
