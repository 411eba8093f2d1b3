// Package membership answers permission questions about a user within the
// ambient tenant. A user's effective permissions are the union of direct
// grants on the relationship and the permissions of every group the
// relationship belongs to; codes support trailing wildcards, so a grant of
// "billing.*" covers "billing.invoice.read".
//
// The package only reads; relationships and groups are provisioned by
// package tenant when a tenant is created.
package membership
