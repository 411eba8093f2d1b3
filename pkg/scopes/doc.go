// Package scopes implements wildcard-aware permission code matching used by
// tenant membership checks.
//
// Permission codes are dot-separated, e.g. "tenant.change" or
// "tenantsite.delete". A granted pattern may be an exact code, a hierarchical
// wildcard ("tenant.*") or the global wildcard ("*").
package scopes
