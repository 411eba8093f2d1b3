package scopes

import (
	"sort"
	"strings"
)

const (
	// Wildcard matches any permission code.
	Wildcard = "*"

	// Delimiter separates hierarchical permission parts, e.g. "tenant.change".
	Delimiter = "."
)

// Matches reports whether code satisfies pattern.
//
// Rules:
//   - exact match: "tenant.change" matches "tenant.change"
//   - global wildcard: "*" matches everything
//   - hierarchical wildcard: "tenant.*" matches "tenant.change" and "tenant.site.add"
func Matches(pattern, code string) bool {
	if pattern == code || pattern == Wildcard {
		return true
	}

	if prefix, ok := strings.CutSuffix(pattern, Delimiter+Wildcard); ok {
		return code == prefix || strings.HasPrefix(code, prefix+Delimiter)
	}

	return false
}

// Has reports whether any of the granted permission patterns satisfies code.
func Has(granted []string, code string) bool {
	for _, pattern := range granted {
		if Matches(pattern, code) {
			return true
		}
	}
	return false
}

// HasAll reports whether every code is satisfied by the granted patterns.
func HasAll(granted []string, codes ...string) bool {
	for _, code := range codes {
		if !Has(granted, code) {
			return false
		}
	}
	return true
}

// Normalize sorts and deduplicates permission codes, dropping empty entries.
// Stable output keeps precomputed permission sets comparable.
func Normalize(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	sort.Strings(out)
	return out
}
