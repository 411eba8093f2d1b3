// Package validator provides composable field validation with error
// accumulation.
//
// Checks are expressed as rules; Apply runs them all and returns every
// failure, never just the first, so callers can report the complete set of
// problems in one response. The tenant attribute pipeline and the dynamic
// custom-field pipeline are both built on it.
package validator
