package slug

import (
	"strings"
	"unicode"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength int
	separator string
}

// MaxLength truncates the generated slug to n characters, trimming a
// trailing separator left by the cut.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// Separator replaces the default "-" separator.
func Separator(s string) Option {
	return func(c *config) { c.separator = s }
}

// Make converts an arbitrary string into a URL-safe, lowercase slug.
// Runs of non-alphanumeric characters collapse into a single separator.
func Make(s string, opts ...Option) string {
	cfg := &config{separator: "-"}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	b.Grow(len(s))

	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteString(cfg.separator)
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}

	out := b.String()
	if cfg.maxLength > 0 && len(out) > cfg.maxLength {
		out = strings.TrimSuffix(out[:cfg.maxLength], cfg.separator)
	}

	return out
}

// IsValid reports whether s is already a well-formed slug: non-empty,
// lowercase alphanumerics separated by single dashes.
func IsValid(s string) bool {
	return s != "" && s == Make(s)
}
