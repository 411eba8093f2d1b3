package validator

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var hostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$|^localhost$`)

// ValidURL fails unless the value parses as an absolute http(s) URL with a host.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(strings.TrimSpace(value))
			if err != nil {
				return false
			}
			return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Error: ValidationError{Field: field, Message: "must be a valid URL"},
	}
}

// ValidEmail fails unless the value is a parseable address with a dotted domain.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(strings.TrimSpace(value))
			if err != nil {
				return false
			}
			at := strings.LastIndex(addr.Address, "@")
			if at < 1 {
				return false
			}
			domain := addr.Address[at+1:]
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// ValidHostname fails unless the value is a plausible DNS name. Used by the
// tenant site layer to reject malformed domains before they reach storage.
func ValidHostname(field, value string) Rule {
	return Rule{
		Check: func() bool {
			v := strings.TrimSpace(value)
			return v != "" && len(v) <= 253 && hostnameRegex.MatchString(v)
		},
		Error: ValidationError{Field: field, Message: "must be a valid domain name"},
	}
}
