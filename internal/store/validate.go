package store

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// EnvAllowHTTP, when set to any non-empty value, permits plain-http base
// URLs for non-private hosts. The default policy rejects http except for
// loopback and private-network addresses.
const EnvAllowHTTP = "APIKEEP_ALLOW_HTTP"

// aliasPattern bounds aliases to a leading letter followed by up to 63
// letters, digits, underscores, or hyphens. Aliases are case-sensitive.
var aliasPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// reservedAliases are names that collide with store sub-commands.
var reservedAliases = map[string]struct{}{
	"add":     {},
	"backup":  {},
	"config":  {},
	"current": {},
	"default": {},
	"help":    {},
	"keys":    {},
	"list":    {},
	"remove":  {},
	"show":    {},
	"update":  {},
	"use":     {},
}

// Validator enforces the provider record schema and security policy.
// Validation is pure: it never touches disk or the environment. The
// AllowHTTP escape hatch is resolved at construction time.
type Validator struct {
	AllowHTTP        bool
	MinSecretLength  int
	MinTimeoutMillis int
	MaxTimeoutMillis int
}

// NewValidator returns a Validator with the default policy.
func NewValidator() *Validator {
	return &Validator{
		MinSecretLength:  8,
		MinTimeoutMillis: 1000,
		MaxTimeoutMillis: 300000,
	}
}

// NewValidatorFromEnv returns the default Validator with the http escape
// hatch resolved from the environment.
func NewValidatorFromEnv() *Validator {
	v := NewValidator()
	if os.Getenv(EnvAllowHTTP) != "" {
		v.AllowHTTP = true
	}
	return v
}

// Validate checks a record in order, failing fast on the first violation:
// required fields, alias shape and reserved words, base URL scheme and
// host policy, secret length, timeout bounds.
func (v *Validator) Validate(r *ProviderRecord) error {
	if r.Alias == "" {
		return &ValidationError{Field: "alias", Reason: "required"}
	}
	if r.BaseURL == "" {
		return &ValidationError{Field: "baseURL", Reason: "required"}
	}
	if r.APIKey == "" {
		return &ValidationError{Field: "apiKey", Reason: "required"}
	}

	if !aliasPattern.MatchString(r.Alias) {
		return &ValidationError{
			Field:  "alias",
			Reason: "must start with a letter and contain at most 64 letters, digits, underscores, or hyphens",
		}
	}
	if _, ok := reservedAliases[r.Alias]; ok {
		return &ValidationError{Field: "alias", Reason: fmt.Sprintf("%q is a reserved name", r.Alias)}
	}

	if err := v.validateBaseURL(r.BaseURL); err != nil {
		return err
	}

	if len(r.APIKey) < v.MinSecretLength {
		return &ValidationError{
			Field:  "apiKey",
			Reason: fmt.Sprintf("must be at least %d characters", v.MinSecretLength),
		}
	}

	if r.TimeoutMillis != 0 {
		if r.TimeoutMillis < v.MinTimeoutMillis || r.TimeoutMillis > v.MaxTimeoutMillis {
			return &ValidationError{
				Field:  "timeout",
				Reason: fmt.Sprintf("must be between %d and %d milliseconds", v.MinTimeoutMillis, v.MaxTimeoutMillis),
			}
		}
	}

	return nil
}

// validateBaseURL checks the URL parses, is absolute, and uses http or
// https. Plain http is rejected unless the host is loopback, in a
// private-network range, or the AllowHTTP escape hatch is set.
func (v *Validator) validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "baseURL", Reason: "not a valid URL"}
	}
	if !u.IsAbs() || u.Host == "" {
		return &ValidationError{Field: "baseURL", Reason: "must be an absolute URL"}
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if v.AllowHTTP || isPrivateHost(u.Hostname()) {
			return nil
		}
		return &ValidationError{
			Field:  "baseURL",
			Reason: fmt.Sprintf("plain http is only allowed for loopback and private-network hosts (set %s to override)", EnvAllowHTTP),
		}
	default:
		return &ValidationError{Field: "baseURL", Reason: fmt.Sprintf("scheme %q is not allowed; use http or https", u.Scheme)}
	}
}

// isPrivateHost reports whether host is localhost, a loopback address
// (127.0.0.0/8, ::1), or in a private range (10.0.0.0/8, 172.16.0.0/12,
// 192.168.0.0/16, and their IPv6 equivalents).
func isPrivateHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}
