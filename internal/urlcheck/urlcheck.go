// Package urlcheck decides whether a target URL may be shortened.
package urlcheck

import (
	"net/netip"
	"net/url"
	"strings"
	"unicode"
)

// MaxLength is the longest target URL accepted.
const MaxLength = 2048

var allowedSchemes = []string{"http", "https"}

// StructurallyValid reports whether rawURL is an absolute http(s) URL with a
// well formed host.
func StructurallyValid(rawURL string) bool {
	if rawURL == "" || len(rawURL) > MaxLength {
		return false
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if !isAllowedScheme(parsed.Scheme) || parsed.Opaque != "" {
		return false
	}

	return validHost(parsed.Hostname())
}

// Host returns the lower-cased host name of rawURL, or "" when it cannot be
// parsed.
func Host(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
}

func isAllowedScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range allowedSchemes {
		if scheme == allowed {
			return true
		}
	}

	return false
}

// validHost accepts DNS names, IPv4 and bracket-stripped IPv6 literals.
func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}

	if strings.Contains(host, ":") {
		return isIPv6(host)
	}

	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if !validLabel(label) {
			return false
		}
	}

	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}

	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}

	for _, r := range label {
		switch {
		case r == '-', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r > unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)):
		default:
			return false
		}
	}

	return true
}

func isIPv6(host string) bool {
	addr, err := netip.ParseAddr(host)

	return err == nil && addr.Is6()
}
