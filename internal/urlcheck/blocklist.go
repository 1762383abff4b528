package urlcheck

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const patternPrefix = "re:"

// Blocklist is an immutable snapshot of denied hosts and patterns.
//
// Entries are one of:
//   - "example.com"    exact host match
//   - ".example.com"   the host or any subdomain ("*.example.com" is equivalent)
//   - "re:<pattern>"   regular expression matched against the full URL
type Blocklist struct {
	exact    map[string]struct{}
	suffixes []string
	patterns []*regexp.Regexp
}

// NewBlocklist compiles entries into a Blocklist. Blank entries and lines
// starting with '#' are skipped.
func NewBlocklist(entries ...string) (*Blocklist, error) {
	b := &Blocklist{exact: make(map[string]struct{})}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(entry, patternPrefix):
			re, err := regexp.Compile(strings.TrimPrefix(entry, patternPrefix))
			if err != nil {
				return nil, fmt.Errorf("blocklist pattern %q: %w", entry, err)
			}

			b.patterns = append(b.patterns, re)
		case strings.HasPrefix(entry, "*."):
			b.suffixes = append(b.suffixes, strings.ToLower(entry[1:]))
		case strings.HasPrefix(entry, "."):
			b.suffixes = append(b.suffixes, strings.ToLower(entry))
		default:
			b.exact[strings.ToLower(entry)] = struct{}{}
		}
	}

	return b, nil
}

// ParseBlocklist reads newline-delimited entries from r, appending extra.
func ParseBlocklist(r io.Reader, extra ...string) (*Blocklist, error) {
	var entries []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}

	return NewBlocklist(append(entries, extra...)...)
}

// Blocked reports whether rawURL matches any entry.
func (b *Blocklist) Blocked(rawURL string) bool {
	if b == nil {
		return false
	}

	host := Host(rawURL)

	if _, ok := b.exact[host]; ok {
		return true
	}

	for _, suffix := range b.suffixes {
		if host == suffix[1:] || strings.HasSuffix(host, suffix) {
			return true
		}
	}

	for _, re := range b.patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}

	return false
}

// Len returns the number of entries in the list.
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}

	return len(b.exact) + len(b.suffixes) + len(b.patterns)
}
