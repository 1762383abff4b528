package shortener

import "time"

// MaxConfigPreview is the number of characters of integration metadata kept
// with a link.
const MaxConfigPreview = 500

// ShortLink maps an alias to its target URL together with its usage counters.
type ShortLink struct {
	Alias         string
	TargetURL     string
	CreatedAt     time.Time
	CreatorIP     string
	TotalClicks   int64
	IPClicks      map[string]int64
	PasswordHash  string
	MaxClicks     *int64
	ExpiresAt     *time.Time
	Source        string
	ConfigPreview string
}

// HasPassword reports whether resolving the link requires a password.
func (l *ShortLink) HasPassword() bool {
	return l.PasswordHash != ""
}

// Exhausted reports whether the link reached its click limit.
func (l *ShortLink) Exhausted() bool {
	return l.MaxClicks != nil && l.TotalClicks >= *l.MaxClicks
}

// Expired reports whether the link expired at or before now.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// Filter narrows aggregate and leaderboard queries. The zero value matches
// every link.
type Filter struct {
	Source string
}

// Matches reports whether link satisfies the filter.
func (f Filter) Matches(link *ShortLink) bool {
	return f.Source == "" || link.Source == f.Source
}

// Totals summarises the links matching a filter.
type Totals struct {
	Count     int64
	SumClicks int64
	AvgClicks float64
}

// LinkStats is the public projection of a single link's usage.
type LinkStats struct {
	Alias       string
	TargetURL   string
	CreatedAt   time.Time
	TotalClicks int64
	UniqueIPs   int
	MaxClicks   *int64
	ExpiresAt   *time.Time
	Source      string
	Protected   bool
}
