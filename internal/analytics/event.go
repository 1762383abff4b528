package analytics

import "time"

const (
	TopicLinkCreated = "link.created"
	TopicLinkClicked = "link.clicked"
)

// LinkCreatedEvent is emitted after a short link has been stored.
type LinkCreatedEvent struct {
	ID        string    `json:"id"`
	Alias     string    `json:"alias"`
	TargetURL string    `json:"targetUrl"`
	Source    string    `json:"source,omitempty"`
	Protected bool      `json:"protected"`
	MaxClicks *int64    `json:"maxClicks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkClickedEvent is emitted after a visit was counted and redirected.
type LinkClickedEvent struct {
	ID          string    `json:"id"`
	Alias       string    `json:"alias"`
	TargetURL   string    `json:"targetUrl"`
	Source      string    `json:"source,omitempty"`
	TotalClicks int64     `json:"totalClicks"`
	ClickedAt   time.Time `json:"clickedAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
	Referrer    string    `json:"referrer,omitempty"`
}
