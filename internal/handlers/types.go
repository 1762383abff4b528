package handlers

import "time"

// ShortenRequest is the request body for creating a short link.
type ShortenRequest struct {
	Body struct {
		URL       string     `doc:"The URL to shorten"                                 example:"https://example.com/very/long/path" json:"url"                 maxLength:"2048"`
		Alias     string     `doc:"Requested emoji alias, generated when empty"        example:"🐎🦄"                                json:"alias,omitempty"`
		Password  string     `doc:"Password required to follow the link"                                                             json:"password,omitempty"`
		MaxClicks string     `doc:"Number of redirects after which the link stops working" example:"10"                               json:"maxClicks,omitempty"`
		ExpiresAt *time.Time `doc:"Instant after which the link stops working"                                                        json:"expiresAt,omitempty"`
	}
}

// ShortenResponse is the response for a successfully created short link.
type ShortenResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Alias       string     `doc:"The emoji alias"          example:"🐎🦄"                                json:"alias"`
		ShortURL    string     `doc:"The full short URL"       example:"http://localhost:8888/🐎🦄"          json:"shortUrl"`
		StatsURL    string     `doc:"Usage statistics URL"     example:"http://localhost:8888/stats/🐎🦄"    json:"statsUrl"`
		OriginalURL string     `doc:"The original URL"         example:"https://example.com/very/long/path" json:"originalUrl"`
		Protected   bool       `doc:"Whether a password is set"                                             json:"protected"`
		MaxClicks   *int64     `doc:"Click limit, if any"                                                   json:"maxClicks,omitempty"`
		ExpiresAt   *time.Time `doc:"Expiry, if any"                                                        json:"expiresAt,omitempty"`
	}
}

// ShareRequest is the integration variant of ShortenRequest. The alias is
// derived from Config unless Emojis is given.
type ShareRequest struct {
	Body struct {
		URL       string `doc:"The URL to shorten"                      json:"url"                 maxLength:"2048"`
		Emojis    string `doc:"Requested emoji alias"                   json:"emojis,omitempty"`
		Password  string `doc:"Password required to follow the link"    json:"password,omitempty"`
		MaxClicks string `doc:"Click limit"                             json:"maxClicks,omitempty"`
		Config    string `doc:"Integration payload used to pick emojis" json:"config,omitempty"`
	}
}

// ShareResponse is the response of the integration endpoint.
type ShareResponse struct {
	Body struct {
		ShortURL      string `json:"shortUrl"`
		StatsURL      string `json:"statsUrl"`
		Emojis        string `json:"emojis"`
		Domain        string `json:"domain"`
		OriginalURL   string `json:"originalUrl"`
		APIVersion    string `json:"apiVersion"`
		Authenticated bool   `doc:"Whether the request carried a valid API key" json:"authenticated"`
	}
}

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	Alias    string `doc:"The emoji alias"                 path:"alias"`
	Password string `doc:"Password of a protected link"    query:"password"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// StatsRequest identifies the link whose statistics are requested.
type StatsRequest struct {
	Alias string `doc:"The emoji alias" path:"alias"`
}

// StatsResponse is the public usage of a single link.
type StatsResponse struct {
	Body struct {
		Alias       string     `json:"alias"`
		ShortURL    string     `json:"shortUrl"`
		OriginalURL string     `doc:"Omitted for password protected links" json:"originalUrl,omitempty"`
		CreatedAt   time.Time  `json:"createdAt"`
		TotalClicks int64      `json:"totalClicks"`
		UniqueIPs   int        `json:"uniqueIps"`
		MaxClicks   *int64     `json:"maxClicks,omitempty"`
		ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
		Source      string     `json:"source,omitempty"`
		Protected   bool       `json:"protected"`
	}
}

// LeaderboardRequest selects the leaderboard slice.
type LeaderboardRequest struct {
	Source string `doc:"Only links from this source"     query:"source"`
	Limit  int    `default:"20" doc:"Number of links" maximum:"100" minimum:"1" query:"limit"`
}

// LeaderboardEntry is one ranked link.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	Alias       string    `json:"alias"`
	ShortURL    string    `json:"shortUrl"`
	TotalClicks int64     `json:"totalClicks"`
	CreatedAt   time.Time `json:"createdAt"`
	Source      string    `json:"source,omitempty"`
}

// LeaderboardResponse lists the most clicked links with overall totals.
type LeaderboardResponse struct {
	Body struct {
		Links       []LeaderboardEntry `json:"links"`
		TotalLinks  int64              `json:"totalLinks"`
		TotalClicks int64              `json:"totalClicks"`
	}
}

// AnalyticsRequest selects the links to aggregate.
type AnalyticsRequest struct {
	Source string `doc:"Only links from this source" query:"source"`
}

// AnalyticsResponse carries aggregate totals. A failing store yields zeros.
type AnalyticsResponse struct {
	Body struct {
		TotalLinks       int64   `json:"totalLinks"`
		TotalClicks      int64   `json:"totalClicks"`
		AvgClicksPerLink float64 `json:"avgClicksPerLink"`
	}
}
