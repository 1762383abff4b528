package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
)

// ShareLimits bound anonymous use of the integration endpoint beyond the
// write scope it shares with /shorten.
var ShareLimits = []ratelimit.LimitConfig{
	{Window: time.Minute, Max: 5},
	{Window: time.Hour, Max: 50},
}

// RegisterRoutes registers all short link routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	// Both create operations count against the write scope of the policy.
	writes := map[string]any{
		ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite},
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-short-link",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short link",
		Description:   "Creates an emoji short link, optionally protected by a password, a click limit or an expiry.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata:      writes,
	}, h.CreateShortLink)

	huma.Register(api, huma.Operation{
		OperationID:   "share-link",
		Method:        http.MethodPost,
		Path:          "/api/integrations/share",
		Summary:       "Share a link from an integration",
		Description:   "Creates a short link whose emojis are derived from the shared config. Requests with a valid X-API-Key are not rate limited.",
		Tags:          []string{"Integrations"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Scope:  ratelimit.ScopeWrite,
				Limits: ShareLimits,
			},
		},
	}, h.ShareLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-stats",
		Method:      http.MethodGet,
		Path:        "/stats/{alias}",
		Summary:     "Link statistics",
		Tags:        []string{"Stats"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "leaderboard",
		Method:      http.MethodGet,
		Path:        "/leaderboard",
		Summary:     "Most clicked links",
		Tags:        []string{"Stats"},
	}, h.Leaderboard)

	huma.Register(api, huma.Operation{
		OperationID: "analytics",
		Method:      http.MethodGet,
		Path:        "/analytics",
		Summary:     "Aggregate link analytics",
		Tags:        []string{"Stats"},
	}, h.Analytics)

	// Registered last: every static GET path above takes precedence.
	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{alias}",
		Summary:       "Redirect to original URL",
		Description:   "Counts the visit and redirects to the original URL. Protected links need the password query parameter.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, h.Redirect)
}
