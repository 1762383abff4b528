package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"go.uber.org/zap"
)

const (
	// IntegrationSource tags links created through the integration endpoint.
	IntegrationSource = "tsdice-api"
	// IntegrationAPIVersion is reported by the integration endpoint.
	IntegrationAPIVersion = "1.0-tsdice"
)

// LinkHandler serves the short link API.
type LinkHandler struct {
	service  *shortener.Service
	resolver *shortener.Resolver
	stats    *shortener.Stats
	events   *analytics.Publisher
	attempts ratelimit.Limiter
	urls     URLBuilder
	logger   *zap.Logger
}

// NewLinkHandler creates the link handler. attempts bounds password guesses
// per alias and client, nil disables that guard.
func NewLinkHandler(
	service *shortener.Service,
	resolver *shortener.Resolver,
	stats *shortener.Stats,
	events *analytics.Publisher,
	attempts ratelimit.Limiter,
	urls URLBuilder,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:  service,
		resolver: resolver,
		stats:    stats,
		events:   events,
		attempts: attempts,
		urls:     urls,
		logger:   logger,
	}
}

// CreateShortLink stores a new link under the requested or a generated alias.
func (h *LinkHandler) CreateShortLink(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	meta := RequestMetaFromContext(ctx)

	link, err := h.service.Create(ctx, shortener.CreateRequest{
		TargetURL: req.Body.URL,
		Alias:     req.Body.Alias,
		Password:  req.Body.Password,
		MaxClicks: req.Body.MaxClicks,
		ExpiresAt: req.Body.ExpiresAt,
		CreatorIP: meta.ClientIP,
	})
	if err != nil {
		h.logger.Debug("create rejected", zap.String("url", req.Body.URL), zap.Error(err))

		return nil, toHTTPError(err)
	}

	h.publishCreated(ctx, link, meta)

	resp := &ShortenResponse{}
	resp.Location = h.urls.Short(link.Alias)
	resp.Body.Alias = link.Alias
	resp.Body.ShortURL = h.urls.Short(link.Alias)
	resp.Body.StatsURL = h.urls.Stats(link.Alias)
	resp.Body.OriginalURL = link.TargetURL
	resp.Body.Protected = link.HasPassword()
	resp.Body.MaxClicks = link.MaxClicks
	resp.Body.ExpiresAt = link.ExpiresAt

	return resp, nil
}

// ShareLink is the integration flavour of CreateShortLink: the alias is
// derived from the shared config and the link is tagged with IntegrationSource.
func (h *LinkHandler) ShareLink(ctx context.Context, req *ShareRequest) (*ShareResponse, error) {
	err := validation.ValidateStruct(&req.Body,
		validation.Field(&req.Body.URL, validation.Required.Error("URL is required")),
	)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	meta := RequestMetaFromContext(ctx)

	link, err := h.service.Create(ctx, shortener.CreateRequest{
		TargetURL:     req.Body.URL,
		Alias:         req.Body.Emojis,
		Password:      req.Body.Password,
		MaxClicks:     req.Body.MaxClicks,
		Hint:          req.Body.Config,
		ConfigPreview: req.Body.Config,
		Source:        IntegrationSource,
		CreatorIP:     meta.ClientIP,
	})
	if err != nil {
		h.logger.Debug("share rejected", zap.String("url", req.Body.URL), zap.Error(err))

		return nil, toHTTPError(err)
	}

	h.publishCreated(ctx, link, meta)

	h.logger.Info("integration link created",
		zap.String("alias", link.Alias),
		zap.Bool("authenticated", meta.Authenticated),
	)

	resp := &ShareResponse{}
	resp.Body.ShortURL = h.urls.Short(link.Alias)
	resp.Body.StatsURL = h.urls.Stats(link.Alias)
	resp.Body.Emojis = link.Alias
	resp.Body.Domain = h.urls.Domain()
	resp.Body.OriginalURL = link.TargetURL
	resp.Body.APIVersion = IntegrationAPIVersion
	resp.Body.Authenticated = meta.Authenticated

	return resp, nil
}

// Redirect resolves the alias, counts the visit and redirects to the target.
func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	if err := h.guardPassword(ctx, req, meta); err != nil {
		return nil, err
	}

	target, err := h.resolver.Resolve(ctx, shortener.ResolveRequest{
		Alias:    req.Alias,
		Password: req.Password,
		ClientIP: meta.ClientIP,
	})
	if err != nil {
		return nil, toHTTPError(err)
	}

	h.events.LinkClicked(ctx, &analytics.LinkClickedEvent{
		Alias:       target.Alias,
		TargetURL:   target.TargetURL,
		Source:      target.Source,
		TotalClicks: target.TotalClicks,
		ClickedAt:   time.Now().UTC(),
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
	})

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Location = target.TargetURL
	resp.CacheControl = "no-store"

	return resp, nil
}

func (h *LinkHandler) guardPassword(ctx context.Context, req *RedirectRequest, meta RequestMeta) error {
	if h.attempts == nil || req.Password == "" {
		return nil
	}

	key := "password:" + alias.Normalize(req.Alias) + ":" + meta.ClientIP

	allowed, err := h.attempts.Allow(ctx, key)
	if err != nil {
		h.logger.Warn("password attempt check failed", zap.Error(err))

		return nil
	}

	if !allowed {
		return huma.Error429TooManyRequests("too many password attempts")
	}

	return nil
}

// GetStats returns the public usage of a link. The target of a protected
// link is not disclosed.
func (h *LinkHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	stats, err := h.stats.Link(ctx, alias.Normalize(req.Alias))
	if err != nil {
		return nil, toHTTPError(err)
	}

	resp := &StatsResponse{}
	resp.Body.Alias = stats.Alias
	resp.Body.ShortURL = h.urls.Short(stats.Alias)
	resp.Body.CreatedAt = stats.CreatedAt
	resp.Body.TotalClicks = stats.TotalClicks
	resp.Body.UniqueIPs = stats.UniqueIPs
	resp.Body.MaxClicks = stats.MaxClicks
	resp.Body.ExpiresAt = stats.ExpiresAt
	resp.Body.Source = stats.Source
	resp.Body.Protected = stats.Protected

	if !stats.Protected {
		resp.Body.OriginalURL = stats.TargetURL
	}

	return resp, nil
}

// Leaderboard lists the most clicked links together with overall totals.
func (h *LinkHandler) Leaderboard(ctx context.Context, req *LeaderboardRequest) (*LeaderboardResponse, error) {
	links, err := h.stats.Top(ctx, req.Limit, req.Source)
	if err != nil {
		return nil, toHTTPError(err)
	}

	totals := h.stats.Totals(ctx, req.Source)

	resp := &LeaderboardResponse{}
	resp.Body.Links = make([]LeaderboardEntry, len(links))
	resp.Body.TotalLinks = totals.Count
	resp.Body.TotalClicks = totals.SumClicks

	for i, link := range links {
		resp.Body.Links[i] = LeaderboardEntry{
			Rank:        i + 1,
			Alias:       link.Alias,
			ShortURL:    h.urls.Short(link.Alias),
			TotalClicks: link.TotalClicks,
			CreatedAt:   link.CreatedAt,
			Source:      link.Source,
		}
	}

	return resp, nil
}

// Analytics returns aggregate totals. It never fails.
func (h *LinkHandler) Analytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	totals := h.stats.Totals(ctx, req.Source)

	resp := &AnalyticsResponse{}
	resp.Body.TotalLinks = totals.Count
	resp.Body.TotalClicks = totals.SumClicks
	resp.Body.AvgClicksPerLink = totals.AvgClicks

	return resp, nil
}

func (h *LinkHandler) publishCreated(ctx context.Context, link *shortener.ShortLink, meta RequestMeta) {
	h.events.LinkCreated(ctx, &analytics.LinkCreatedEvent{
		Alias:     link.Alias,
		TargetURL: link.TargetURL,
		Source:    link.Source,
		Protected: link.HasPassword(),
		MaxClicks: link.MaxClicks,
		CreatedAt: link.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	})
}
