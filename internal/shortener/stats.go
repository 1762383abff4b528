package shortener

import (
	"context"
	"math"

	"go.uber.org/zap"
)

const (
	DefaultTopLimit = 20
	MaxTopLimit     = 100
)

// Stats provides read-only rollups over the store.
type Stats struct {
	store  Repository
	logger *zap.Logger
	settings
}

// NewStats creates an analytics aggregator.
func NewStats(store Repository, logger *zap.Logger, opts ...Option) *Stats {
	return &Stats{
		store:    store,
		logger:   logger,
		settings: newSettings(opts),
	}
}

// Top returns the most clicked links for source ("" for all). Ties are
// broken by creation time, oldest first.
func (s *Stats) Top(ctx context.Context, limit int, source string) ([]*ShortLink, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	limit = min(limit, MaxTopLimit)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	links, err := s.store.Top(ctx, Filter{Source: source}, limit)
	if err != nil {
		return nil, storeError(err)
	}

	return links, nil
}

// Totals aggregates count and clicks for source. A failing store yields a
// zeroed result instead of an error. The aggregation only runs when some
// link matches.
func (s *Stats) Totals(ctx context.Context, source string) Totals {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := Filter{Source: source}

	n, err := s.store.Count(ctx, filter)
	if err == nil && n == 0 {
		return Totals{}
	}

	var totals Totals
	if err == nil {
		totals, err = s.store.Aggregate(ctx, filter)
	}

	if err != nil {
		s.logger.Warn("aggregation failed, returning zero totals",
			zap.String("source", source),
			zap.Error(err),
			zap.NamedError("kind", ErrAggregationFailed),
		)

		return Totals{}
	}

	totals.AvgClicks = round2(totals.AvgClicks)

	return totals
}

// Link returns the public usage figures of a single link.
func (s *Stats) Link(ctx context.Context, alias string) (*LinkStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	link, err := s.store.Get(ctx, alias)
	if err != nil {
		return nil, storeError(err)
	}

	return &LinkStats{
		Alias:       link.Alias,
		TargetURL:   link.TargetURL,
		CreatedAt:   link.CreatedAt,
		TotalClicks: link.TotalClicks,
		UniqueIPs:   len(link.IPClicks),
		MaxClicks:   link.MaxClicks,
		ExpiresAt:   link.ExpiresAt,
		Source:      link.Source,
		Protected:   link.HasPassword(),
	}, nil
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return math.Round(v*100) / 100
}
