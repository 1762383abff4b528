package store

import (
	"context"

	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"go.uber.org/zap"
)

// Noop is an analytics.Store that only logs the events it receives. It is
// used with the memory backend, where there is nothing durable to write to.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.String("id", event.ID),
		zap.String("alias", event.Alias),
		zap.String("targetUrl", event.TargetURL),
		zap.String("source", event.Source),
		zap.Bool("protected", event.Protected),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkClicked(_ context.Context, event *analytics.LinkClickedEvent) error {
	n.logger.Info("link clicked event received",
		zap.String("id", event.ID),
		zap.String("alias", event.Alias),
		zap.Int64("totalClicks", event.TotalClicks),
		zap.Time("clickedAt", event.ClickedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ analytics.Store = (*Noop)(nil)
