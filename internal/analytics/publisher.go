package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"go.uber.org/zap"
)

// Publisher emits link events on a best-effort basis: failures are logged and
// never reach the caller.
type Publisher struct {
	created messaging.Publish[LinkCreatedEvent]
	clicked messaging.Publish[LinkClickedEvent]
	logger  *zap.Logger
}

// NewPublisher creates an analytics publisher on top of a watermill publisher.
func NewPublisher(publisher message.Publisher, logger *zap.Logger) *Publisher {
	return &Publisher{
		created: messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		clicked: messaging.NewPublishFunc[LinkClickedEvent](publisher, TopicLinkClicked),
		logger:  logger,
	}
}

// NewDisabledPublisher returns a publisher that drops every event.
func NewDisabledPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool {
	return p.created != nil
}

// LinkCreated publishes event, assigning an ID when missing.
func (p *Publisher) LinkCreated(ctx context.Context, event *LinkCreatedEvent) {
	if p.created == nil {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := p.created(ctx, event); err != nil {
		p.logger.Warn("failed to publish link created event",
			zap.String("alias", event.Alias),
			zap.Error(err),
		)
	}
}

// LinkClicked publishes event, assigning an ID when missing.
func (p *Publisher) LinkClicked(ctx context.Context, event *LinkClickedEvent) {
	if p.clicked == nil {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := p.clicked(ctx, event); err != nil {
		p.logger.Warn("failed to publish link clicked event",
			zap.String("alias", event.Alias),
			zap.Error(err),
		)
	}
}
