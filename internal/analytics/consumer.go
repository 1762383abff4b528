package analytics

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"go.uber.org/zap"
)

// Consumer persists both link event streams into a Store.
type Consumer struct {
	created *messaging.Consumer[LinkCreatedEvent]
	clicked *messaging.Consumer[LinkClickedEvent]
}

// NewConsumer creates a consumer for the created and clicked topics.
func NewConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *Consumer {
	return &Consumer{
		created: messaging.NewConsumer(subscriber, TopicLinkCreated, store.SaveLinkCreated, logger),
		clicked: messaging.NewConsumer(subscriber, TopicLinkClicked, store.SaveLinkClicked, logger),
	}
}

// Start subscribes to both topics.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.created.Start(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicLinkCreated, err)
	}

	if err := c.clicked.Start(ctx); err != nil {
		_ = c.created.Shutdown()

		return fmt.Errorf("subscribe %s: %w", TopicLinkClicked, err)
	}

	return nil
}

// Shutdown stops both subscriptions and waits for in-flight events.
func (c *Consumer) Shutdown() error {
	return joinFirst(c.created.Shutdown(), c.clicked.Shutdown())
}

func joinFirst(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

var _ messaging.Runnable = (*Consumer)(nil)
