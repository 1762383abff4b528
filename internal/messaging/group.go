package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer with a start/stop lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops consumers sharing one subscriber.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts the consumers in order. If one fails, those already running
// are stopped again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			g.stop(g.consumers[:i])

			return fmt.Errorf("start consumer %d: %w", i, err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("count", len(g.consumers)))

	return nil
}

// Shutdown stops every consumer, newest first, then closes the subscriber.
// All failures are reported.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	err := g.stop(g.consumers)

	return errors.Join(err, g.subscriber.Close())
}

func (g *ConsumerGroup) stop(consumers []Runnable) error {
	var errs []error

	for i := len(consumers) - 1; i >= 0; i-- {
		if err := consumers[i].Shutdown(); err != nil {
			g.logger.Warn("consumer shutdown failed", zap.Int("consumer", i), zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
