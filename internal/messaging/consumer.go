package messaging

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event. Returning an error nacks the message so
// the transport redelivers it.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer decodes the JSON events of one topic and hands them to a Handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in a background goroutine until
// ctx is cancelled or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if c.process(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}
}

// process reports whether msg is done with. Messages that can never succeed,
// like foreign event types or undecodable payloads, are done with too.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) bool {
	log := c.logger.With(zap.String("message_id", msg.UUID))

	if kind := msg.Metadata.Get(EventTypeKey); kind != "" && kind != c.topic {
		log.Debug("skipping foreign event type", zap.String("event_type", kind))

		return true
	}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Error("dropping undecodable event", zap.Error(err))

		return true
	}

	if err := c.handler(ctx, &event); err != nil {
		log.Error("failed to handle event", zap.Error(err))

		return false
	}

	log.Debug("processed event")

	return true
}

// Shutdown stops consuming and waits for the message in flight.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
