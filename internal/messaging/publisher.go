package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published event.
const (
	EventTypeKey   = "event_type"
	PublishedAtKey = "published_at"
)

// Publish sends one typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// NewPublishFunc binds publisher to topic. Events are JSON encoded and tagged
// with the topic under EventTypeKey so consumers sharing a stream can tell
// them apart.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(EventTypeKey, topic)
		msg.Metadata.Set(PublishedAtKey, time.Now().UTC().Format(time.RFC3339Nano))
		msg.SetContext(ctx)

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s event: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns a publisher shared by several publish funcs.
type PublisherGroup struct {
	publisher message.Publisher
	once      sync.Once
	closeErr  error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher once. Later calls report the first result.
func (g *PublisherGroup) Shutdown() error {
	g.once.Do(func() {
		g.closeErr = g.publisher.Close()
	})

	return g.closeErr
}
