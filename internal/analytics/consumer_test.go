package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu         sync.Mutex
	created    []analytics.LinkCreatedEvent
	clicked    []analytics.LinkClickedEvent
	clickFails int
	attempts   int
}

func (s *recordingStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, *event)

	return nil
}

func (s *recordingStore) SaveLinkClicked(_ context.Context, event *analytics.LinkClickedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.attempts <= s.clickFails {
		return errors.New("db down")
	}

	s.clicked = append(s.clicked, *event)

	return nil
}

func (s *recordingStore) counts() (created, clicked, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.created), len(s.clicked), s.attempts
}

// pipeline wires a publisher and a started consumer over one in-memory channel.
func pipeline(t *testing.T, store analytics.Store) *analytics.Publisher {
	t.Helper()

	pubSub := messaging.NewInMemoryPubSub(zap.NewNop())
	t.Cleanup(func() { _ = pubSub.Close() })

	consumer := analytics.NewConsumer(pubSub, store, zap.NewNop())
	require.NoError(t, consumer.Start(context.Background()))
	t.Cleanup(func() { _ = consumer.Shutdown() })

	return analytics.NewPublisher(pubSub, zap.NewNop())
}

func TestConsumer(t *testing.T) {
	t.Run("persists both event kinds", func(t *testing.T) {
		store := &recordingStore{}
		events := pipeline(t, store)

		events.LinkCreated(context.Background(), &analytics.LinkCreatedEvent{Alias: "🐎🦄", TargetURL: "https://example.com"})
		events.LinkClicked(context.Background(), &analytics.LinkClickedEvent{Alias: "🐎🦄", TotalClicks: 3})

		assert.Eventually(t, func() bool {
			created, clicked, _ := store.counts()

			return created == 1 && clicked == 1
		}, time.Second, 10*time.Millisecond)

		store.mu.Lock()
		defer store.mu.Unlock()

		assert.Equal(t, "🐎🦄", store.created[0].Alias)
		assert.NotEmpty(t, store.created[0].ID)
		assert.Equal(t, int64(3), store.clicked[0].TotalClicks)
	})

	t.Run("redelivers after a store failure", func(t *testing.T) {
		store := &recordingStore{clickFails: 2}
		events := pipeline(t, store)

		events.LinkClicked(context.Background(), &analytics.LinkClickedEvent{Alias: "🐎"})

		assert.Eventually(t, func() bool {
			_, clicked, attempts := store.counts()

			return clicked == 1 && attempts == 3
		}, 2*time.Second, 10*time.Millisecond)
	})
}

type failingSubscriber struct {
	message.Subscriber
	topic string
}

func (f failingSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if topic == f.topic {
		return nil, errors.New("subscribe refused")
	}

	return f.Subscriber.Subscribe(ctx, topic)
}

func TestConsumer_StartRollback(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	defer func() { _ = pubSub.Close() }()

	consumer := analytics.NewConsumer(
		failingSubscriber{Subscriber: pubSub, topic: analytics.TopicLinkClicked},
		&recordingStore{},
		zap.NewNop(),
	)

	err := consumer.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), analytics.TopicLinkClicked)
	assert.NoError(t, consumer.Shutdown())
}
