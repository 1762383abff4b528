package messaging

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultConsumerGroup is the Redis stream consumer group of the analytics worker.
const DefaultConsumerGroup = "link-analytics"

// NewRedisPublisher publishes events to Redis streams, one stream per topic.
func NewRedisPublisher(client redis.UniversalClient, logger *zap.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		NewZapLogger(logger),
	)
}

// NewRedisSubscriber reads events from Redis streams as part of consumerGroup,
// so several workers share the load.
func NewRedisSubscriber(
	client redis.UniversalClient, consumerGroup string, logger *zap.Logger,
) (message.Subscriber, error) {
	return redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup,
		},
		NewZapLogger(logger),
	)
}

// NewInMemoryPubSub returns a process-local transport used when no Redis is
// configured. Events are delivered only to subscribers of the same process.
func NewInMemoryPubSub(logger *zap.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		NewZapLogger(logger),
	)
}
