package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
	analyticsstore "github.com/zophiezlan/spoo-horse/internal/analytics/store"
	"github.com/zophiezlan/spoo-horse/internal/handlers"
	"github.com/zophiezlan/spoo-horse/internal/health"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"github.com/zophiezlan/spoo-horse/internal/middleware"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"github.com/zophiezlan/spoo-horse/internal/shortener"
	"github.com/zophiezlan/spoo-horse/internal/store"
	"github.com/zophiezlan/spoo-horse/internal/urlcheck"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Redis owns the shared Redis client.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	if err := r.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}

	return nil
}

// Postgres owns the shared connection pool.
type Postgres struct {
	*pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// Mongo owns the shared client.
type Mongo struct {
	*mongo.Client
	Database string
}

func (m *Mongo) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := m.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}

	return nil
}

// gochannelPubSub is the in-process transport shared by publisher and consumer.
type gochannelPubSub struct {
	*gochannel.GoChannel
}

func (g *gochannelPubSub) Shutdown() error {
	return g.Close()
}

// NewLogger builds a zap logger: console selects the development encoder,
// anything else the production JSON one.
func NewLogger(format, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}

		cfg.Level = lvl
	}

	return cfg.Build()
}

func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		return &Redis{Client: client}, nil
	})
}

func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}

func MongoPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Mongo, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		return &Mongo{Client: client, Database: opts.MongoDatabase}, nil
	})
}

// RepositoryPackage provides the record store selected by Options.Storage,
// wrapped in the Redis cache when a cache TTL is set.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := newRecordStore(i, opts)
		if err != nil {
			return nil, err
		}

		if opts.CacheTTLMs > 0 {
			client := do.MustInvoke[*Redis](i)
			repo = store.NewRedisCacheRepository(repo, client.Client, opts.CacheTTL())
		}

		return repo, nil
	})
}

func newRecordStore(i *do.Injector, opts *Options) (shortener.Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch opts.Storage {
	case StoragePostgres:
		pg := store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}

		return pg, nil
	case StorageMongo:
		conn := do.MustInvoke[*Mongo](i)

		m := store.NewMongoStore(conn.Client, conn.Database)
		if err := m.EnsureIndexes(ctx); err != nil {
			return nil, err
		}

		return m, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// ShortenerPackage provides the alias codec, URL policy and the three
// shortener services.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*alias.Codec, error) {
		opts := do.MustInvoke[*Options](i)

		return alias.NewCodec(
			alias.Style(opts.AliasStyle),
			opts.CodeLength,
			alias.WithEmojiLength(opts.EmojiLength),
		)
	})

	do.Provide(injector, func(i *do.Injector) (*urlcheck.Blocklist, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.BlocklistFile == "" {
			return urlcheck.NewBlocklist(opts.BlockedHosts()...)
		}

		f, err := os.Open(opts.BlocklistFile)
		if err != nil {
			return nil, fmt.Errorf("open blocklist: %w", err)
		}
		defer f.Close()

		return urlcheck.ParseBlocklist(f, opts.BlockedHosts()...)
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		blocklist := do.MustInvoke[*urlcheck.Blocklist](i)
		logger := do.MustInvoke[*zap.Logger](i)

		logger.Info("blocklist loaded", zap.Int("entries", blocklist.Len()))

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*alias.Codec](i),
			blocklist,
			logger,
			shortener.WithStoreTimeout(opts.StoreTimeout()),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Resolver, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewResolver(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
			shortener.WithStoreTimeout(opts.StoreTimeout()),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Stats, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewStats(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
			shortener.WithStoreTimeout(opts.StoreTimeout()),
		), nil
	})
}

// RateLimitPackage provides the request policy limiter and the password
// attempt guard, both counting in the store selected by Options.RateLimitStore.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RateLimitStore == "redis" {
			return store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(
			do.MustInvoke[ratelimit.Store](i),
			ratelimit.DefaultPolicy(),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.PasswordAttempts <= 0 {
			return nil, nil
		}

		return ratelimit.NewSlidingWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			int64(opts.PasswordAttempts),
			time.Minute,
		), nil
	})
}

// EventsPackage provides the watermill transport selected by Options.Events.
// The in-memory transport serves both sides, so the server can consume its
// own events.
func EventsPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var (
			publisher message.Publisher
			err       error
		)

		switch opts.Events {
		case EventsRedis:
			publisher, err = messaging.NewRedisPublisher(do.MustInvoke[*Redis](i).Client, logger)
		case EventsMemory:
			publisher = do.MustInvoke[*gochannelPubSub](i).GoChannel
		default:
			return nil, errors.New("events are disabled")
		}

		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (*gochannelPubSub, error) {
		return &gochannelPubSub{
			GoChannel: messaging.NewInMemoryPubSub(do.MustInvoke[*zap.Logger](i)),
		}, nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Publisher, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.Events == EventsOff {
			return analytics.NewDisabledPublisher(logger), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return analytics.NewPublisher(group.Publisher(), logger), nil
	})
}

// ConsumerGroupPackage provides the analytics consumer writing to the click
// log of the configured storage.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		switch opts.Storage {
		case StoragePostgres:
			pg := analyticsstore.NewPostgres(do.MustInvoke[*Postgres](i).Pool)
			if err := pg.Migrate(ctx); err != nil {
				return nil, err
			}

			return pg, nil
		case StorageMongo:
			conn := do.MustInvoke[*Mongo](i)

			return analyticsstore.NewMongo(conn.Client, conn.Database), nil
		default:
			return analyticsstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		}
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var (
			subscriber message.Subscriber
			err        error
		)

		switch opts.Events {
		case EventsMemory:
			subscriber = do.MustInvoke[*gochannelPubSub](i).GoChannel
		default:
			subscriber, err = messaging.NewRedisSubscriber(
				do.MustInvoke[*Redis](i).Client, messaging.DefaultConsumerGroup, logger)
			if err != nil {
				return nil, fmt.Errorf("create subscriber: %w", err)
			}
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumer(subscriber, do.MustInvoke[analytics.Store](i), logger))

		return group, nil
	})
}

// HealthPackage checks every backend the options select.
func HealthPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := map[string]health.Checker{}

		if opts.UsesRedis() {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		switch opts.Storage {
		case StoragePostgres:
			checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
		case StorageMongo:
			checkers["mongo"] = health.NewMongoChecker(do.MustInvoke[*Mongo](i).Client)
		}

		return health.NewHandler(checkers, do.MustInvoke[*zap.Logger](i)), nil
	})
}

// HTTPPackage provides the router and the huma API with middlewares and
// routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*handlers.LinkHandler, error) {
		opts := do.MustInvoke[*Options](i)

		return handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[*shortener.Resolver](i),
			do.MustInvoke[*shortener.Stats](i),
			do.MustInvoke[*analytics.Publisher](i),
			do.MustInvoke[ratelimit.Limiter](i),
			handlers.NewURLBuilder(opts.PublicBaseURL(), opts.ShortDomain),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("Spoo Horse", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api, opts.APIKey))
		api.UseMiddleware(middleware.PolicyRateLimiter(
			api,
			do.MustInvoke[*ratelimit.PolicyLimiter](i),
			ratelimit.NewOperationScopeResolver(),
			logger,
		))

		handlers.RegisterRoutes(api, do.MustInvoke[*handlers.LinkHandler](i))
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}
