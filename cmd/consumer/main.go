// Command consumer persists link events read from the Redis stream into the
// configured analytics store. It reads the same SERVICE_* environment as the
// server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/zophiezlan/spoo-horse/internal/container"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"go.uber.org/zap"
)

func optionsFromEnv() *container.Options {
	env := func(key, fallback string) string {
		if v, ok := os.LookupEnv("SERVICE_" + key); ok && v != "" {
			return v
		}

		return fallback
	}

	return &container.Options{
		Storage:       env("STORAGE", container.StorageMemory),
		DatabaseURL:   env("DATABASE_URL", "postgres://localhost:5432/spoo?sslmode=disable"),
		MongoURI:      env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: env("MONGO_DATABASE", "spoo-horse"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		Events:        container.EventsRedis,
		LogFormat:     env("LOG_FORMAT", "console"),
		LogLevel:      env("LOG_LEVEL", "info"),
	}
}

func main() {
	_ = godotenv.Load()

	opts := optionsFromEnv()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.MongoPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("analytics consumer running",
		zap.String("storage", opts.Storage),
		zap.String("redis", opts.RedisAddr),
	)

	<-ctx.Done()

	logger.Info("draining consumers")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
