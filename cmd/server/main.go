package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/zophiezlan/spoo-horse/internal/alias"
	"github.com/zophiezlan/spoo-horse/internal/analytics"
	"github.com/zophiezlan/spoo-horse/internal/container"
	"github.com/zophiezlan/spoo-horse/internal/messaging"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.MongoPackage(injector)
	container.RepositoryPackage(injector)
	container.ShortenerPackage(injector)
	container.RateLimitPackage(injector)
	container.EventsPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.HealthPackage(injector)
	container.HTTPPackage(injector)
}

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// startInProcessConsumers runs the analytics consumers next to the API when
// events travel over the in-memory channel, which only this process can read.
func startInProcessConsumers(injector *do.Injector, options *container.Options) error {
	if options.Events != container.EventsMemory {
		return nil
	}

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		return err
	}

	return group.Start(context.Background())
}

func main() {
	// A missing .env file is fine, flags and the environment still apply.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		if err := options.Validate(); err != nil {
			logger.Fatal("invalid options", zap.Error(err))
		}

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Routes are registered when the API is built.
			_ = do.MustInvoke[huma.API](injector)

			if err := startInProcessConsumers(injector, options); err != nil {
				logger.Fatal("failed to start analytics consumer", zap.Error(err))
			}

			server = newHTTPServer(options.Port, router)
			codec := do.MustInvoke[*alias.Codec](injector)
			events := do.MustInvoke[*analytics.Publisher](injector)

			logger.Info("listening",
				zap.String("addr", server.Addr),
				zap.String("storage", options.Storage),
				zap.String("events", options.Events),
				zap.Bool("events_enabled", events.Enabled()),
				zap.String("alias_style", string(codec.Style())),
				zap.String("base_url", options.PublicBaseURL()),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("listen failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("http shutdown", zap.Error(err))
				}
			}

			// Connections and consumers close in reverse construction order.
			if err := injector.Shutdown(); err != nil {
				logger.Error("container shutdown", zap.Error(err))
			}

			logger.Info("stopped")
		})
	})

	cli.Run()
}
