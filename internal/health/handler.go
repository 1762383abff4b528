package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/zophiezlan/spoo-horse/internal/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds each dependency ping.
const DefaultCheckTimeout = 2 * time.Second

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts a pgx pool to Checker.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// MongoChecker adapts a mongo client to Checker.
type MongoChecker struct {
	client *mongo.Client
}

func NewMongoChecker(client *mongo.Client) *MongoChecker {
	return &MongoChecker{client: client}
}

func (m *MongoChecker) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Handler reports the health of every registered dependency.
type Handler struct {
	checkers map[string]Checker
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHandler creates a new health handler. checkers is keyed by the
// dependency name reported in the response.
func NewHandler(checkers map[string]Checker, logger *zap.Logger) *Handler {
	return &Handler{
		checkers: checkers,
		timeout:  DefaultCheckTimeout,
		logger:   logger,
	}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status       string            `json:"status"       doc:"ok when every dependency is healthy, degraded otherwise"`
		Dependencies map[string]string `json:"dependencies" doc:"Per-dependency status"`
	}
}

// Check performs a health check of the application and its dependencies.
// A failing dependency degrades the status but never fails the request.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = statusOK
	resp.Body.Dependencies = make(map[string]string, len(h.checkers))

	for name, checker := range h.checkers {
		if err := h.ping(ctx, checker); err != nil {
			h.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			resp.Body.Dependencies[name] = statusUnhealthy
			resp.Body.Status = statusDegraded

			continue
		}

		resp.Body.Dependencies[name] = statusHealthy
	}

	return resp, nil
}

func (h *Handler) ping(ctx context.Context, checker Checker) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return checker.Ping(ctx)
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
