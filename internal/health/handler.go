// Package health reports whether the service's backing stores are reachable.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	Healthy   = "healthy"
	Unhealthy = "unhealthy"
	Disabled  = "disabled"
)

const pingTimeout = 2 * time.Second

// Checker is anything that can be pinged.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker pings a Redis client.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a checker that pings client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping sends a Redis PING.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker pings a pgx pool.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a checker that pings pool.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping checks that a pooled connection answers.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler serves GET /health. A nil checker reports its dependency as disabled.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a health handler. A nil checker reports the dependency as disabled.
func NewHandler(redis, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response is the health report.
type Response struct {
	Body struct {
		Status   string `enum:"ok,degraded"                json:"status"`
		Redis    string `enum:"healthy,unhealthy,disabled" json:"redis"`
		Postgres string `enum:"healthy,unhealthy,disabled" json:"postgres"`
	}
}

// Check pings every configured dependency in parallel. Any failure degrades the status.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp := &Response{}

	var g errgroup.Group

	g.Go(func() error {
		resp.Body.Redis = probe(ctx, h.redis)

		return nil
	})
	g.Go(func() error {
		resp.Body.Postgres = probe(ctx, h.postgres)

		return nil
	})

	_ = g.Wait()

	resp.Body.Status = StatusOK
	if resp.Body.Redis == Unhealthy || resp.Body.Postgres == Unhealthy {
		resp.Body.Status = StatusDegraded
	}

	return resp, nil
}

func probe(ctx context.Context, c Checker) string {
	if c == nil {
		return Disabled
	}

	if err := c.Ping(ctx); err != nil {
		return Unhealthy
	}

	return Healthy
}

// RegisterRoutes registers GET /health, exempt from rate limiting.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
