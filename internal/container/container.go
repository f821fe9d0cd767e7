// Package container wires the service together with samber/do. Each XxxPackage registers the
// providers of one concern; providers are lazy, so a binary only builds what it invokes.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Redis is the shared client; the injector closes it on shutdown.
type Redis struct {
	redis.UniversalClient
}

// Shutdown tolerates a client already closed by a watermill publisher or subscriber.
func (r *Redis) Shutdown() error {
	if err := r.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}

	return nil
}

// Postgres is the shared pool; the injector closes it on shutdown.
type Postgres struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the zap logger configured by --log-format and --log-level.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		cfg := zap.NewProductionConfig()
		if opts.LogFormat == "console" {
			cfg = zap.NewDevelopmentConfig()
		}

		if opts.LogLevel != "" {
			level, err := zap.ParseAtomicLevel(opts.LogLevel)
			if err != nil {
				return nil, fmt.Errorf("log level: %w", err)
			}

			cfg.Level = level
		}

		return cfg.Build()
	})
}

// MetricsPackage provides the Prometheus registry and the service collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		return &Redis{UniversalClient: client}, nil
	})
}

// PostgresPackage connects to PostgreSQL and applies the schema.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		logger.Info("postgres ready")

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the authoritative record store selected by --store-backend.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.StoreBackend {
		case BackendPostgres:
			return store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool), nil
		case BackendRedis:
			return store.NewRedisStore(do.MustInvoke[*Redis](i)), nil
		case BackendMemory:
			return store.NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown store backend %q", opts.StoreBackend)
		}
	})
}

// CachePackage provides the cache selected by --cache-enabled and --cache-backend.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		if !opts.CacheEnabled {
			return store.NoopCache{}, nil
		}

		ttls, err := opts.CacheTTLs()
		if err != nil {
			return nil, err
		}

		switch opts.CacheBackend {
		case BackendRedis:
			return store.NewRedisCache(
				do.MustInvoke[*Redis](i),
				ttls,
				do.MustInvoke[*metrics.Metrics](i),
				do.MustInvoke[*zap.Logger](i),
			), nil
		case BackendMemory:
			return store.NewMemoryCache(ttls, nil), nil
		default:
			return nil, fmt.Errorf("unknown cache backend %q", opts.CacheBackend)
		}
	})
}

// CorePackage provides the assigner and resolver.
func CorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Assigner, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewAssigner(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			opts.AssignerConfig(),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Resolver, error) {
		opts := do.MustInvoke[*Options](i)

		return shortener.NewResolver(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			opts.MaxCodeLength,
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the policy limiter on the backend selected by --rate-limit-backend.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		var s ratelimit.Store = store.NewRateLimitMemoryStore()
		if opts.RateLimitBackend == BackendRedis {
			s = store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i))
		}

		return ratelimit.NewPolicyLimiter(s, ratelimit.DefaultPolicy()), nil
	})
}

// PublisherGroupPackage provides the record event publisher. With events disabled the publish
// function discards everything and no broker connection is made.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: do.MustInvoke[*Redis](i)},
			messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[events.RecordCreated], error) {
		if !do.MustInvoke[*Options](i).EventsEnabled {
			return messaging.DiscardPublish[events.RecordCreated](), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.RecordCreated](group.Publisher(), events.TopicRecordCreated), nil
	})
}

// ConsumerGroupPackage provides the cache warmer consumer used by cmd/consumer.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*Redis](i),
				ConsumerGroup: events.CacheWarmerGroup,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		warmer := events.NewCacheWarmer(do.MustInvoke[shortener.Cache](i), logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, events.TopicRecordCreated, warmer.Handle, logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		timeout, err := opts.Timeout()
		if err != nil {
			return nil, err
		}

		router.Handle("/metrics", promhttp.HandlerFor(
			do.MustInvoke[*prometheus.Registry](i),
			promhttp.HandlerOpts{},
		))

		api := humachi.New(router, huma.DefaultConfig("URL Shortener", "1.0.0"))
		api.UseMiddleware(
			middleware.AccessLog(logger),
			middleware.RateLimit(api, do.MustInvoke[*ratelimit.PolicyLimiter](i), logger),
			middleware.Timeout(timeout),
		)

		health.RegisterRoutes(api, healthHandler(i, opts))
		handlers.RegisterRoutes(api, handlers.NewURLHandler(
			do.MustInvoke[*shortener.Assigner](i),
			do.MustInvoke[*shortener.Resolver](i),
			opts.PublicBaseURL(),
			do.MustInvoke[messaging.Publish[events.RecordCreated]](i),
			logger,
		))

		return api, nil
	})
}

func healthHandler(i *do.Injector, opts *Options) *health.Handler {
	var redisChecker, postgresChecker health.Checker

	if opts.usesRedis() {
		redisChecker = health.NewRedisChecker(do.MustInvoke[*Redis](i))
	}

	if opts.StoreBackend == BackendPostgres {
		postgresChecker = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
	}

	return health.NewHandler(redisChecker, postgresChecker)
}
