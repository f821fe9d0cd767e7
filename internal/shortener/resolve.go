package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/shortlink/internal/metrics"
	"go.uber.org/zap"
)

// Resolver maps short codes back to their records for the redirect path.
type Resolver struct {
	store         Repository
	cache         Cache
	maxCodeLength int
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewResolver creates a resolver that rejects codes longer than maxCodeLength.
func NewResolver(
	store Repository,
	cache Cache,
	maxCodeLength int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		store:         store,
		cache:         cache,
		maxCodeLength: maxCodeLength,
		metrics:       m,
		logger:        logger,
	}
}

// Resolve returns the record for code.
func (r *Resolver) Resolve(ctx context.Context, code string) (*ShortURL, error) {
	if len(code) > r.maxCodeLength || !ValidCode(code) {
		r.metrics.Resolution("invalid")

		return nil, ErrInvalidCodeFormat
	}

	if cached, ok := r.cache.GetByCode(ctx, Code(code)); ok {
		r.metrics.Resolution("cache")

		return cached, nil
	}

	shortURL, err := r.store.GetByCode(ctx, Code(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.metrics.Resolution("not_found")
			r.logger.Debug("short code not found", zap.String("code", code))

			return nil, ErrCodeNotFound
		}

		r.metrics.Resolution("error")

		return nil, fmt.Errorf("%w: lookup by code: %w", ErrStoreUnavailable, err)
	}

	r.cache.Warm(ctx, shortURL)
	r.metrics.Resolution("store")

	return shortURL, nil
}
