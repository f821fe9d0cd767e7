package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/shortlink/internal/metrics"
	"go.uber.org/zap"
)

// Outcome describes how an assignment obtained its record.
type Outcome string

const (
	OutcomeCached   Outcome = "cached"
	OutcomeExisting Outcome = "existing"
	OutcomeCreated  Outcome = "created"
	OutcomeAdopted  Outcome = "adopted"
)

// Assignment is the result of assigning a short code to a URL.
type Assignment struct {
	ShortURL *ShortURL
	Outcome  Outcome
}

// AssignerConfig tunes candidate generation.
type AssignerConfig struct {
	// BaseLength is the candidate length on the first attempt; each retry adds one.
	BaseLength int
	// MaxAttempts bounds the number of candidates tried before giving up.
	MaxAttempts int
}

// DefaultAssignerConfig returns a base length of 7 and ten attempts.
func DefaultAssignerConfig() AssignerConfig {
	return AssignerConfig{
		BaseLength:  DefaultCodeLength,
		MaxAttempts: 10,
	}
}

// WithDefaults replaces zero or negative fields with DefaultAssignerConfig values.
func (c AssignerConfig) WithDefaults() AssignerConfig {
	defaults := DefaultAssignerConfig()
	if c.BaseLength <= 0 {
		c.BaseLength = defaults.BaseLength
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}

	return c
}

// LongestCode is the length of the last candidate. Call it on a config with defaults applied.
func (c AssignerConfig) LongestCode() int {
	return c.BaseLength + c.MaxAttempts - 1
}

// Assigner maps a normalized URL to a single, stable short code.
type Assigner struct {
	store   Repository
	cache   Cache
	config  AssignerConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAssigner creates an assigner. Zero fields in config fall back to DefaultAssignerConfig.
func NewAssigner(
	store Repository,
	cache Cache,
	config AssignerConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Assigner {
	return &Assigner{
		store:   store,
		cache:   cache,
		config:  config.WithDefaults(),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// MaxCodeLength is the longest code this assigner can produce.
func (a *Assigner) MaxCodeLength() int {
	return a.config.LongestCode()
}

// Assign returns the record for normalizedURL, creating it when none exists. hash must be
// HashURL(normalizedURL).
func (a *Assigner) Assign(ctx context.Context, normalizedURL string, hash URLHash) (*Assignment, error) {
	if err := checkInput(normalizedURL, hash); err != nil {
		return nil, err
	}

	if cached, ok := a.cache.GetByHash(ctx, hash); ok {
		return a.finish(cached, OutcomeCached), nil
	}

	existing, err := a.store.GetByHash(ctx, hash)
	if err == nil {
		a.cache.Warm(ctx, existing)

		return a.finish(existing, OutcomeExisting), nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup by hash: %w", ErrStoreUnavailable, err)
	}

	return a.create(ctx, normalizedURL, hash)
}

func (a *Assigner) create(ctx context.Context, normalizedURL string, hash URLHash) (*Assignment, error) {
	tried := make(map[Code]struct{}, a.config.MaxAttempts)

	for attempt := range a.config.MaxAttempts {
		candidate := FromHash(normalizedURL, a.config.BaseLength+attempt)

		if _, seen := tried[candidate]; seen {
			continue
		}

		tried[candidate] = struct{}{}

		if a.cache.CheckCodeClaimed(ctx, candidate) == ClaimTaken {
			a.logger.Debug("candidate code claimed in cache, escalating",
				zap.String("code", string(candidate)),
				zap.Int("attempt", attempt+1),
			)

			continue
		}

		shortURL := &ShortURL{
			Code:        candidate,
			OriginalURL: normalizedURL,
			URLHash:     hash,
			CreatedAt:   a.now().UTC(),
		}

		result, err := a.store.Insert(ctx, shortURL)
		if err != nil {
			a.logger.Error("insert failed, aborting assignment",
				zap.String("code", string(candidate)),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)

			return nil, fmt.Errorf("%w: insert: %w", ErrStoreUnavailable, err)
		}

		switch result {
		case Inserted:
			a.cache.MarkCodeClaimed(ctx, candidate, true, 0)
			a.cache.Warm(ctx, shortURL)
			a.metrics.AssignmentAttempts(attempt + 1)

			return a.finish(shortURL, OutcomeCreated), nil

		case ConflictHash:
			winner, err := a.store.GetByHash(ctx, hash)
			if err == nil {
				a.cache.Warm(ctx, winner)

				return a.finish(winner, OutcomeAdopted), nil
			}

			if !errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: reread by hash: %w", ErrStoreUnavailable, err)
			}

			a.logger.Warn("hash conflict but no record visible, retrying",
				zap.String("hash", string(hash)),
				zap.Int("attempt", attempt+1),
			)

		case ConflictCode:
			a.metrics.CodeCollision()
			a.cache.MarkCodeClaimed(ctx, candidate, true, 0)
			a.logger.Warn("short code collision",
				zap.String("code", string(candidate)),
				zap.Int("attempt", attempt+1),
			)
		}
	}

	a.metrics.Assignment("exhausted")
	a.logger.Error("failed to assign short code",
		zap.String("hash", string(hash)),
		zap.Int("attempts", a.config.MaxAttempts),
	)

	return nil, ErrAssignmentExhausted
}

func (a *Assigner) finish(shortURL *ShortURL, outcome Outcome) *Assignment {
	a.metrics.Assignment(string(outcome))

	return &Assignment{ShortURL: shortURL, Outcome: outcome}
}

func checkInput(normalizedURL string, hash URLHash) error {
	switch {
	case normalizedURL == "":
		return fmt.Errorf("%w: empty url", ErrMalformedInput)
	case len(normalizedURL) > MaxURLLength:
		return fmt.Errorf("%w: url longer than %d", ErrMalformedInput, MaxURLLength)
	case !validHash(hash):
		return fmt.Errorf("%w: hash is not a sha-256 hex digest", ErrMalformedInput)
	case HashURL(normalizedURL) != hash:
		return fmt.Errorf("%w: hash does not match url", ErrMalformedInput)
	}

	return nil
}
