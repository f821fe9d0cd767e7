package store

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// NoopCache never stores anything: every lookup misses and every claim is unknown.
type NoopCache struct{}

func (NoopCache) GetByCode(context.Context, shortener.Code) (*shortener.ShortURL, bool) {
	return nil, false
}

func (NoopCache) SetByCode(context.Context, shortener.Code, *shortener.ShortURL, time.Duration) {}

func (NoopCache) InvalidateByCode(context.Context, shortener.Code) {}

func (NoopCache) GetByHash(context.Context, shortener.URLHash) (*shortener.ShortURL, bool) {
	return nil, false
}

func (NoopCache) SetByHash(context.Context, shortener.URLHash, *shortener.ShortURL, time.Duration) {}

func (NoopCache) InvalidateByHash(context.Context, shortener.URLHash) {}

func (NoopCache) CheckCodeClaimed(context.Context, shortener.Code) shortener.Claim {
	return shortener.ClaimUnknown
}

func (NoopCache) MarkCodeClaimed(context.Context, shortener.Code, bool, time.Duration) {}

func (NoopCache) Warm(context.Context, *shortener.ShortURL) {}

func (NoopCache) Clear(context.Context, *shortener.ShortURL) {}

// Compile-time check.
var _ shortener.Cache = NoopCache{}
