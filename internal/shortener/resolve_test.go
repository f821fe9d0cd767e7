package shortener_test

import (
	"context"
	"strings"
	"testing"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newResolver(s shortener.Repository, c shortener.Cache) *shortener.Resolver {
	return shortener.NewResolver(s, c, 16, nil, zap.NewNop())
}

func seed(t *testing.T, s shortener.Repository, code shortener.Code, url string) *shortener.ShortURL {
	t.Helper()

	rec := &shortener.ShortURL{Code: code, OriginalURL: url, URLHash: shortener.HashURL(url)}
	result, err := s.Insert(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, shortener.Inserted, result)

	return rec
}

func TestResolve(t *testing.T) {
	t.Run("resolves from the store and warms the cache", func(t *testing.T) {
		s := newMockStore()
		seed(t, s, "abc1234", testURL)

		cache := newMemoryCache()
		r := newResolver(s, cache)

		got, err := r.Resolve(context.Background(), "abc1234")

		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)

		cached, ok := cache.GetByCode(context.Background(), "abc1234")
		require.True(t, ok)
		assert.Equal(t, testURL, cached.OriginalURL)
	})

	t.Run("cache hit does not touch the store", func(t *testing.T) {
		s := newMockStore()
		cache := newMemoryCache()
		cache.Warm(context.Background(), &shortener.ShortURL{
			Code:        "abc1234",
			OriginalURL: testURL,
			URLHash:     shortener.HashURL(testURL),
		})

		got, err := newResolver(s, cache).Resolve(context.Background(), "abc1234")

		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)
		assert.Zero(t, s.getByCodes)
	})

	t.Run("unknown code returns ErrCodeNotFound", func(t *testing.T) {
		got, err := newResolver(newMockStore(), newMemoryCache()).Resolve(context.Background(), "zzzzzzz")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, shortener.ErrCodeNotFound)
	})

	t.Run("store failure returns ErrStoreUnavailable", func(t *testing.T) {
		s := newMockStore()
		s.getByCodeErr = errMock

		got, err := newResolver(s, store.NoopCache{}).Resolve(context.Background(), "abc1234")

		assert.Nil(t, got)
		require.ErrorIs(t, err, shortener.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, shortener.ErrCodeNotFound)
	})

	t.Run("resolves a code produced by the assigner", func(t *testing.T) {
		s := newMockStore()
		cache := newMemoryCache()
		a := newAssigner(s, cache)

		assigned, err := a.Assign(context.Background(), testURL, shortener.HashURL(testURL))
		require.NoError(t, err)

		got, err := shortener.NewResolver(s, store.NoopCache{}, a.MaxCodeLength(), nil, zap.NewNop()).
			Resolve(context.Background(), string(assigned.ShortURL.Code))

		require.NoError(t, err)
		assert.Equal(t, testURL, got.OriginalURL)
	})
}

func TestResolve_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("a", 17)},
		{"ambiguous zero", "abc0123"},
		{"ambiguous capital o", "abcO123"},
		{"ambiguous lowercase l", "abcl123"},
		{"ambiguous capital i", "abcI123"},
		{"punctuation", "abc-123"},
		{"non ascii", "abcé12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMockStore()

			got, err := newResolver(s, newMemoryCache()).Resolve(context.Background(), tt.code)

			assert.Nil(t, got)
			require.ErrorIs(t, err, shortener.ErrInvalidCodeFormat)
			assert.Zero(t, s.getByCodes, "invalid codes must not reach the store")
		})
	}

	t.Run("longest valid length is accepted", func(t *testing.T) {
		_, err := newResolver(newMockStore(), newMemoryCache()).Resolve(context.Background(), strings.Repeat("a", 16))

		assert.ErrorIs(t, err, shortener.ErrCodeNotFound)
	})
}
