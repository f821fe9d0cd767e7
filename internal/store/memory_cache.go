package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

type cacheEntry[T any] struct {
	value    T
	deadline time.Time
}

// MemoryCache is an in-process implementation of shortener.Cache with per-entry TTLs.
type MemoryCache struct {
	mu     sync.Mutex
	ttls   CacheTTLs
	now    func() time.Time
	byCode map[shortener.Code]cacheEntry[shortener.ShortURL]
	byHash map[shortener.URLHash]cacheEntry[shortener.ShortURL]
	claims map[shortener.Code]cacheEntry[bool]
}

// NewMemoryCache creates an empty in-memory cache. A nil now uses time.Now.
func NewMemoryCache(ttls CacheTTLs, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}

	return &MemoryCache{
		ttls:   ttls.withDefaults(),
		now:    now,
		byCode: make(map[shortener.Code]cacheEntry[shortener.ShortURL]),
		byHash: make(map[shortener.URLHash]cacheEntry[shortener.ShortURL]),
		claims: make(map[shortener.Code]cacheEntry[bool]),
	}
}

func lookup[K comparable, V any](m map[K]cacheEntry[V], key K, now time.Time) (V, bool) {
	entry, ok := m[key]
	if !ok {
		var zero V

		return zero, false
	}

	if !now.Before(entry.deadline) {
		delete(m, key)

		var zero V

		return zero, false
	}

	return entry.value, true
}

func (c *MemoryCache) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url, ok := lookup(c.byCode, code, c.now())
	if !ok {
		return nil, false
	}

	return &url, true
}

func (c *MemoryCache) SetByCode(_ context.Context, code shortener.Code, url *shortener.ShortURL, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byCode[code] = cacheEntry[shortener.ShortURL]{value: *url, deadline: c.now().Add(pick(ttl, c.ttls.Code))}
}

func (c *MemoryCache) InvalidateByCode(_ context.Context, code shortener.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.byCode, code)
}

func (c *MemoryCache) GetByHash(_ context.Context, hash shortener.URLHash) (*shortener.ShortURL, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url, ok := lookup(c.byHash, hash, c.now())
	if !ok {
		return nil, false
	}

	return &url, true
}

func (c *MemoryCache) SetByHash(_ context.Context, hash shortener.URLHash, url *shortener.ShortURL, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byHash[hash] = cacheEntry[shortener.ShortURL]{value: *url, deadline: c.now().Add(pick(ttl, c.ttls.Hash))}
}

func (c *MemoryCache) InvalidateByHash(_ context.Context, hash shortener.URLHash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.byHash, hash)
}

// CheckCodeClaimed reports ClaimUnknown for missing or expired flags.
func (c *MemoryCache) CheckCodeClaimed(_ context.Context, code shortener.Code) shortener.Claim {
	c.mu.Lock()
	defer c.mu.Unlock()

	claimed, ok := lookup(c.claims, code, c.now())
	switch {
	case !ok:
		return shortener.ClaimUnknown
	case claimed:
		return shortener.ClaimTaken
	default:
		return shortener.ClaimFree
	}
}

func (c *MemoryCache) MarkCodeClaimed(_ context.Context, code shortener.Code, claimed bool, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.claims[code] = cacheEntry[bool]{value: claimed, deadline: c.now().Add(pick(ttl, c.ttls.Claim))}
}

// Warm fills every index with default TTLs.
func (c *MemoryCache) Warm(ctx context.Context, url *shortener.ShortURL) {
	c.SetByCode(ctx, url.Code, url, 0)
	c.SetByHash(ctx, url.URLHash, url, 0)
	c.MarkCodeClaimed(ctx, url.Code, true, 0)
}

func (c *MemoryCache) Clear(ctx context.Context, url *shortener.ShortURL) {
	c.InvalidateByCode(ctx, url.Code)
	c.InvalidateByHash(ctx, url.URLHash)
}

// Compile-time check.
var _ shortener.Cache = (*MemoryCache)(nil)
