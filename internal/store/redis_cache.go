package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const (
	cacheCodePrefix  = "url:short:"
	cacheHashPrefix  = "url:hash:"
	cacheClaimPrefix = "url:exists:"
)

// CacheTTLs holds the lifetime of each cache index. Zero fields use the shortener defaults.
type CacheTTLs struct {
	Code  time.Duration
	Hash  time.Duration
	Claim time.Duration
}

func (t CacheTTLs) withDefaults() CacheTTLs {
	if t.Code <= 0 {
		t.Code = shortener.DefaultCodeTTL
	}

	if t.Hash <= 0 {
		t.Hash = shortener.DefaultHashTTL
	}

	if t.Claim <= 0 {
		t.Claim = shortener.DefaultClaimTTL
	}

	return t
}

func pick(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}

	return fallback
}

// RedisCache implements shortener.Cache on Redis. Every backend error is logged, counted and
// turned into a miss.
type RedisCache struct {
	client  redis.UniversalClient
	ttls    CacheTTLs
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRedisCache creates a Redis-backed cache layer.
func NewRedisCache(
	client redis.UniversalClient,
	ttls CacheTTLs,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RedisCache {
	return &RedisCache{
		client:  client,
		ttls:    ttls.withDefaults(),
		metrics: m,
		logger:  logger,
	}
}

// GetByCode reads the by-code index.
func (c *RedisCache) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, bool) {
	return c.getRecord(ctx, "code", cacheCodePrefix+string(code))
}

// SetByCode writes the by-code index.
func (c *RedisCache) SetByCode(ctx context.Context, code shortener.Code, url *shortener.ShortURL, ttl time.Duration) {
	c.setRecord(ctx, "set_by_code", cacheCodePrefix+string(code), url, pick(ttl, c.ttls.Code))
}

func (c *RedisCache) InvalidateByCode(ctx context.Context, code shortener.Code) {
	c.del(ctx, "invalidate_by_code", cacheCodePrefix+string(code))
}

// GetByHash reads the by-hash index.
func (c *RedisCache) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortURL, bool) {
	return c.getRecord(ctx, "hash", cacheHashPrefix+string(hash))
}

// SetByHash writes the by-hash index.
func (c *RedisCache) SetByHash(ctx context.Context, hash shortener.URLHash, url *shortener.ShortURL, ttl time.Duration) {
	c.setRecord(ctx, "set_by_hash", cacheHashPrefix+string(hash), url, pick(ttl, c.ttls.Hash))
}

func (c *RedisCache) InvalidateByHash(ctx context.Context, hash shortener.URLHash) {
	c.del(ctx, "invalidate_by_hash", cacheHashPrefix+string(hash))
}

// CheckCodeClaimed reads the claimed flag; a missing key is ClaimUnknown.
func (c *RedisCache) CheckCodeClaimed(ctx context.Context, code shortener.Code) shortener.Claim {
	val, err := c.client.Get(ctx, cacheClaimPrefix+string(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.CacheLookup("claim", "miss")

			return shortener.ClaimUnknown
		}

		c.fail("check_code_claimed", err)
		c.metrics.CacheLookup("claim", "error")

		return shortener.ClaimUnknown
	}

	c.metrics.CacheLookup("claim", "hit")

	if val == "1" {
		return shortener.ClaimTaken
	}

	return shortener.ClaimFree
}

// MarkCodeClaimed stores the claimed flag as "1" or "0".
func (c *RedisCache) MarkCodeClaimed(ctx context.Context, code shortener.Code, claimed bool, ttl time.Duration) {
	if err := c.client.Set(ctx, cacheClaimPrefix+string(code), claimFlag(claimed), pick(ttl, c.ttls.Claim)).Err(); err != nil {
		c.fail("mark_code_claimed", err)
	}
}

// Warm writes all three indices in a single round trip.
func (c *RedisCache) Warm(ctx context.Context, url *shortener.ShortURL) {
	pipe := c.client.Pipeline()

	codeKey := cacheCodePrefix + string(url.Code)
	pipe.HSet(ctx, codeKey, encodeShortURL(url))
	pipe.Expire(ctx, codeKey, c.ttls.Code)

	hashKey := cacheHashPrefix + string(url.URLHash)
	pipe.HSet(ctx, hashKey, encodeShortURL(url))
	pipe.Expire(ctx, hashKey, c.ttls.Hash)

	pipe.Set(ctx, cacheClaimPrefix+string(url.Code), claimFlag(true), c.ttls.Claim)

	if _, err := pipe.Exec(ctx); err != nil {
		c.fail("warm", err)

		return
	}

	c.logger.Debug("warmed cache", zap.String("code", string(url.Code)))
}

// Clear deletes the by-code and by-hash entries of url.
func (c *RedisCache) Clear(ctx context.Context, url *shortener.ShortURL) {
	c.del(ctx, "clear", cacheCodePrefix+string(url.Code), cacheHashPrefix+string(url.URLHash))
}

func (c *RedisCache) getRecord(ctx context.Context, index, key string) (*shortener.ShortURL, bool) {
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		c.fail("get_by_"+index, err)
		c.metrics.CacheLookup(index, "error")

		return nil, false
	}

	if len(fields) == 0 || fields["code"] == "" {
		c.metrics.CacheLookup(index, "miss")

		return nil, false
	}

	c.metrics.CacheLookup(index, "hit")

	return decodeShortURL(fields), true
}

func (c *RedisCache) setRecord(ctx context.Context, op, key string, url *shortener.ShortURL, ttl time.Duration) {
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, encodeShortURL(url))
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		c.fail(op, err)
	}
}

func (c *RedisCache) del(ctx context.Context, op string, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.fail(op, err)
	}
}

func (c *RedisCache) fail(op string, err error) {
	c.metrics.CacheError(op)
	c.logger.Warn("cache operation failed", zap.String("op", op), zap.Error(err))
}

func claimFlag(claimed bool) string {
	if claimed {
		return "1"
	}

	return "0"
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
