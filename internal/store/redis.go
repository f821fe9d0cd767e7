package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// insertScript writes both indices of a record or neither. The hash index is checked first so
// a racing creator of the same URL always learns about the hash conflict.
var insertScript = redis.NewScript(`
local code_key = KEYS[1]
local hash_key = KEYS[2]

if redis.call("EXISTS", hash_key) == 1 then
  return "conflict_hash"
end
if redis.call("EXISTS", code_key) == 1 then
  return "conflict_code"
end

redis.call("HSET", code_key, "code", ARGV[1], "original_url", ARGV[2], "url_hash", ARGV[3], "created_at", ARGV[4])
redis.call("SET", hash_key, ARGV[1])
return "inserted"
`)

// RedisStore is a durable Redis implementation of shortener.Repository. Keys never expire.
type RedisStore struct {
	client     redis.UniversalClient
	codePrefix string // "shortlink:code:" for code -> record (hash keys)
	hashPrefix string // "shortlink:hash:" for urlHash -> code (string keys)
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client:     client,
		codePrefix: "shortlink:code:",
		hashPrefix: "shortlink:hash:",
	}
}

// Insert runs the insert script, which writes both keys or reports the conflict.
func (r *RedisStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) (shortener.InsertResult, error) {
	res, err := insertScript.Run(ctx, r.client,
		[]string{r.codePrefix + string(shortURL.Code), r.hashPrefix + string(shortURL.URLHash)},
		string(shortURL.Code),
		shortURL.OriginalURL,
		string(shortURL.URLHash),
		shortURL.CreatedAt.UnixNano(),
	).Text()
	if err != nil {
		return 0, err
	}

	switch res {
	case "inserted":
		return shortener.Inserted, nil
	case "conflict_hash":
		return shortener.ConflictHash, nil
	case "conflict_code":
		return shortener.ConflictCode, nil
	default:
		return 0, fmt.Errorf("unexpected insert script result %q", res)
	}
}

// GetByCode reads the record hash stored under code.
func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	fields, err := r.client.HGetAll(ctx, r.codePrefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, shortener.ErrNotFound
	}

	return decodeShortURL(fields), nil
}

// GetByHash follows the hash index to the record.
func (r *RedisStore) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortURL, error) {
	code, err := r.client.Get(ctx, r.hashPrefix+string(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.GetByCode(ctx, shortener.Code(code))
}

func encodeShortURL(url *shortener.ShortURL) map[string]any {
	return map[string]any{
		"code":         string(url.Code),
		"original_url": url.OriginalURL,
		"url_hash":     string(url.URLHash),
		"created_at":   url.CreatedAt.UnixNano(),
	}
}

func decodeShortURL(fields map[string]string) *shortener.ShortURL {
	var createdAt time.Time

	if ts, ok := fields["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortURL{
		Code:        shortener.Code(fields["code"]),
		OriginalURL: fields["original_url"],
		URLHash:     shortener.URLHash(fields["url_hash"]),
		CreatedAt:   createdAt,
	}
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
