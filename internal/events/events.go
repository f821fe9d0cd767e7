// Package events defines the record lifecycle events exchanged over the broker and their handlers.
package events

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const (
	// TopicRecordCreated carries one RecordCreated per newly stored short URL.
	TopicRecordCreated = "shortlink.record.created"
	// CacheWarmerGroup is the consumer group of the cache warmer.
	CacheWarmerGroup = "shortlink-cache-warmer"
)

// RecordCreated is published after an assignment stores a new record.
type RecordCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	URLHash     string    `json:"urlHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewRecordCreated builds the event for a stored record.
func NewRecordCreated(shortURL *shortener.ShortURL) *RecordCreated {
	return &RecordCreated{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		URLHash:     string(shortURL.URLHash),
		CreatedAt:   shortURL.CreatedAt,
	}
}

// ShortURL converts the event back into the record it describes.
func (e *RecordCreated) ShortURL() *shortener.ShortURL {
	return &shortener.ShortURL{
		Code:        shortener.Code(e.Code),
		OriginalURL: e.OriginalURL,
		URLHash:     shortener.URLHash(e.URLHash),
		CreatedAt:   e.CreatedAt,
	}
}

// CacheWarmer repopulates every cache index for newly created records, healing entries the
// inline warm lost to a cache outage.
type CacheWarmer struct {
	cache  shortener.Cache
	logger *zap.Logger
}

// NewCacheWarmer creates a handler that writes created records into cache.
func NewCacheWarmer(cache shortener.Cache, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{cache: cache, logger: logger}
}

// Handle warms the cache for one event. Events that could not have come from the assigner
// are skipped rather than retried.
func (w *CacheWarmer) Handle(ctx context.Context, event *RecordCreated) error {
	shortURL := event.ShortURL()

	if !shortener.ValidCode(event.Code) || shortener.HashURL(event.OriginalURL) != shortURL.URLHash {
		w.logger.Warn("skipping inconsistent record event",
			zap.String("code", event.Code),
			zap.String("hash", event.URLHash),
		)

		return nil
	}

	w.cache.Warm(ctx, shortURL)
	w.logger.Debug("cache warmed", zap.String("code", event.Code))

	return nil
}
