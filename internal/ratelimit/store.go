package ratelimit

import (
	"context"
	"time"
)

// Store keeps sliding-window request logs.
type Store interface {
	// Record logs one request under key, drops entries older than window, and returns how many
	// requests remain in the window including this one.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
