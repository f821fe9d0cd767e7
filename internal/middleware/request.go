package middleware

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// Timeout bounds every handler with a deadline so store and cache calls cannot hang a request.
func Timeout(d time.Duration) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if d <= 0 {
			next(ctx)

			return
		}

		timeoutCtx, cancel := context.WithTimeout(ctx.Context(), d)
		defer cancel()

		next(huma.WithContext(ctx, timeoutCtx))
	}
}

// AccessLog assigns a request id (or keeps the caller's) and logs one line per request.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		id := ctx.Header(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx.SetHeader(RequestIDHeader, id)

		next(ctx)

		path := ""
		if op := ctx.Operation(); op != nil {
			path = op.Path
		}

		logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", ctx.Method()),
			zap.String("path", path),
			zap.Int("status", ctx.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", ClientIP(ctx)),
		)
	}
}
