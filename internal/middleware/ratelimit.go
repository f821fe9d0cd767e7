package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit enforces the limiter's policy per client. Routes may override the policy through
// ratelimit.EndpointConfig metadata. When the limiter backend fails the request is let through.
func RateLimit(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		cfg := ratelimit.EndpointConfigFrom(op)

		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		client := ClientKey(ctx)

		var (
			exceeded *ratelimit.Exceeded
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 && op != nil {
			exceeded, err = limiter.AllowRoute(ctx.Context(), client, op.Path, cfg.Limits)
		} else {
			exceeded, err = limiter.Allow(ctx.Context(), client, ratelimit.Scopes(op, ctx.Method()))
		}

		if err != nil {
			logger.Warn("rate limit check failed, allowing request",
				zap.String("path", operationPath(op)),
				zap.Error(err),
			)
			next(ctx)

			return
		}

		if exceeded != nil {
			logger.Info("rate limit exceeded",
				zap.String("path", operationPath(op)),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
				zap.String("client_ip", ClientIP(ctx)),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.RetryAfter().Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, exceeded.Error())

			return
		}

		next(ctx)
	}
}

// ClientKey identifies a client by IP and User-Agent, hashed so raw addresses never reach the
// limiter backend.
func ClientKey(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(ClientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func ClientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}

func operationPath(op *huma.Operation) string {
	if op == nil {
		return ""
	}

	return op.Path
}
