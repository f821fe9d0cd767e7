package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeout(t *testing.T) {
	t.Run("handlers see a deadline", func(t *testing.T) {
		router := chi.NewMux()
		api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
		api.UseMiddleware(middleware.Timeout(time.Second))

		deadlines := make(chan time.Time, 1)

		huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*okOutput, error) {
			deadline, _ := ctx.Deadline()
			deadlines <- deadline

			return &okOutput{Body: "ok"}, nil
		})

		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/test", nil).Code)

		deadline := <-deadlines
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
	})

	t.Run("zero disables the deadline", func(t *testing.T) {
		router := chi.NewMux()
		api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
		api.UseMiddleware(middleware.Timeout(0))

		hasDeadline := make(chan bool, 1)

		huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*okOutput, error) {
			_, ok := ctx.Deadline()
			hasDeadline <- ok

			return &okOutput{Body: "ok"}, nil
		})

		do(router, http.MethodGet, "/test", nil)

		assert.False(t, <-hasDeadline)
	})
}

func TestAccessLog(t *testing.T) {
	setup := func(t *testing.T) (*chi.Mux, *observer.ObservedLogs) {
		t.Helper()

		core, logs := observer.New(zapcore.InfoLevel)
		router := chi.NewMux()
		api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
		api.UseMiddleware(middleware.AccessLog(zap.New(core)))
		huma.Get(api, "/test", ok)

		return router, logs
	}

	t.Run("assigns a request id and logs the request", func(t *testing.T) {
		router, logs := setup(t)

		w := do(router, http.MethodGet, "/test", map[string]string{"X-Forwarded-For": "203.0.113.9"})

		id := w.Header().Get(middleware.RequestIDHeader)
		assert.NotEmpty(t, id)

		entries := logs.All()
		require.Len(t, entries, 1)

		fields := entries[0].ContextMap()
		assert.Equal(t, id, fields["request_id"])
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/test", fields["path"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, "203.0.113.9", fields["client_ip"])
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		router, _ := setup(t)

		w := do(router, http.MethodGet, "/test", map[string]string{middleware.RequestIDHeader: "req-42"})

		assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
	})
}
