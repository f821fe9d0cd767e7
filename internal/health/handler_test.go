package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(context.Context) error {
	return m.err
}

func TestHandler_Check(t *testing.T) {
	down := &mockChecker{err: errors.New("connection refused")}

	tests := []struct {
		name     string
		redis    health.Checker
		postgres health.Checker
		status   string
		redisS   string
		pgS      string
	}{
		{"all healthy", &mockChecker{}, &mockChecker{}, health.StatusOK, health.Healthy, health.Healthy},
		{"redis down", down, &mockChecker{}, health.StatusDegraded, health.Unhealthy, health.Healthy},
		{"postgres down", &mockChecker{}, down, health.StatusDegraded, health.Healthy, health.Unhealthy},
		{"postgres disabled", &mockChecker{}, nil, health.StatusOK, health.Healthy, health.Disabled},
		{"nothing configured", nil, nil, health.StatusOK, health.Disabled, health.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := health.NewHandler(tt.redis, tt.postgres).Check(context.Background(), nil)

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Body.Status)
			assert.Equal(t, tt.redisS, resp.Body.Redis)
			assert.Equal(t, tt.pgS, resp.Body.Postgres)
		})
	}
}

func TestRedisChecker(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := health.NewRedisChecker(client)

	require.NoError(t, checker.Ping(context.Background()))

	m.Close()

	assert.Error(t, checker.Ping(context.Background()))
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	health.RegisterRoutes(api, health.NewHandler(&mockChecker{}, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "healthy", body["redis"])
	assert.Equal(t, "disabled", body["postgres"])
}
