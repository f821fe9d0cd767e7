package container_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/container"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOptions() *container.Options {
	return &container.Options{
		Port:             8888,
		StoreBackend:     container.BackendMemory,
		CacheEnabled:     true,
		CacheBackend:     container.BackendMemory,
		CodeTTL:          "168h",
		HashTTL:          "24h",
		BaseLength:       7,
		MaxAttempts:      10,
		MaxCodeLength:    16,
		RateLimitBackend: container.BackendMemory,
		RequestTimeout:   "5s",
		LogFormat:        "json",
		LogLevel:         "error",
	}
}

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.MetricsPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.CachePackage(injector)
	container.CorePackage(injector)
	container.RateLimitPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestOptions_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, memoryOptions().Validate())
	})

	tests := []struct {
		name   string
		mutate func(o *container.Options)
		want   string
	}{
		{"unknown store", func(o *container.Options) { o.StoreBackend = "mysql" }, "unknown store backend"},
		{"postgres cache", func(o *container.Options) { o.CacheBackend = container.BackendPostgres }, "cache backend"},
		{"unknown rate limit backend", func(o *container.Options) { o.RateLimitBackend = "etcd" }, "rate limit backend"},
		{"codes longer than allowed", func(o *container.Options) { o.MaxAttempts = 20 }, "max code length is 16"},
		{
			"unset generation settings use defaults",
			func(o *container.Options) { o.BaseLength, o.MaxAttempts, o.MaxCodeLength = 0, 0, 10 },
			"codes may reach 16 characters",
		},
		{"bad ttl", func(o *container.Options) { o.CodeTTL = "a week" }, "invalid code ttl"},
		{"negative timeout", func(o *container.Options) { o.RequestTimeout = "-1s" }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := memoryOptions()
			tt.mutate(opts)

			err := opts.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOptions_Derived(t *testing.T) {
	opts := memoryOptions()

	assert.Equal(t, "http://localhost:8888", opts.PublicBaseURL())

	opts.BaseURL = "https://sho.rt"
	assert.Equal(t, "https://sho.rt", opts.PublicBaseURL())

	ttls, err := opts.CacheTTLs()
	require.NoError(t, err)
	assert.Equal(t, store.CacheTTLs{Code: 168 * time.Hour, Hash: 24 * time.Hour, Claim: 168 * time.Hour}, ttls)

	timeout, err := opts.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	assert.Equal(t, shortener.AssignerConfig{BaseLength: 7, MaxAttempts: 10}, opts.AssignerConfig())

	opts.BaseLength, opts.MaxAttempts = 0, 0
	assert.Equal(t, shortener.DefaultAssignerConfig(), opts.AssignerConfig())
}

func TestHTTPPackage_Memory(t *testing.T) {
	injector := newInjector(t, memoryOptions())

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	w := serve(router, http.MethodPost, "/shorten", `{"url":"example.com/page"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "dNXkWns", created["code"])
	assert.Equal(t, "http://localhost:8888/dNXkWns", created["shortUrl"])

	w = serve(router, http.MethodGet, "/dNXkWns", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/page", w.Header().Get("Location"))

	w = serve(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"disabled"`)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)

	w = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shortlink_assignments_total{outcome="created"} 1`)
	assert.Contains(t, w.Body.String(), `shortlink_resolutions_total{result="cache"} 1`)
}

func TestHTTPPackage_Redis(t *testing.T) {
	m := miniredis.RunT(t)

	opts := memoryOptions()
	opts.RedisAddr = m.Addr()
	opts.StoreBackend = container.BackendRedis
	opts.CacheBackend = container.BackendRedis
	opts.RateLimitBackend = container.BackendRedis
	opts.EventsEnabled = true

	injector := newInjector(t, opts)

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	w := serve(router, http.MethodPost, "/shorten", `{"url":"https://example.com/page"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.True(t, m.Exists("shortlink:code:dNXkWns"), "record stored in redis")
	assert.True(t, m.Exists("url:short:dNXkWns"), "record cached in redis")

	w = serve(router, http.MethodGet, "/dNXkWns", "")
	assert.Equal(t, http.StatusFound, w.Code)

	w = serve(router, http.MethodGet, "/health", "")
	assert.Contains(t, w.Body.String(), `"redis":"healthy"`)
}

func TestCachePackage_Disabled(t *testing.T) {
	opts := memoryOptions()
	opts.CacheEnabled = false

	injector := newInjector(t, opts)

	assert.Equal(t, store.NoopCache{}, do.MustInvoke[shortener.Cache](injector))
}
