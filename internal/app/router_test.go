package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quyet5603/DATN-sub002/internal/adapter/httpserver"
	"github.com/quyet5603/DATN-sub002/internal/app"
	"github.com/quyet5603/DATN-sub002/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:           "test",
		CORSAllowOrigins: "*",
		RateLimitPerMin:  1000,
		HTTPWriteTimeout: 5 * time.Second,
	}
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.example.com", []string{"https://a.example.com"}},
		{"https://a.example.com, https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{" , ", []string{"*"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, app.ParseOrigins(tt.in), "input %q", tt.in)
	}
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	h := app.BuildRouter(testConfig(), &httpserver.Server{Cfg: testConfig()}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRouter_ReadyzReflectsChecks(t *testing.T) {
	t.Parallel()
	checks := map[string]app.ReadyCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}
	h := app.BuildRouter(testConfig(), &httpserver.Server{Cfg: testConfig()}, checks)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouter_MetricsExposed(t *testing.T) {
	t.Parallel()
	h := app.BuildRouter(testConfig(), &httpserver.Server{Cfg: testConfig()}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
