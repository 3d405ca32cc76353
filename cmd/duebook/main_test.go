package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/blob"
	"github.com/dmitrymomot/duebook/pkg/email"
	"github.com/dmitrymomot/duebook/pkg/jwt"
	"github.com/dmitrymomot/duebook/pkg/ratelimit"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/invoice"
	"github.com/dmitrymomot/duebook/svc/notify"
)

func testConfig(t *testing.T) appConfig {
	t.Helper()
	return appConfig{
		Env:         "development",
		ServiceName: "duebook-test",
		StoreDriver: driverMemory,
		PlansFile:   "../../plans.yaml",
		Account:     account.Config{HookSecret: "hook-secret"},
		Email:       email.Config{SenderEmail: "billing@example.com", DevOutputDir: t.TempDir()},
		Blob:        blob.Config{Driver: "none"},
		Notify:      notify.Config{AppURL: "https://app.example.com", Locale: "en-NG", Currency: "NGN"},
		Sweep:       invoice.WorkerConfig{Interval: time.Hour},
		Limit:       ratelimit.Config{Enabled: true, Limit: 100, Window: time.Minute},
	}
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := appConfig{StoreDriver: " Postgres "}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, driverPostgres, cfg.StoreDriver)

	cfg.StoreDriver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestApp_Router(t *testing.T) {
	t.Parallel()

	a, err := newApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	tokens, err := jwt.New(jwt.Config{Secret: "test-signing-key", Audience: "authenticated"})
	require.NoError(t, err)
	router := a.router(jwt.Middleware(tokens))

	do := func(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range header {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("health", func(t *testing.T) {
		w := do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("dashboard requires a token", func(t *testing.T) {
		w := do(http.MethodGet, "/api/account", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("webhook without a paystack secret", func(t *testing.T) {
		w := do(http.MethodPost, "/webhooks/paystack", `{}`, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("checkout without a gateway", func(t *testing.T) {
		acc, err := a.accounts.Provision(context.Background(), account.Signup{ID: uuid.New(), Email: "owner@example.com"})
		require.NoError(t, err)
		token, err := tokens.Issue(acc.ID, acc.Email, time.Minute)
		require.NoError(t, err)

		w := do(http.MethodPost, "/api/checkout", `{"planId":"PLN_starter","billingInterval":"monthly"}`,
			map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestApp_Router_WebhookIgnoresRateLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Limit = ratelimit.Config{Enabled: true, Limit: 1, Window: time.Minute}
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	tokens, err := jwt.New(jwt.Config{Secret: "test-signing-key", Audience: "authenticated"})
	require.NoError(t, err)
	router := a.router(jwt.Middleware(tokens))

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for range 5 {
		w := do(http.MethodPost, "/webhooks/paystack")
		assert.NotEqual(t, http.StatusTooManyRequests, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/account").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodGet, "/api/account").Code)
}
