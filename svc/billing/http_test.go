package billing_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/jwt"
	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/pkg/webhook"
	"github.com/dmitrymomot/duebook/svc/billing"
)

const testSecret = "sk_test_webhook"

type server struct {
	router http.Handler
	tokens *jwt.Service
}

func newServer(t *testing.T, f *fixture, secret string) *server {
	t.Helper()
	tokens, err := jwt.New(jwt.Config{Secret: "test-signing-key"})
	require.NoError(t, err)

	r := chi.NewRouter()
	h := billing.NewHandler(f.svc, secret, nil)
	h.MountWebhook(r)
	h.Mount(r, jwt.Middleware(tokens))
	return &server{router: r, tokens: tokens}
}

func (s *server) webhook(t *testing.T, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		sig, err := webhook.Sign(testSecret, body)
		require.NoError(t, err)
		req.Header.Set(paystack.SignatureHeader, sig)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func chargeBody(id uuid.UUID) []byte {
	return []byte(`{"event":"charge.success","data":{
		"reference":"ref_1","amount":250000,"currency":"NGN","paid_at":"2024-05-10T00:00:00Z",
		"customer":{"customer_code":"CUS_http","email":"owner@example.com"},
		"metadata":{"user_id":"` + id.String() + `","plan_id":"PLN_basic","billing_interval":"monthly"}
	}}`)
}

func TestHandler_Webhook(t *testing.T) {
	t.Parallel()

	t.Run("verified charge is applied", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		s := newServer(t, f, testSecret)

		w := s.webhook(t, chargeBody(id), true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"received":true}`, w.Body.String())

		sub, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Len(t, f.archive.keys, 1)
	})

	t.Run("bad signature writes nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := f.provision(t)
		s := newServer(t, f, testSecret)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(chargeBody(id)))
		req.Header.Set(paystack.SignatureHeader, strings.Repeat("ab", 64))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)

		w = s.webhook(t, chargeBody(id), false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		sub, err := f.ledger.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, sub.Status)
		assert.Empty(t, f.archive.keys)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		s := newServer(t, newFixture(t), testSecret)
		w := s.webhook(t, []byte(`{"event":`), true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		s := newServer(t, newFixture(t), testSecret)
		body := bytes.Repeat([]byte("a"), billing.MaxWebhookBytes+1)
		w := s.webhook(t, body, true)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("unmatched event is acknowledged", func(t *testing.T) {
		t.Parallel()
		s := newServer(t, newFixture(t), testSecret)
		w := s.webhook(t, chargeBody(uuid.New()), true)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store failure asks for redelivery", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, func(l *subscription.Ledger) billing.Ledger { return brokenLedger{l} })
		s := newServer(t, f, testSecret)
		w := s.webhook(t, []byte(`{"event":"invoice.payment_failed","data":{"customer":{"customer_code":"CUS_1"}}}`), true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		s := newServer(t, newFixture(t), "")
		w := s.webhook(t, []byte(`{}`), true)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandler_Checkout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.provision(t)
	s := newServer(t, f, testSecret)

	token, err := s.tokens.Issue(id, "billing@example.com", time.Hour)
	require.NoError(t, err)
	post := func(token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := post(token, `{"planId":"PLN_basic","billingInterval":"monthly","callbackUrl":"https://app.example.com/billing"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"authorization_url":"https://checkout.paystack.com/PLN_basic","access_code":"access_1","reference":"ref_1"}`, w.Body.String())
	reqs := f.gateway.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "billing@example.com", reqs[0].Email, "token email wins")

	w = post(token, `{"planId":"PLN_gone","billingInterval":"monthly"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("", `{"planId":"PLN_basic","billingInterval":"monthly"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
