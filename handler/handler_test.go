package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/binder"
	"github.com/dmitrymomot/duebook/handler"
)

type createRequest struct {
	Name string `json:"name"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorBody {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := func(ctx handler.Context, req createRequest) handler.Response {
		return handler.JSON(map[string]string{"name": req.Name}, handler.WithJSONStatus(http.StatusCreated))
	}
	h := handler.Wrap(echo, handler.WithBinder[handler.Context, createRequest](binder.JSON()))

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"acme"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"name":"acme"}`, w.Body.String())
	})

	t.Run("binder failure is a bad request", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "bad_request", body.Code)
		assert.Contains(t, body.Error, "invalid JSON")
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		nilHandler := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		w := httptest.NewRecorder()

		nilHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestWrap_DecoratorsOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	mark := func(name string) handler.Decorator[handler.Context, struct{}] {
		return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(
		func(handler.Context, struct{}) handler.Response { return handler.JSON(nil) },
		handler.WithDecorators(mark("outer"), mark("inner")),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "joined client error exposes cause",
			err:     errors.Join(handler.ErrUnauthorized, errors.New("invalid signature")),
			status:  http.StatusUnauthorized,
			code:    "unauthorized",
			message: "invalid signature",
		},
		{
			name:    "bare client error",
			err:     handler.ErrNotFound,
			status:  http.StatusNotFound,
			code:    "not_found",
			message: "not found",
		},
		{
			name:    "server error hides cause",
			err:     errors.Join(handler.ErrInternalServerError, errors.New("connection refused")),
			status:  http.StatusInternalServerError,
			code:    "internal_error",
			message: "Internal Server Error",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    "internal_error",
			message: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestJSON_Header(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	resp := handler.JSON(map[string]bool{"received": true}, handler.WithJSONHeader("Cache-Control", "no-store"))
	require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	eh := handler.NewErrorHandler[handler.Context](log)

	w := httptest.NewRecorder()
	eh(handler.NewContext(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil)), errors.Join(handler.ErrBadGateway, errors.New("gateway down")))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"path":"/api/checkout"`)
	assert.Contains(t, buf.String(), "gateway down")

	buf.Reset()
	w = httptest.NewRecorder()
	eh(handler.NewContext(w, httptest.NewRequest(http.MethodGet, "/", nil)), handler.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestContext(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	ctx := handler.NewContext(w, r)

	assert.Same(t, r, ctx.Request())
	assert.Equal(t, w, ctx.ResponseWriter())
	assert.NoError(t, ctx.Err())
}
