package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/jwt"
)

func newService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.New(jwt.Config{Secret: "super-secret-test-key", Audience: "authenticated"})
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := jwt.New(jwt.Config{})
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestService_IssueAndParse(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	accountID := uuid.New()

	token, err := svc.Issue(accountID, "ada@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, accountID, id)
}

func TestService_Parse(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Issue(uuid.New(), "", -time.Hour)
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.New(jwt.Config{Secret: "another-key", Audience: "authenticated"})
		require.NoError(t, err)
		token, err := other.Issue(uuid.New(), "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		t.Parallel()
		other, err := jwt.New(jwt.Config{Secret: "super-secret-test-key", Audience: "service_role"})
		require.NoError(t, err)
		token, err := other.Issue(uuid.New(), "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		t.Parallel()
		unsigned := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Audience:  gojwt.ClaimStrings{"authenticated"},
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := unsigned.SignedString(gojwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Parse("not.a.token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	accountID := uuid.New()

	h := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := jwt.AccountIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, accountID, id)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Issue(accountID, "", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/account", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing authorization"}`, rec.Body.String())
	})

	t.Run("non uuid subject", func(t *testing.T) {
		t.Parallel()
		raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
			Subject:   "user-42",
			Audience:  gojwt.ClaimStrings{"authenticated"},
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := raw.SignedString([]byte("super-secret-test-key"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	for header, ok := range map[string]bool{
		"Bearer abc": true,
		"BEARER abc": true,
		"Basic abc":  false,
		"Bearer":     false,
		"Bearer   ":  false,
		"":           false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		_, err := jwt.BearerToken(req)
		assert.Equal(t, ok, err == nil, header)
	}
}
