package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

const secret = "test-secret"

func principalEcho(t *testing.T, got *model.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		*got = p
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	token, err := NewToken(secret, &model.User{ID: 42, Role: model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	var got model.Principal
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthMiddleware(secret)(principalEcho(t, &got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, model.Principal{UserID: 42, Role: model.RoleAdmin}, got)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired, err := NewToken(secret, &model.User{ID: 42, Role: model.RoleUser}, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewToken("other-secret", &model.User{ID: 42, Role: model.RoleUser}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	headers := map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic abc",
		"expired":       "Bearer " + expired,
		"wrong secret":  "Bearer " + foreign,
		"alg none":      "Bearer " + none,
		"garbage token": "Bearer not.a.token",
	}

	for name, h := range headers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized","message":"`+jsonMessage(h)+`"}`, rec.Body.String())
		})
	}
}

func jsonMessage(header string) string {
	switch {
	case header == "":
		return "unauthorized"
	case len(header) < 7 || header[:7] != "Bearer ":
		return "invalid token format"
	default:
		return "invalid or expired token"
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	for _, tc := range []struct {
		principal *model.Principal
		want      int
	}{
		{nil, http.StatusUnauthorized},
		{&model.Principal{UserID: 1, Role: model.RoleUser}, http.StatusForbidden},
		{&model.Principal{UserID: 1, Role: model.RoleAdmin}, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		if tc.principal != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *tc.principal))
		}
		rec := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code)
	}
}
