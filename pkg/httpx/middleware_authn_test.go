package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) *jwtx.HMAC {
	t.Helper()
	h, err := jwtx.NewHMAC("HS256", []byte("0123456789abcdef0123456789abcdef"), jwtx.VerifyOptions{Issuer: "user-api"})
	require.NoError(t, err)
	return h
}

func TestAuthnMiddleware(t *testing.T) {
	v := newVerifier(t)

	var gotID int64
	h := httpx.AuthnMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.UserIDFromContext(r.Context())
		require.True(t, ok)
		_, ok = httpx.ClaimsFromContext(r.Context())
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := v.Sign(jwtx.NewAccessClaims(9, "user-api", time.Minute, time.Now()))
	require.NoError(t, err)
	expired, err := v.Sign(jwtx.NewAccessClaims(9, "user-api", time.Minute, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent, ""},
		{"missing", "", http.StatusUnauthorized, "Not authenticated"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Not authenticated"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Not authenticated"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = 0
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				require.Equal(t, int64(9), gotID)
				return
			}

			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			var body httpx.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.detail, body.Detail)
			require.Equal(t, httpx.CodeAuthentication, body.ErrorCode)
		})
	}
}
