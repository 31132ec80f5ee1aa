package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	apihttp "github.com/aussiebroadwan/userapi/internal/api/http"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

func TestTokenFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	tok, err := env.client.Token(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, 300, tok.ExpiresIn)

	claims, err := env.signer.Verify(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.TypeAccess, claims.Type)

	next, err := env.client.Refresh(ctx, tok.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tok.RefreshToken, next.RefreshToken)

	_, err = env.client.Refresh(ctx, tok.RefreshToken)
	require.True(t, apisdk.IsStatus(err, http.StatusUnauthorized), "rotated token is single use")

	require.NoError(t, env.client.RevokeToken(ctx, next.RefreshToken))
	require.NoError(t, env.client.RevokeToken(ctx, "unknown-token"))

	_, err = env.client.Refresh(ctx, next.RefreshToken)
	require.True(t, apisdk.IsStatus(err, http.StatusUnauthorized))
}

func TestTokenErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice, _ := env.register(t, "alice")

	resp, body := env.rawRequest(t, http.MethodPost, "/api/v1/auth/token", "", apisdk.TokenRequest{Username: "alice", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	require.Equal(t, "Invalid credentials", body.Detail)

	resp, body = env.rawRequest(t, http.MethodPost, "/api/v1/auth/token", "", apisdk.TokenRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, httpx.CodeValidation, body.ErrorCode)

	_, err := env.admin.UpdateUser(ctx, alice.ID, apisdk.UserUpdate{IsActive: ptr(false)})
	require.NoError(t, err)

	resp, body = env.rawRequest(t, http.MethodPost, "/api/v1/auth/token", "", apisdk.TokenRequest{Username: "alice", Password: "password123"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Inactive user", body.Detail)
}

func TestExpiredAccessToken(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.register(t, "alice")

	expired := jwtx.NewAccessClaims(alice.ID, "User API", time.Minute, time.Now().Add(-time.Hour))
	token, err := env.signer.Sign(expired)
	require.NoError(t, err)

	resp, body := env.rawRequest(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Token expired", body.Detail)
}

func TestTokenRateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *apihttp.Config) {
		c.StrictLimit = httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour, Burst: 2}
	})

	// newTestEnv already spent one request logging the admin in.
	req := apisdk.TokenRequest{Username: "admin", Password: "adminpassword"}
	resp, _ := env.rawRequest(t, http.MethodPost, "/api/v1/auth/token", "", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.rawRequest(t, http.MethodPost, "/api/v1/auth/token", "", req)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, httpx.CodeRateLimited, body.ErrorCode)
}

func TestResumedSessionRefreshesStaleToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	tok, err := env.client.Token(ctx, "alice", "password123")
	require.NoError(t, err)

	// expiresIn 0 marks the stored access token as stale.
	sess := env.client.NewSessionFromTokens(tok.AccessToken, tok.RefreshToken, 0)

	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
	require.NotEqual(t, tok.RefreshToken, sess.RefreshToken())
}
