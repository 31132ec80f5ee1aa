package apisdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultPrefix is the path prefix of the versioned API.
const DefaultPrefix = "/api/v1"

// Client talks to the user API. It covers the unauthenticated endpoints and
// creates authenticated Sessions.
type Client struct {
	BaseURL    string
	Prefix     string
	HTTPClient *http.Client

	// TraceID, when set, is sent as X-Trace-ID on every request.
	TraceID string
}

// NewClient returns a client for the API served at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Prefix:     DefaultPrefix,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) api(path string) string {
	return c.Prefix + path
}

// Root calls GET /.
func (c *Client) Root(ctx context.Context) (*RootResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return nil, err
	}

	var out RootResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls GET /readyz.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, "")
	if err != nil {
		return nil, err
	}

	var out ReadyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req UserCreate) (*UserResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.api("/users"), req, "")
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Token exchanges credentials for a token pair. login is a username or
// email address.
func (c *Client) Token(ctx context.Context, login, password string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.api("/auth/token"), TokenRequest{Username: login, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// stops working.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, c.api("/auth/refresh"), RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeToken revokes a refresh token.
func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, c.api("/auth/revoke"), RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Login authenticates and returns a Session.
func (c *Client) Login(ctx context.Context, login, password string) (*Session, error) {
	tok, err := c.Token(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}

// NewSessionFromTokens builds a Session from a previously issued pair.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	})
}
