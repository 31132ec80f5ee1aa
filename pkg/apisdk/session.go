package apisdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// refreshSkew renews the access token this long before it expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated client. All Session methods refresh the access
// token automatically when it is about to expire.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(c *Client, tok *TokenResponse) *Session {
	return &Session{
		client:       c,
		accessToken:  tok.AccessToken,
		refreshToken: tok.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - refreshSkew),
	}
}

// AccessToken returns the current access token without checking expiry.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Refresh forces a token refresh.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return errors.New("apisdk: no refresh token available")
	}

	tok, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("apisdk: refresh token: %w", err)
	}

	s.accessToken = tok.AccessToken
	s.refreshToken = tok.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - refreshSkew)
	return nil
}

// validToken returns an access token, refreshing first if it has expired.
func (s *Session) validToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *Session) do(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	token, err := s.validToken(ctx)
	if err != nil {
		return err
	}

	resp, err := s.client.doRequest(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// Revoke revokes the session's refresh token.
func (s *Session) Revoke(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return errors.New("apisdk: no refresh token to revoke")
	}
	if err := s.client.RevokeToken(ctx, s.refreshToken); err != nil {
		return err
	}
	s.refreshToken = ""
	return nil
}

// Me returns the authenticated user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodGet, s.client.api("/users/me"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns a user by id.
func (s *Session) GetUser(ctx context.Context, id int64) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodGet, s.userPath(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial update to a user.
func (s *Session) UpdateUser(ctx context.Context, id int64, req UserUpdate) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodPut, s.userPath(id), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePassword changes the authenticated user's password. The server
// revokes every refresh token of the user, including this session's.
func (s *Session) UpdatePassword(ctx context.Context, id int64, req UserPasswordUpdate) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodPut, s.userPath(id)+"/password", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes a user and returns its final state.
func (s *Session) DeleteUser(ctx context.Context, id int64) (*UserResponse, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodDelete, s.userPath(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOptions selects a page of users. Zero values use server defaults.
type ListOptions struct {
	Page       int
	PerPage    int
	ActiveOnly bool
}

// ListUsers returns a page of users.
func (s *Session) ListUsers(ctx context.Context, opts ListOptions) (*UserList, error) {
	q := url.Values{}
	if opts.Page != 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.ActiveOnly {
		q.Set("active_only", "true")
	}

	path := s.client.api("/users")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out UserList
	if err := s.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) userPath(id int64) string {
	return s.client.api("/users/" + strconv.FormatInt(id, 10))
}
