package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/store"
	"github.com/aussiebroadwan/userapi/pkg/cryptox"
	"github.com/aussiebroadwan/userapi/pkg/idx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

var _ jwtx.Verifier = (*TokenService)(nil)

// TokenService issues HMAC access tokens and rotating opaque refresh tokens.
type TokenService struct {
	Users      *UserService
	Store      store.Store
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login authenticates login/password and issues a new token pair.
func (s *TokenService) Login(ctx context.Context, login, password string) (*domain.TokenPair, error) {
	u, err := s.Users.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refresh, opaque, err := s.newRefresh(u.ID, now)
	if err != nil {
		return nil, err
	}
	access, err := s.signAccess(u.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("issued tokens", slog.Int64("user_id", u.ID))
	return &domain.TokenPair{AccessToken: access, RefreshToken: opaque, ExpiresIn: s.accessTTL()}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked in the same transaction that stores its replacement, so each one
// can be used once.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}

	if !rt.Usable(now) {
		if rt.Revoked {
			l.Warn("revoked refresh token presented", slog.Int64("user_id", rt.UserID), slog.String("token_id", rt.ID))
		}
		return nil, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		l.Info("refresh for inactive user rejected", slog.Int64("user_id", u.ID))
		return nil, ErrInvalidRefresh
	}

	next, opaque, err := s.newRefresh(u.ID, now)
	if err != nil {
		return nil, err
	}
	access, err := s.signAccess(u.ID, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, next)
	})
	if errors.Is(err, store.ErrNotFound) {
		// Someone else rotated it first.
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: opaque, ExpiresIn: s.accessTTL()}, nil
}

// Revoke revokes a refresh token. Unknown or already revoked tokens are
// not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Verify validates an access token and returns its claims. TokenService
// satisfies jwtx.Verifier so it can back httpx.AuthnMiddleware.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

func (s *TokenService) signAccess(userID int64, now time.Time) (string, error) {
	return s.Signer.Sign(jwtx.NewAccessClaims(userID, s.Issuer, s.accessTTL(), now))
}

func (s *TokenService) newRefresh(userID int64, now time.Time) (domain.RefreshToken, string, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.RefreshToken{}, "", err
	}

	ttl := s.RefreshTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}

	return domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, opaque, nil
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}
