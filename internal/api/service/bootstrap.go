package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

// BootstrapService seeds the first superuser of an empty database.
type BootstrapService struct {
	Users *UserService
}

// FirstSuperuser is configured through FIRST_SUPERUSER_*.
type FirstSuperuser struct {
	Email    string
	Username string
	Password string
}

func (f FirstSuperuser) configured() bool {
	return f.Email != "" && f.Username != "" && f.Password != ""
}

// EnsureFirstSuperuser creates f as a superuser when it is fully configured
// and no user exists yet. It reports whether a user was created.
func (s *BootstrapService) EnsureFirstSuperuser(ctx context.Context, f FirstSuperuser) (bool, domain.User, error) {
	l := slogx.FromContext(ctx)

	if !f.configured() {
		return false, domain.User{}, nil
	}

	empty, err := s.Users.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, domain.User{}, err
	}
	if !empty {
		l.Debug("users exist, skipping first superuser")
		return false, domain.User{}, nil
	}

	u, err := s.Users.create(ctx, apisdk.UserCreate{Email: f.Email, Username: f.Username, Password: f.Password}, true)
	if err != nil {
		return false, domain.User{}, err
	}

	l.Info("created first superuser", slog.Int64("user_id", u.ID), slog.String("username", u.Username))
	return true, u, nil
}
