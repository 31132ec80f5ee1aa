package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/store"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/cryptox"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

const (
	DefaultItemsPerPage = 20
	DefaultMaxPerPage   = 100
)

type UserService struct {
	Store store.Store

	// MaxPerPage caps List page sizes. Zero means DefaultMaxPerPage.
	MaxPerPage int
}

// NormalizeEmail lowercases and trims an address so lookups and the unique
// index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequireSelfOrSuperuser allows actor to act on the user with id.
func RequireSelfOrSuperuser(actor domain.User, id int64) error {
	if actor.ID != id && !actor.IsSuperuser {
		return ErrForbidden
	}
	return nil
}

// Register creates a regular, active user.
func (s *UserService) Register(ctx context.Context, in apisdk.UserCreate) (domain.User, error) {
	return s.create(ctx, in, false)
}

func (s *UserService) create(ctx context.Context, in apisdk.UserCreate, superuser bool) (domain.User, error) {
	l := slogx.FromContext(ctx)

	// Length rules apply to the stored form.
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := apisdk.Validate(in); err != nil {
		return domain.User{}, err
	}
	email, username := in.Email, in.Username

	if err := s.checkAvailable(ctx, s.Store.Users(), email, username, 0); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u, err := s.Store.Users().CreateUser(ctx, domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     nonEmpty(in.FullName),
		Bio:          nonEmpty(in.Bio),
		AvatarURL:    nonEmpty(in.AvatarURL),
		IsActive:     true,
		IsSuperuser:  superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent registration.
		return domain.User{}, s.conflict(ctx, s.Store.Users(), email, 0)
	}
	if err != nil {
		return domain.User{}, err
	}

	l.Info("user registered",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
		slog.Bool("superuser", superuser),
	)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	return mapUser(s.Store.Users().GetUserByID(ctx, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return mapUser(s.Store.Users().GetUserByEmail(ctx, NormalizeEmail(email)))
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return mapUser(s.Store.Users().GetUserByUsername(ctx, username))
}

// Authenticate checks login (a username or an email address) and password.
// Legacy or outdated hashes are upgraded on success.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	u, err := s.GetByUsername(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUserNotFound) {
		u, err = s.GetByEmail(ctx, login)
	}
	if errors.Is(err, ErrUserNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	needsRehash, err := cryptox.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			l.Error("failed to verify password", slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
		return domain.User{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return domain.User{}, ErrInactiveUser
	}

	if needsRehash {
		if hash, err := cryptox.HashPassword(password); err == nil {
			if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, time.Now()); err != nil {
				l.Warn("failed to upgrade password hash", slog.Int64("user_id", u.ID), slog.Any("error", err))
			} else {
				u.PasswordHash = hash
				l.Info("upgraded password hash", slog.Int64("user_id", u.ID))
			}
		}
	}

	return u, nil
}

// Update applies a partial update to user id on behalf of actor.
func (s *UserService) Update(ctx context.Context, actor domain.User, id int64, in apisdk.UserUpdate) (domain.User, error) {
	if err := RequireSelfOrSuperuser(actor, id); err != nil {
		return domain.User{}, err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	patch := domain.UserPatch{
		FullName:  in.FullName,
		Bio:       in.Bio,
		AvatarURL: in.AvatarURL,
		IsActive:  in.IsActive,
	}
	if patch.IsActive != nil && *patch.IsActive != u.IsActive && !actor.IsSuperuser {
		return domain.User{}, ErrForbidden
	}

	var email, username string
	if in.Email != nil {
		email = NormalizeEmail(*in.Email)
		in.Email = &email
	}
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		in.Username = &username
	}
	if err := apisdk.Validate(in); err != nil {
		return domain.User{}, err
	}

	if in.Email != nil && email != u.Email {
		patch.Email = &email
	}
	if in.Username != nil && username != u.Username {
		patch.Username = &username
	}

	if patch.Email != nil || patch.Username != nil {
		if err := s.checkAvailable(ctx, s.Store.Users(), deref(patch.Email), deref(patch.Username), u.ID); err != nil {
			return domain.User{}, err
		}
	}

	u.Apply(patch)
	u.UpdatedAt = time.Now().UTC()

	err = s.Store.Users().UpdateUser(ctx, u)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.User{}, s.conflict(ctx, s.Store.Users(), u.Email, u.ID)
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrUserNotFound
	case err != nil:
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user updated",
		slog.Int64("user_id", u.ID),
		slog.Int64("actor_id", actor.ID),
	)
	return u, nil
}

// UpdatePassword changes the actor's own password and revokes every refresh
// token they hold.
func (s *UserService) UpdatePassword(ctx context.Context, actor domain.User, id int64, in apisdk.UserPasswordUpdate) (domain.User, error) {
	if actor.ID != id {
		return domain.User{}, ErrPasswordNotOwn
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if _, err := cryptox.VerifyPassword(in.CurrentPassword, u.PasswordHash); err != nil {
		return domain.User{}, ErrIncorrectPassword
	}

	hash, err := cryptox.HashPassword(in.NewPassword)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, id, hash, now); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	u.PasswordHash = hash
	u.UpdatedAt = now

	slogx.FromContext(ctx).Info("password changed", slog.Int64("user_id", id))
	return u, nil
}

// List returns one page of users ordered by id.
func (s *UserService) List(ctx context.Context, page, perPage int, activeOnly bool) (domain.UserPage, error) {
	maxPerPage := s.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = DefaultMaxPerPage
	}

	switch {
	case page < 1:
		return domain.UserPage{}, pageErrorf("Page number must be greater than 0")
	case perPage < 1:
		return domain.UserPage{}, pageErrorf("Items per page must be greater than 0")
	case perPage > maxPerPage:
		return domain.UserPage{}, pageErrorf("Items per page cannot exceed %d", maxPerPage)
	case page > math.MaxInt/perPage:
		return domain.UserPage{}, pageErrorf("Page number is too large")
	}

	users, err := s.Store.Users().ListUsers(ctx, domain.ListUsersParams{
		Offset:     (page - 1) * perPage,
		Limit:      perPage,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return domain.UserPage{}, err
	}

	total, err := s.Store.Users().CountUsers(ctx, activeOnly)
	if err != nil {
		return domain.UserPage{}, err
	}

	return domain.UserPage{Users: users, Total: total, Page: page, PerPage: perPage}, nil
}

// Delete removes user id and returns the row as it was.
func (s *UserService) Delete(ctx context.Context, id int64) (domain.User, error) {
	var deleted domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Users().DeleteUser(ctx, id); err != nil {
			return err
		}
		deleted = u
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user deleted", slog.Int64("user_id", id))
	return deleted, nil
}

// checkAvailable rejects an email (checked first) or username already used
// by someone other than excludeID. Empty values are skipped.
func (s *UserService) checkAvailable(ctx context.Context, users store.Users, email, username string, excludeID int64) error {
	if email != "" {
		taken, err := users.EmailTaken(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if username != "" {
		taken, err := users.UsernameTaken(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	return nil
}

// conflict works out which unique column a failed write collided on.
func (s *UserService) conflict(ctx context.Context, users store.Users, email string, excludeID int64) error {
	if taken, err := users.EmailTaken(ctx, email, excludeID); err == nil && taken {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func mapUser(u domain.User, err error) (domain.User, error) {
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
