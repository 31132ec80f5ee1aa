package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so callers cannot nest transactions by accident.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when it returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts u and returns it with the assigned id. Unique
	// violations return ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateUser writes the profile columns and flags of u, including
	// updated_at.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id int64, hash string, now time.Time) error

	// DeleteUser cascades to refresh_tokens.
	DeleteUser(ctx context.Context, id int64) error

	ListUsers(ctx context.Context, p domain.ListUsersParams) ([]domain.User, error)
	CountUsers(ctx context.Context, activeOnly bool) (int64, error)

	// EmailTaken and UsernameTaken ignore the user with excludeID, so an
	// update can keep its own values. Pass 0 to check every user.
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint, whether
	// or not it is still usable.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks one live token revoked. It returns
	// ErrNotFound when no unrevoked token has that hash, which makes it
	// usable as a compare-and-swap during rotation.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens revokes every token of a user (e.g. after a
	// password change).
	RevokeAllUserRefreshTokens(ctx context.Context, userID int64) error

	// DeleteStaleRefreshTokens removes tokens that expired before now or
	// were revoked, returning how many were removed.
	DeleteStaleRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
