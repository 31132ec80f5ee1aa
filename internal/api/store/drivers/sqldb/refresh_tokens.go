package sqldb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"

	"github.com/jmoiron/sqlx"
)

type refreshTokenRow struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

func (r refreshTokenRow) toDomain() domain.RefreshToken {
	return domain.RefreshToken{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt.UTC(),
		Revoked:   r.Revoked,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type refreshTokensRepo struct {
	q       sqlx.ExtContext
	dialect Dialect
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "refresh_tokens.create")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err = r.q.ExecContext(ctx, query,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (_ domain.RefreshToken, err error) {
	ctx, span := startSpan(ctx, r.dialect, "refresh_tokens.get_by_hash")
	defer func() { endSpan(span, err) }()

	var row refreshTokenRow
	query := r.q.Rebind(`
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens WHERE token_hash = ?`)
	if err = sqlx.GetContext(ctx, r.q, &row, query, hash); err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "refresh_tokens.revoke")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`UPDATE refresh_tokens SET revoked = ? WHERE token_hash = ? AND revoked = ?`)
	res, err := r.q.ExecContext(ctx, query, true, hash, false)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID int64) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "refresh_tokens.revoke_all")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`UPDATE refresh_tokens SET revoked = ? WHERE user_id = ? AND revoked = ?`)
	_, err = r.q.ExecContext(ctx, query, true, userID, false)
	return err
}

func (r *refreshTokensRepo) DeleteStaleRefreshTokens(ctx context.Context, now time.Time) (n int64, err error) {
	ctx, span := startSpan(ctx, r.dialect, "refresh_tokens.delete_stale")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked = ?`)
	res, err := r.q.ExecContext(ctx, query, now.UTC(), true)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
