package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, username, hashed_password, full_name, bio, avatar_url,
	is_active, is_superuser, created_at, updated_at`

type userRow struct {
	ID             int64          `db:"id"`
	Email          string         `db:"email"`
	Username       string         `db:"username"`
	HashedPassword string         `db:"hashed_password"`
	FullName       sql.NullString `db:"full_name"`
	Bio            sql.NullString `db:"bio"`
	AvatarURL      sql.NullString `db:"avatar_url"`
	IsActive       bool           `db:"is_active"`
	IsSuperuser    bool           `db:"is_superuser"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.HashedPassword,
		FullName:     stringPtr(r.FullName),
		Bio:          stringPtr(r.Bio),
		AvatarURL:    stringPtr(r.AvatarURL),
		IsActive:     r.IsActive,
		IsSuperuser:  r.IsSuperuser,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type usersRepo struct {
	q       sqlx.ExtContext
	dialect Dialect
}

func (r *usersRepo) getOne(ctx context.Context, op, where string, arg any) (u domain.User, err error) {
	ctx, span := startSpan(ctx, r.dialect, op)
	defer func() { endSpan(span, err) }()

	var row userRow
	query := r.q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`)
	if err = sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, "users.get_by_id", "id", id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, "users.get_by_email", "email", email)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, "users.get_by_username", "username", username)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (_ domain.User, err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.create")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`
		INSERT INTO users (
			email, username, hashed_password, full_name, bio, avatar_url,
			is_active, is_superuser, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	err = r.q.QueryRowxContext(ctx, query,
		u.Email, u.Username, u.PasswordHash,
		nullString(u.FullName), nullString(u.Bio), nullString(u.AvatarURL),
		u.IsActive, u.IsSuperuser, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}
	return u, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.update")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`
		UPDATE users SET
			email = ?, username = ?, full_name = ?, bio = ?, avatar_url = ?,
			is_active = ?, is_superuser = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query,
		u.Email, u.Username,
		nullString(u.FullName), nullString(u.Bio), nullString(u.AvatarURL),
		u.IsActive, u.IsSuperuser, u.UpdatedAt.UTC(),
		u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return expectAffected(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string, now time.Time) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.update_password")
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`UPDATE users SET hashed_password = ?, updated_at = ? WHERE id = ?`)
	res, err := r.q.ExecContext(ctx, query, hash, now.UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.delete")
	defer func() { endSpan(span, err) }()

	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *usersRepo) ListUsers(ctx context.Context, p domain.ListUsersParams) (_ []domain.User, err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.list")
	defer func() { endSpan(span, err) }()

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if p.ActiveOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset)

	var rows []userRow
	if err = sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *usersRepo) CountUsers(ctx context.Context, activeOnly bool) (n int64, err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.count")
	defer func() { endSpan(span, err) }()

	query := `SELECT COUNT(*) FROM users`
	args := []any{}
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	err = sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(query), args...)
	return n, err
}

func (r *usersRepo) taken(ctx context.Context, op, column, value string, excludeID int64) (taken bool, err error) {
	ctx, span := startSpan(ctx, r.dialect, op)
	defer func() { endSpan(span, err) }()

	query := r.q.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE ` + column + ` = ? AND id <> ?)`)
	err = sqlx.GetContext(ctx, r.q, &taken, query, value, excludeID)
	return taken, err
}

func (r *usersRepo) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.taken(ctx, "users.email_taken", "email", email, excludeID)
}

func (r *usersRepo) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.taken(ctx, "users.username_taken", "username", username, excludeID)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (empty bool, err error) {
	ctx, span := startSpan(ctx, r.dialect, "users.is_empty")
	defer func() { endSpan(span, err) }()

	var exists bool
	err = sqlx.GetContext(ctx, r.q, &exists, `SELECT EXISTS(SELECT 1 FROM users)`)
	return !exists, err
}
