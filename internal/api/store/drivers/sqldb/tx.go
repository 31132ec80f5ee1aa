package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/userapi/internal/api/store"

	"github.com/jmoiron/sqlx"
)

type txStore struct {
	tx      *sqlx.Tx
	dialect Dialect
}

var _ store.Tx = (*txStore)(nil)

func (t *txStore) Users() store.Users {
	return &usersRepo{q: t.tx, dialect: t.dialect}
}

func (t *txStore) RefreshTokens() store.RefreshTokens {
	return &refreshTokensRepo{q: t.tx, dialect: t.dialect}
}

func (t *txStore) Commit() error { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close and Ping are no-ops for a transaction.
func (t *txStore) Close() error { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}
