package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/domain"
	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrate"
	"github.com/aussiebroadwan/userapi/pkg/apisdk"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-bytes"

func newTestStore(t *testing.T) *sqldb.Store {
	t.Helper()
	ctx := context.Background()

	cfg, err := sqldb.ParseURL("sqlite:///:memory:")
	require.NoError(t, err)
	st, err := sqldb.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	r, err := migrate.NewRunner(st.DB(), st.Dialect(), migrate.WithLogger(discardLogger()))
	require.NoError(t, err)
	_, err = r.Apply(ctx)
	require.NoError(t, err)
	return st
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTokenService(t *testing.T, users *UserService) *TokenService {
	t.Helper()
	h, err := jwtx.NewHMAC("HS256", []byte(testSecret), jwtx.VerifyOptions{Issuer: "test"})
	require.NoError(t, err)
	return &TokenService{
		Users:      users,
		Store:      users.Store,
		Signer:     h,
		Verifier:   h,
		Issuer:     "test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func mustRegister(t *testing.T, s *UserService, email, username string) domain.User {
	t.Helper()
	u, err := s.Register(context.Background(), apisdk.UserCreate{
		Email:    email,
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }
