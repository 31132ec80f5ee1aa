package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrate"

	"github.com/stretchr/testify/require"
)

func newMemoryRunner(t *testing.T, opts ...migrate.Option) (*migrate.Runner, *sqldb.Store) {
	t.Helper()

	cfg, err := sqldb.ParseURL("sqlite:///:memory:")
	require.NoError(t, err)

	st, err := sqldb.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	r, err := migrate.NewRunner(st.DB(), st.Dialect(), opts...)
	require.NoError(t, err)
	return r, st
}

func TestRunnerList(t *testing.T) {
	r, _ := newMemoryRunner(t)

	all, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.Equal(t, uint(20240101000000), all[0].Version)
	require.Equal(t, "create_users_table", all[0].Name)
	require.True(t, all[0].HasDown)
	require.Equal(t, "create_refresh_tokens_table", all[1].Name)
}

func TestRunnerApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, st := newMemoryRunner(t)

	applied, err := r.Apply(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)

	applied, err = r.Apply(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)

	status, err := r.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(20240101000100), status.Version)
	require.False(t, status.Dirty)
	for _, m := range status.Migrations {
		require.True(t, m.Applied, m.Name)
	}

	// The database handle stays usable after the runner is done with it.
	require.NoError(t, st.Ping(ctx))
}

func TestRunnerRollback(t *testing.T) {
	ctx := context.Background()
	r, _ := newMemoryRunner(t)

	_, err := r.RollbackStep(ctx)
	require.ErrorIs(t, err, migrate.ErrNoneApplied)

	_, err = r.Apply(ctx)
	require.NoError(t, err)

	reverted, err := r.RollbackStep(ctx)
	require.NoError(t, err)
	require.Len(t, reverted, 1)
	require.Equal(t, "create_refresh_tokens_table", reverted[0].Name)
	require.False(t, reverted[0].Applied)

	status, err := r.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(20240101000000), status.Version)
	require.True(t, status.Migrations[0].Applied)
	require.False(t, status.Migrations[1].Applied)

	_, err = r.RollbackTo(ctx, 20240101000100)
	require.ErrorIs(t, err, migrate.ErrNotApplied)

	_, err = r.RollbackTo(ctx, 42)
	require.ErrorIs(t, err, migrate.ErrUnknownTarget)

	reverted, err = r.RollbackTo(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reverted, 1)

	status, err = r.Status(ctx)
	require.NoError(t, err)
	require.Zero(t, status.Version)
}

func TestRunnerWithDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	up, down, err := migrate.Create(dir, sqldb.DialectSQLite, "Add Widgets!", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "sqlite", "20250304050607_add_widgets.up.sql"), up)
	require.FileExists(t, down)

	require.NoError(t, os.WriteFile(up, []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);\n"), 0o644))
	require.NoError(t, os.WriteFile(down, []byte("DROP TABLE widgets;\n"), 0o644))

	r, _ := newMemoryRunner(t, migrate.WithDir(dir))

	applied, err := r.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, "add_widgets", applied[0].Name)

	_, _, err = migrate.Create(dir, sqldb.DialectSQLite, "add widgets", now)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestWithDirMissing(t *testing.T) {
	cfg, err := sqldb.ParseURL("sqlite:///:memory:")
	require.NoError(t, err)
	st, err := sqldb.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	_, err = migrate.NewRunner(st.DB(), st.Dialect(), migrate.WithDir(t.TempDir()))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Add users table":      "add_users_table",
		"  add--email  index ": "add_email_index",
		"ALTER users.bio":      "alter_users_bio",
		"!!!":                  "",
	}
	for in, want := range tests {
		require.Equal(t, want, migrate.SanitizeName(in), in)
	}

	_, _, err := migrate.Create(t.TempDir(), sqldb.DialectSQLite, "???", time.Now())
	require.ErrorIs(t, err, migrate.ErrEmptyName)
}

func TestEnsureDatabaseSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "app.db")

	cfg, err := sqldb.ParseURL("sqlite:///" + path)
	require.NoError(t, err)

	created, err := migrate.EnsureDatabase(ctx, cfg)
	require.NoError(t, err)
	require.True(t, created)
	require.FileExists(t, path)

	created, err = migrate.EnsureDatabase(ctx, cfg)
	require.NoError(t, err)
	require.False(t, created)
}
