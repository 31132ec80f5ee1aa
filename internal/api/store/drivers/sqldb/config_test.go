package sqldb_test

import (
	"testing"

	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"

	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		dialect  sqldb.Dialect
		path     string
		database string
	}{
		{"sqlite relative", "sqlite:///./data/app.db", sqldb.DialectSQLite, "./data/app.db", ""},
		{"sqlite absolute", "sqlite:////var/lib/app.db", sqldb.DialectSQLite, "/var/lib/app.db", ""},
		{"sqlite two slashes", "sqlite://./data/app.db", sqldb.DialectSQLite, "./data/app.db", ""},
		{"sqlite driver suffix", "sqlite+aiosqlite:///./app.db", sqldb.DialectSQLite, "./app.db", ""},
		{"sqlite memory", "sqlite:///:memory:", sqldb.DialectSQLite, ":memory:", ""},
		{"postgres", "postgres://u:p@localhost:5432/users?sslmode=disable", sqldb.DialectPostgres, "", "users"},
		{"postgresql driver suffix", "postgresql+asyncpg://u:p@db/app", sqldb.DialectPostgres, "", "app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := sqldb.ParseURL(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.dialect, cfg.Dialect)
			require.Equal(t, tt.path, cfg.Path)
			require.Equal(t, tt.database, cfg.Database)
		})
	}
}

func TestParseURLRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"mysql://root@localhost/app",
		"./app.db",
		"sqlite:///",
		"postgres://localhost",
	} {
		_, err := sqldb.ParseURL(raw)
		require.ErrorIs(t, err, sqldb.ErrUnsupportedURL, raw)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg, err := sqldb.ParseURL("postgresql://u:p@db:5432/app?sslmode=disable")
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DriverName)
	require.Equal(t, "postgres://u:p@db:5432/app?sslmode=disable", cfg.DSN)

	maint, err := cfg.MaintenanceDSN()
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@db:5432/postgres?sslmode=disable", maint)

	lite, err := sqldb.ParseURL("sqlite:///./data/app.db")
	require.NoError(t, err)
	require.Equal(t, "sqlite", lite.DriverName)
	require.Contains(t, lite.DSN, "file:./data/app.db?")
	require.Contains(t, lite.DSN, "foreign_keys%281%29")
	require.Equal(t, "data", lite.SQLiteDir())

	_, err = lite.MaintenanceDSN()
	require.Error(t, err)
}
