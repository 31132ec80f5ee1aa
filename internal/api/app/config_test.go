package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/pkg/httpx"

	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PROJECT_NAME", "VERSION", "ENVIRONMENT", "DEBUG", "HOST", "PORT",
		"ALLOWED_HOSTS", "API_V1_PREFIX", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
		"DB_MAX_IDLE_CONNS", "AUTO_MIGRATE", "MIGRATIONS_DIR", "SECRET_KEY",
		"ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_DAYS",
		"JWT_ISSUER", "PEPPER_FILE", "ITEMS_PER_PAGE", "MAX_ITEMS_PER_PAGE",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
		"OTEL_CONSOLE_SPANS", "FIRST_SUPERUSER_EMAIL", "FIRST_SUPERUSER_USERNAME",
		"FIRST_SUPERUSER_PASSWORD", "HOUSEKEEPING_SCHEDULE", "SHUTDOWN_GRACE_PERIOD",
		"RATELIMIT_STRICT_REQUESTS", "RATELIMIT_STRICT_WINDOW_SEC", "RATELIMIT_STRICT_BURST",
		"RATELIMIT_MODERATE_REQUESTS", "RATELIMIT_MODERATE_WINDOW_SEC", "RATELIMIT_MODERATE_BURST",
	} {
		t.Setenv(k, "")
	}
	// Keep a stray .env in the package dir from being loaded.
	t.Chdir(t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()
	require.Equal(t, "User API", cfg.ProjectName)
	require.Equal(t, "1.0.0", cfg.Version)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0:8000", cfg.Addr())
	require.Equal(t, []string{"*"}, cfg.AllowedHosts)
	require.Equal(t, "/api/v1", cfg.Prefix)
	require.Equal(t, "sqlite://./data/app.db", cfg.DatabaseURL)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, DevSecretKey, cfg.SecretKey)
	require.Equal(t, "HS256", cfg.Algorithm)
	require.Equal(t, "User API", cfg.Issuer)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenExpire)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenExpire)
	require.Equal(t, 20, cfg.ItemsPerPage)
	require.Equal(t, 100, cfg.MaxItemsPerPage)
	require.Equal(t, "User API", cfg.ServiceName)
	require.Equal(t, "1.0.0", cfg.ServiceVersion)
	require.Equal(t, "@every 1h", cfg.HousekeepingSchedule)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, httpx.StrictLimit, cfg.StrictLimit)
	require.Empty(t, cfg.OTLPHeaders)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_NAME", "Accounts")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_HOSTS", "https://a.example, https://b.example,")
	t.Setenv("DATABASE_URL", "postgresql+asyncpg://u:p@db:5432/accounts")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer abc, x-tenant = 7,broken")
	t.Setenv("DEBUG", "true")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "30")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "50")

	cfg := LoadConfig()
	require.Equal(t, "Accounts", cfg.Issuer)
	require.Equal(t, "Accounts", cfg.ServiceName)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedHosts)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenExpire)
	require.Equal(t, map[string]string{"authorization": "Bearer abc", "x-tenant": "7"}, cfg.OTLPHeaders)
	require.Equal(t, "debug", cfg.LogLevel)
	require.False(t, cfg.AutoMigrate)
	require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, 50, cfg.StrictLimit.RequestsPerWindow)

	db, err := cfg.Database()
	require.NoError(t, err)
	require.Equal(t, sqldb.DialectPostgres, db.Dialect)
	require.Equal(t, "accounts", db.Database)
	require.Equal(t, 10, db.MaxOpenConns)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "".
	require.NoError(t, os.Unsetenv("PROJECT_NAME"))
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("PROJECT_NAME=FromFile\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "7100")

	cfg := LoadConfig()
	require.Equal(t, "FromFile", cfg.ProjectName)
	require.Equal(t, 7100, cfg.Port, "environment wins over .env")
}

func TestConfigValidate(t *testing.T) {
	clearEnv(t)
	base := LoadConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"production without secret", func(c *Config) { c.Environment = "production"; c.SecretKey = "" }, "SECRET_KEY is required"},
		{"production with dev secret", func(c *Config) { c.Environment = "production" }, "must be changed"},
		{"short secret", func(c *Config) { c.SecretKey = "short" }, "at least"},
		{"bad algorithm", func(c *Config) { c.Algorithm = "RS256" }, "ALGORITHM"},
		{"bad database url", func(c *Config) { c.DatabaseURL = "mysql://localhost/db" }, "DATABASE_URL"},
		{"bad port", func(c *Config) { c.Port = 0 }, "PORT"},
		{"page size above max", func(c *Config) { c.ItemsPerPage = 500 }, "ITEMS_PER_PAGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
