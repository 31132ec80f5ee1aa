package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/pkg/httpx"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"

	"github.com/joho/godotenv"
)

// DevSecretKey is the SECRET_KEY used when none is configured. It is
// rejected in production.
const DevSecretKey = "dev-secret-key-change-me-in-production"

const EnvProduction = "production"

type Config struct {
	ProjectName string
	Version     string
	Environment string // development, staging, production
	Debug       bool

	Host         string
	Port         int
	AllowedHosts []string // CORS origins
	Prefix       string   // API_V1_PREFIX

	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string

	SecretKey          string
	Algorithm          string
	Issuer             string
	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration
	PepperFile         string

	ItemsPerPage    int
	MaxItemsPerPage int

	LogLevel  string
	LogFormat string
	LogFile   string

	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	ServiceName    string
	ServiceVersion string
	ConsoleSpans   bool

	FirstSuperuser service.FirstSuperuser

	HousekeepingSchedule string
	ShutdownGracePeriod  time.Duration

	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig
}

// LoadConfig reads the environment, after loading .env from the working
// directory when one exists. Variables already set take precedence over
// the file.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		ProjectName: getEnvOrDefault("PROJECT_NAME", "User API"),
		Version:     getEnvOrDefault("VERSION", "1.0.0"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Debug:       getEnvBoolOrDefault("DEBUG", false),

		Host:         getEnvOrDefault("HOST", "0.0.0.0"),
		Port:         getEnvIntOrDefault("PORT", 8000),
		AllowedHosts: splitList(getEnvOrDefault("ALLOWED_HOSTS", "*")),
		Prefix:       getEnvOrDefault("API_V1_PREFIX", "/api/v1"),

		DatabaseURL:   getEnvOrDefault("DATABASE_URL", "sqlite://./data/app.db"),
		MaxOpenConns:  getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:  getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:   getEnvBoolOrDefault("AUTO_MIGRATE", true),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),

		SecretKey:          os.Getenv("SECRET_KEY"),
		Algorithm:          getEnvOrDefault("ALGORITHM", "HS256"),
		AccessTokenExpire:  time.Duration(getEnvIntOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenExpire: time.Duration(getEnvIntOrDefault("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		PepperFile:         os.Getenv("PEPPER_FILE"),

		ItemsPerPage:    getEnvIntOrDefault("ITEMS_PER_PAGE", service.DefaultItemsPerPage),
		MaxItemsPerPage: getEnvIntOrDefault("MAX_ITEMS_PER_PAGE", service.DefaultMaxPerPage),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:   os.Getenv("LOG_FILE"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPHeaders:  parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		ConsoleSpans: getEnvBoolOrDefault("OTEL_CONSOLE_SPANS", false),

		FirstSuperuser: service.FirstSuperuser{
			Email:    os.Getenv("FIRST_SUPERUSER_EMAIL"),
			Username: os.Getenv("FIRST_SUPERUSER_USERNAME"),
			Password: os.Getenv("FIRST_SUPERUSER_PASSWORD"),
		},

		HousekeepingSchedule: getEnvOrDefault("HOUSEKEEPING_SCHEDULE", service.DefaultHousekeepingSchedule),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		StrictLimit:   httpx.ParseRateLimitFromEnv("STRICT", httpx.StrictLimit),
		ModerateLimit: httpx.ParseRateLimitFromEnv("MODERATE", httpx.ModerateLimit),
	}

	cfg.Issuer = getEnvOrDefault("JWT_ISSUER", cfg.ProjectName)
	cfg.ServiceName = getEnvOrDefault("OTEL_SERVICE_NAME", cfg.ProjectName)
	cfg.ServiceVersion = getEnvOrDefault("OTEL_SERVICE_VERSION", cfg.Version)

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if cfg.SecretKey == "" && !cfg.IsProduction() {
		cfg.SecretKey = DevSecretKey
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Database parses DatabaseURL and applies the pool settings.
func (c Config) Database() (sqldb.Config, error) {
	db, err := sqldb.ParseURL(c.DatabaseURL)
	if err != nil {
		return sqldb.Config{}, err
	}
	db.MaxOpenConns = c.MaxOpenConns
	db.MaxIdleConns = c.MaxIdleConns
	return db, nil
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.SecretKey == "":
		errs = append(errs, errors.New("SECRET_KEY is required in production"))
	case c.IsProduction() && c.SecretKey == DevSecretKey:
		errs = append(errs, errors.New("SECRET_KEY must be changed in production"))
	case len(c.SecretKey) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes", jwtx.MinSecretLength))
	}

	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not supported", c.Algorithm))
	}

	if _, err := sqldb.ParseURL(c.DatabaseURL); err != nil {
		errs = append(errs, fmt.Errorf("DATABASE_URL: %w", err))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.AccessTokenExpire <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.RefreshTokenExpire <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}
	if c.ItemsPerPage <= 0 || c.ItemsPerPage > c.MaxItemsPerPage {
		errs = append(errs, fmt.Errorf("ITEMS_PER_PAGE must be between 1 and %d", c.MaxItemsPerPage))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseHeaders parses "k=v,k=v". Entries without '=' are skipped.
func parseHeaders(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}
