package sqldb

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect selects SQL flavour, driver and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var ErrUnsupportedURL = errors.New("sqldb: unsupported database url")

// Config is a parsed DATABASE_URL.
type Config struct {
	Dialect Dialect

	// DriverName is the database/sql driver to open.
	DriverName string

	// DSN is the driver specific connection string.
	DSN string

	// Path is the sqlite file path (":memory:" for an in-memory db).
	Path string

	// Database is the postgres database name.
	Database string

	MaxOpenConns int
	MaxIdleConns int
}

// ParseURL parses a database URL. Driver suffixes on the scheme are
// accepted and ignored, so "postgresql+asyncpg://" and "sqlite+aiosqlite:///"
// work the same as their plain forms.
//
// sqlite:///relative.db and sqlite:////abs/path.db follow the usual
// three/four slash convention. sqlite://./data/app.db is accepted too.
func ParseURL(raw string) (Config, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "sqlite", "sqlite3":
		path := rest
		if q := strings.IndexByte(path, '?'); q >= 0 {
			path = path[:q]
		}
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		if path == "" {
			return Config{}, fmt.Errorf("%w: missing sqlite path", ErrUnsupportedURL)
		}
		return Config{
			Dialect:    DialectSQLite,
			DriverName: "sqlite",
			DSN:        sqliteDSN(path),
			Path:       path,
		}, nil

	case "postgres", "postgresql":
		u, err := url.Parse("postgres://" + rest)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
		}
		db := strings.TrimPrefix(u.Path, "/")
		if db == "" {
			return Config{}, fmt.Errorf("%w: missing postgres database name", ErrUnsupportedURL)
		}
		return Config{
			Dialect:    DialectPostgres,
			DriverName: "postgres",
			DSN:        u.String(),
			Database:   db,
		}, nil
	}

	return Config{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
}

// InMemory reports whether cfg points at an in-memory sqlite database.
func (c Config) InMemory() bool {
	return c.Dialect == DialectSQLite && c.Path == ":memory:"
}

// MaintenanceDSN returns the DSN of the postgres maintenance database on the
// same server.
func (c Config) MaintenanceDSN() (string, error) {
	if c.Dialect != DialectPostgres {
		return "", fmt.Errorf("sqldb: maintenance database only exists for postgres")
	}
	u, err := url.Parse(c.DSN)
	if err != nil {
		return "", err
	}
	u.Path = "/postgres"
	return u.String(), nil
}

// SQLiteDir returns the parent directory of a file backed sqlite database.
func (c Config) SQLiteDir() string {
	if c.Dialect != DialectSQLite || c.InMemory() {
		return ""
	}
	return filepath.Dir(c.Path)
}

func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	if path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Set("_time_format", "sqlite")
	return "file:" + path + "?" + params.Encode()
}
