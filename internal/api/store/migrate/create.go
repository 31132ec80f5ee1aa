package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"

	"github.com/lib/pq"
)

// VersionFormat is the layout of migration versions (UTC).
const VersionFormat = "20060102150405"

var (
	ErrEmptyName = errors.New("migrate: migration name is empty")

	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeName lowercases name and collapses runs of other characters
// into a single underscore.
func SanitizeName(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// Create writes an empty up/down pair for name into dir/<dialect> and
// returns both paths.
func Create(dir string, dialect sqldb.Dialect, name string, now time.Time) (up, down string, err error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", "", ErrEmptyName
	}

	target := filepath.Join(dir, string(dialect))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", "", err
	}

	base := filepath.Join(target, now.UTC().Format(VersionFormat)+"_"+clean)
	up, down = base+".up.sql", base+".down.sql"

	if err := writeNew(up, "-- "+name+" (up)\n"); err != nil {
		return "", "", err
	}
	if err := writeNew(down, "-- "+name+" (down)\n"); err != nil {
		_ = os.Remove(up)
		return "", "", err
	}
	return up, down, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EnsureDatabase creates the database cfg points at when it does not exist
// and reports whether it did. For sqlite this means the parent directory and
// an empty file. For postgres the server's maintenance database is used to
// issue CREATE DATABASE.
func EnsureDatabase(ctx context.Context, cfg sqldb.Config) (bool, error) {
	switch cfg.Dialect {
	case sqldb.DialectSQLite:
		if cfg.InMemory() {
			return false, nil
		}
		if err := os.MkdirAll(cfg.SQLiteDir(), 0o755); err != nil {
			return false, err
		}
		f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, f.Close()

	case sqldb.DialectPostgres:
		dsn, err := cfg.MaintenanceDSN()
		if err != nil {
			return false, err
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return false, err
		}
		defer db.Close()

		var exists bool
		err = db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.Database,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("check database: %w", err)
		}
		if exists {
			return false, nil
		}

		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Database)); err != nil {
			return false, fmt.Errorf("create database: %w", err)
		}
		return true, nil
	}

	return false, fmt.Errorf("migrate: unsupported dialect %q", cfg.Dialect)
}
