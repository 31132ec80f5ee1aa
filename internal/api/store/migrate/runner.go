// Package migrate manages the schema with golang-migrate. Migrations are
// read from the embedded set of the active dialect unless a directory on
// disk is given.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrations"

	gomigrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var (
	ErrNoneApplied   = errors.New("migrate: no migrations applied")
	ErrNotApplied    = errors.New("migrate: revision is not applied")
	ErrUnknownTarget = errors.New("migrate: unknown revision")
)

// Migration is one up/down pair of the source.
type Migration struct {
	Version uint
	Name    string
	HasDown bool
	Applied bool
}

// Status is the database version plus every known migration.
type Status struct {
	Version    uint // 0 when nothing is applied
	Dirty      bool
	Migrations []Migration
}

// Runner runs migrations against an open database. It never closes the
// database it was given.
type Runner struct {
	db      *sql.DB
	dialect sqldb.Dialect
	fsys    fs.FS
	log     *slog.Logger
}

type Option func(*Runner) error

// WithDir reads migrations from dir/<dialect> instead of the embedded set.
func WithDir(dir string) Option {
	return func(r *Runner) error {
		if dir == "" {
			return nil
		}
		path := filepath.Join(dir, string(r.dialect))
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("migrations dir: %w", err)
		}
		r.fsys = os.DirFS(path)
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) error {
		if l != nil {
			r.log = l
		}
		return nil
	}
}

func NewRunner(db *sql.DB, dialect sqldb.Dialect, opts ...Option) (*Runner, error) {
	r := &Runner{db: db, dialect: dialect, log: slog.Default()}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.fsys == nil {
		fsys, err := migrations.FS(string(dialect))
		if err != nil {
			return nil, fmt.Errorf("embedded migrations for %q: %w", dialect, err)
		}
		r.fsys = fsys
	}
	return r, nil
}

// List returns the migrations of the source in version order. Applied is
// not filled in.
func (r *Runner) List(ctx context.Context) ([]Migration, error) {
	src, err := iofs.New(r.fsys, ".")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return listSource(src)
}

// Status reports the current version and which migrations are applied.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	m, done, err := r.open(ctx)
	if err != nil {
		return Status{}, err
	}
	defer done()

	version, dirty, err := currentVersion(m)
	if err != nil {
		return Status{}, err
	}

	all, err := r.List(ctx)
	if err != nil {
		return Status{}, err
	}
	for i := range all {
		all[i].Applied = version != 0 && all[i].Version <= version
	}

	return Status{Version: version, Dirty: dirty, Migrations: all}, nil
}

// Apply runs every pending up migration and returns the ones applied.
// Being up to date is not an error.
func (r *Runner) Apply(ctx context.Context) ([]Migration, error) {
	return r.run(ctx, "apply", func(m *gomigrate.Migrate, _ uint) error {
		return m.Up()
	})
}

// RollbackStep reverts the most recently applied migration.
func (r *Runner) RollbackStep(ctx context.Context) ([]Migration, error) {
	return r.run(ctx, "rollback", func(m *gomigrate.Migrate, current uint) error {
		if current == 0 {
			return ErrNoneApplied
		}
		return m.Steps(-1)
	})
}

// RollbackTo reverts migrations until target is the last one applied.
// A target of 0 reverts everything.
func (r *Runner) RollbackTo(ctx context.Context, target uint) ([]Migration, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if target != 0 && !containsVersion(all, target) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTarget, target)
	}

	return r.run(ctx, "rollback", func(m *gomigrate.Migrate, current uint) error {
		switch {
		case current == 0:
			return ErrNoneApplied
		case target > current:
			return fmt.Errorf("%w: %d (current %d)", ErrNotApplied, target, current)
		case target == 0:
			return m.Down()
		default:
			return m.Migrate(target)
		}
	})
}

// run executes fn and returns the migrations whose state it changed.
func (r *Runner) run(ctx context.Context, op string, fn func(*gomigrate.Migrate, uint) error) ([]Migration, error) {
	m, done, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	before, _, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-stop:
		}
	}()

	err = fn(m, before)
	if err != nil && !errors.Is(err, gomigrate.ErrNoChange) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	after, _, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	lo, hi := before, after
	if lo > hi {
		lo, hi = hi, lo
	}
	var changed []Migration
	for _, mig := range all {
		if mig.Version > lo && mig.Version <= hi {
			mig.Applied = after >= mig.Version
			changed = append(changed, mig)
		}
	}

	r.log.InfoContext(ctx, "migrations "+op,
		slog.String("dialect", string(r.dialect)),
		slog.Uint64("from", uint64(before)),
		slog.Uint64("to", uint64(after)),
		slog.Int("changed", len(changed)),
	)
	return changed, nil
}

// open builds a golang-migrate instance over r.db. The returned func
// releases the source and any dedicated connection, leaving r.db open.
func (r *Runner) open(ctx context.Context) (*gomigrate.Migrate, func(), error) {
	src, err := iofs.New(r.fsys, ".")
	if err != nil {
		return nil, nil, err
	}

	var (
		drv     database.Driver
		release = func() {}
	)
	switch r.dialect {
	case sqldb.DialectSQLite:
		// The sqlite driver's Close would close r.db, so it is never called.
		drv, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	case sqldb.DialectPostgres:
		var conn *sql.Conn
		conn, err = r.db.Conn(ctx)
		if err != nil {
			break
		}
		drv, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			break
		}
		release = func() { _ = drv.Close() }
	default:
		err = fmt.Errorf("migrate: unsupported dialect %q", r.dialect)
	}
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	m, err := gomigrate.NewWithInstance("iofs", src, string(r.dialect), drv)
	if err != nil {
		release()
		_ = src.Close()
		return nil, nil, err
	}
	m.Log = migrateLogger{log: r.log}

	return m, func() {
		release()
		_ = src.Close()
	}, nil
}

func currentVersion(m *gomigrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, gomigrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func listSource(src source.Driver) ([]Migration, error) {
	var out []Migration

	v, err := src.First()
	for err == nil {
		mig := Migration{Version: v}

		up, name, rerr := src.ReadUp(v)
		if rerr != nil {
			return nil, rerr
		}
		_ = up.Close()
		mig.Name = name

		if down, _, derr := src.ReadDown(v); derr == nil {
			_ = down.Close()
			mig.HasDown = true
		}

		out = append(out, mig)
		v, err = src.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

func containsVersion(all []Migration, v uint) bool {
	for _, m := range all {
		if m.Version == v {
			return true
		}
	}
	return false
}

type migrateLogger struct {
	log *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }
