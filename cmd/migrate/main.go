// Command migrate manages the user API schema.
//
//	migrate status
//	migrate apply
//	migrate list
//	migrate create -m "add avatar index"
//	migrate create-db
//	migrate rollback [-r version]
//	migrate setup
//
// DATABASE_URL and MIGRATIONS_DIR are read the same way the API server
// reads them, .env included.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/app"
	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrate"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

// defaultSourceDir is where create writes when MIGRATIONS_DIR is unset, so
// new files land next to the embedded ones.
const defaultSourceDir = "internal/api/store/migrations"

const usage = `usage: migrate <command> [flags]

commands:
  status              show the current version and every migration
  apply               apply all pending migrations
  list                list available migrations
  create -m NAME      create an empty up/down pair
  create-db           create the target database if missing
  rollback [-r VER]   roll back one step, or down to VER (0 = everything)
  setup               create-db followed by apply
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], app.LoadConfig(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

type command struct {
	cfg    app.Config
	db     sqldb.Config
	out    io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, cfg app.Config, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	db, err := cfg.Database()
	if err != nil {
		return err
	}

	c := &command{
		cfg: cfg,
		db:  db,
		out: out,
		logger: slogx.New(slogx.Config{
			Service: "migrate",
			Version: cfg.Version,
			Env:     cfg.Environment,
			Level:   cfg.LogLevel,
			Format:  "text",
			Output:  os.Stderr,
		}),
	}

	name, rest := args[0], args[1:]
	switch name {
	case "status":
		return c.noFlags(ctx, name, rest, c.status)
	case "apply":
		return c.noFlags(ctx, name, rest, c.apply)
	case "list":
		return c.noFlags(ctx, name, rest, c.list)
	case "create-db":
		return c.noFlags(ctx, name, rest, c.createDB)
	case "setup":
		return c.noFlags(ctx, name, rest, func(ctx context.Context) error {
			if err := c.createDB(ctx); err != nil {
				return err
			}
			return c.apply(ctx)
		})
	case "create":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		msg := fs.String("m", "", "migration name")
		if err := fs.Parse(rest); err != nil || fs.NArg() > 0 {
			return fmt.Errorf("%w: create takes only -m", errUsage)
		}
		return c.create(*msg)
	case "rollback":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		target := fs.String("r", "", "target version")
		if err := fs.Parse(rest); err != nil || fs.NArg() > 0 {
			return fmt.Errorf("%w: rollback takes only -r", errUsage)
		}
		return c.rollback(ctx, *target)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *command) noFlags(ctx context.Context, name string, args []string, fn func(context.Context) error) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %s takes no arguments", errUsage, name)
	}
	return fn(ctx)
}

// withRunner opens the database for the duration of fn.
func (c *command) withRunner(ctx context.Context, fn func(*migrate.Runner) error) error {
	st, err := sqldb.Open(ctx, c.db)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := c.runner(st.DB())
	if err != nil {
		return err
	}
	return fn(r)
}

func (c *command) runner(db *sql.DB) (*migrate.Runner, error) {
	return migrate.NewRunner(db, c.db.Dialect,
		migrate.WithDir(c.cfg.MigrationsDir),
		migrate.WithLogger(c.logger),
	)
}

func (c *command) status(ctx context.Context) error {
	return c.withRunner(ctx, func(r *migrate.Runner) error {
		s, err := r.Status(ctx)
		if err != nil {
			return err
		}

		current := "none"
		if s.Version != 0 {
			current = fmt.Sprint(s.Version)
		}
		fmt.Fprintf(c.out, "current: %s", current)
		if s.Dirty {
			fmt.Fprint(c.out, " (dirty)")
		}
		fmt.Fprintln(c.out)

		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, m := range s.Migrations {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, state)
		}
		return tw.Flush()
	})
}

func (c *command) apply(ctx context.Context) error {
	return c.withRunner(ctx, func(r *migrate.Runner) error {
		applied, err := r.Apply(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(c.out, "no pending migrations")
			return nil
		}
		for _, m := range applied {
			fmt.Fprintf(c.out, "applied %d_%s\n", m.Version, m.Name)
		}
		return nil
	})
}

func (c *command) list(ctx context.Context) error {
	// Listing reads only the source, so no connection is needed.
	r, err := c.runner(nil)
	if err != nil {
		return err
	}
	all, err := r.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, m := range all {
		down := "no down"
		if m.HasDown {
			down = "down"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, down)
	}
	return tw.Flush()
}

func (c *command) create(name string) error {
	dir := c.cfg.MigrationsDir
	if dir == "" {
		dir = defaultSourceDir
	}

	up, down, err := migrate.Create(dir, c.db.Dialect, name, time.Now())
	if errors.Is(err, migrate.ErrEmptyName) {
		return fmt.Errorf("%w: create needs -m NAME", errUsage)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "created %s\ncreated %s\n", up, down)
	return nil
}

func (c *command) createDB(ctx context.Context) error {
	created, err := migrate.EnsureDatabase(ctx, c.db)
	if err != nil {
		return err
	}

	target := c.db.Database
	if c.db.Dialect == sqldb.DialectSQLite {
		target = c.db.Path
	}
	if created {
		fmt.Fprintf(c.out, "created database %s\n", target)
	} else {
		fmt.Fprintf(c.out, "database %s already exists\n", target)
	}
	return nil
}

func (c *command) rollback(ctx context.Context, target string) error {
	var (
		version uint64
		err     error
	)
	if target != "" {
		if version, err = strconv.ParseUint(target, 10, 0); err != nil {
			return fmt.Errorf("%w: -r must be a version number", errUsage)
		}
	}

	return c.withRunner(ctx, func(r *migrate.Runner) error {
		var reverted []migrate.Migration
		if target == "" {
			reverted, err = r.RollbackStep(ctx)
		} else {
			reverted, err = r.RollbackTo(ctx, uint(version))
		}
		if err != nil {
			return err
		}

		if len(reverted) == 0 {
			fmt.Fprintln(c.out, "nothing to roll back")
			return nil
		}
		for _, m := range reverted {
			fmt.Fprintf(c.out, "reverted %d_%s\n", m.Version, m.Name)
		}
		return nil
	})
}
