package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/userapi/internal/api/http"
	"github.com/aussiebroadwan/userapi/internal/api/service"
	"github.com/aussiebroadwan/userapi/internal/api/store/drivers/sqldb"
	"github.com/aussiebroadwan/userapi/internal/api/store/migrate"
	"github.com/aussiebroadwan/userapi/pkg/cryptox"
	"github.com/aussiebroadwan/userapi/pkg/jwtx"
	"github.com/aussiebroadwan/userapi/pkg/slogx"
)

// Application wires the user API together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	logFile           *os.File
	shutdownTelemetry func(context.Context) error

	db *sqldb.Store

	userService         *service.UserService
	tokenService        *service.TokenService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg, opens the database (migrating it when AutoMigrate is
// set) and builds the HTTP server. Nothing listens until Run.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{cfg: cfg}
	if err := app.initLogger(); err != nil {
		return nil, err
	}

	shutdown, err := SetupTelemetry(ctx, TelemetryConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPHeaders:    cfg.OTLPHeaders,
		ConsoleSpans:   cfg.ConsoleSpans,
	}, app.logger)
	if err != nil {
		app.closeLog()
		return nil, err
	}
	app.shutdownTelemetry = shutdown

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		app.release()
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		app.release()
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		app.release()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Logger is the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("user api starting",
		"addr", app.server.Addr,
		"version", app.cfg.Version,
		"environment", app.cfg.Environment,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.release()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down user api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	var err error
	if app.db != nil {
		err = app.db.Close()
		app.db = nil
	}
	if err != nil {
		app.logger.Error("error closing database", "error", err)
	} else {
		app.logger.Info("user api stopped")
	}

	app.release()
	return err
}

func (app *Application) initLogger() error {
	var out io.Writer = os.Stdout
	if app.cfg.LogFile != "" {
		f, err := os.OpenFile(app.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logFile = f
		out = io.MultiWriter(os.Stdout, f)
	}

	app.logger = slogx.New(slogx.Config{
		Service: app.cfg.ServiceName,
		Version: app.cfg.Version,
		Env:     app.cfg.Environment,
		Level:   app.cfg.LogLevel,
		Format:  app.cfg.LogFormat,
		Output:  out,
	})
	return nil
}

// initDatabase opens the database and applies pending migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	dbCfg, err := app.cfg.Database()
	if err != nil {
		return err
	}

	// A fresh sqlite file needs its directory before the driver can open it.
	if dbCfg.Dialect == sqldb.DialectSQLite {
		if _, err := migrate.EnsureDatabase(ctx, dbCfg); err != nil {
			return fmt.Errorf("prepare sqlite database: %w", err)
		}
	}

	db, err := sqldb.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db
	app.logger.Info("database connected", "dialect", dbCfg.Dialect)

	if !app.cfg.AutoMigrate {
		return nil
	}

	runner, err := migrate.NewRunner(db.DB(), db.Dialect(),
		migrate.WithDir(app.cfg.MigrationsDir),
		migrate.WithLogger(app.logger),
	)
	if err != nil {
		return err
	}
	applied, err := runner.Apply(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied", "count", len(applied))
	return nil
}

// initServices builds the services and seeds the first superuser.
func (app *Application) initServices(ctx context.Context) error {
	signer, err := jwtx.NewHMAC(app.cfg.Algorithm, []byte(app.cfg.SecretKey), jwtx.VerifyOptions{
		Issuer: app.cfg.Issuer,
		Leeway: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("jwt signer: %w", err)
	}

	app.userService = &service.UserService{Store: app.db, MaxPerPage: app.cfg.MaxItemsPerPage}
	app.tokenService = &service.TokenService{
		Users:      app.userService,
		Store:      app.db,
		Signer:     signer,
		Verifier:   signer,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenExpire,
		RefreshTTL: app.cfg.RefreshTokenExpire,
	}
	app.bootstrapService = &service.BootstrapService{Users: app.userService}

	created, u, err := app.bootstrapService.EnsureFirstSuperuser(ctx, app.cfg.FirstSuperuser)
	if err != nil {
		return fmt.Errorf("first superuser: %w", err)
	}
	if created {
		app.logger.Info("first superuser created", "user_id", u.ID, "username", u.Username)
	}

	app.housekeepingService, err = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingSchedule)
	return err
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.Config{
		ProjectName:    app.cfg.ProjectName,
		Version:        app.cfg.Version,
		Environment:    app.cfg.Environment,
		Prefix:         app.cfg.Prefix,
		ItemsPerPage:   app.cfg.ItemsPerPage,
		AllowedOrigins: app.cfg.AllowedHosts,
		EnableDocs:     !app.cfg.IsProduction(),
		StrictLimit:    app.cfg.StrictLimit,
		ModerateLimit:  app.cfg.ModerateLimit,
	}, app.tokenService, app.db, app.logger)

	router.UserService = app.userService
	router.TokenService = app.tokenService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// release frees what New acquired. It is safe to call more than once.
func (app *Application) release() {
	if app.db != nil {
		_ = app.db.Close()
		app.db = nil
	}
	if app.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.shutdownTelemetry(ctx); err != nil {
			app.logger.Warn("telemetry shutdown", "error", err)
		}
		cancel()
		app.shutdownTelemetry = nil
	}
	app.closeLog()
}

func (app *Application) closeLog() {
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

// Close releases resources without serving. Used when New succeeded but
// Run is never called.
func (app *Application) Close() error {
	app.release()
	return nil
}
