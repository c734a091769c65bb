package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/arkiv-labs/dossier/backend/internal/server/middleware"
	"github.com/arkiv-labs/dossier/backend/internal/util"
	"github.com/arkiv-labs/dossier/backend/pkg/engine"
	"github.com/arkiv-labs/dossier/backend/pkg/leaselock"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	pgxstore "github.com/arkiv-labs/dossier/backend/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	runMigrations(databaseURL)

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	err = util.RetryErrWithContext(ctx, 5, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return conn.Ping(pingCtx)
	})
	if err != nil {
		logger.Fatal("Database unreachable", "err", err)
	}

	locker := leaselock.New(conn, leaselock.Options{
		TTL:  time.Duration(util.GetEnvNumeric("MERGE_LOCK_TTL_SECONDS", 120)) * time.Second,
		Wait: true,
	})

	eng, err := engine.New(engine.Params{
		Store:           pgxstore.NewPersonDBStorage(conn),
		Locker:          locker,
		MaxNetworkDepth: int(util.GetEnvNumeric("MAX_NETWORK_DEPTH", 4)),
		MaxPathDepth:    int(util.GetEnvNumeric("MAX_PATH_DEPTH", 6)),
		ParallelFetches: int(util.GetEnvNumeric("PARALLEL_FETCHES", 8)),
	})
	if err != nil {
		logger.Fatal("Failed to create graph engine", "err", err)
	}

	app := &mid.App{
		DBConn: conn,
		Engine: eng,
		APIKey: util.GetEnv("API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func runMigrations(databaseURL string) {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		logger.Fatal("Failed to open migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}
