package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"climate-server/internal/config"
	"climate-server/internal/db"
	"climate-server/internal/httpapi"
	"climate-server/internal/metrics"
	"climate-server/internal/migrate"
	climate "climate-server/internal/modules/climate"
	"climate-server/internal/modules/climate/repository"
	climateviews "climate-server/internal/modules/climate/views"
)

// Run opens the store read-only, checks it carries the expected schema and
// serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, version string) error {
	logConfig(cfg)

	dbConn, err := openVerified(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(dbConn)

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	metrics.SetAppInfo(version)

	mux := httpapi.NewMux(dbConn)
	climateService := climate.RegisterFeature(mux, dbConn, db.DialectFor(cfg.DBDriver))
	httpapi.RegisterReadiness(mux, climateService)

	srv := httpapi.NewServer(cfg, mux)
	return serve(ctx, srv, cfg)
}

func serve(ctx context.Context, srv *http.Server, cfg config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("http shutting down", "timeout", cfg.ShutdownTimeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// CheckSchema opens the store read-only and verifies the schema the queries
// depend on. It returns the verified schema version.
func CheckSchema(ctx context.Context, cfg config.Config) (int, error) {
	dbConn, err := openVerified(ctx, cfg)
	if err != nil {
		return 0, err
	}
	closeDB(dbConn)
	return repository.Schema.Version, nil
}

// InitDB opens the store writable and applies the embedded migrations.
func InitDB(ctx context.Context, cfg config.Config) ([]string, error) {
	dbConn, err := db.Open(cfg, db.ReadWrite)
	if err != nil {
		return nil, err
	}
	defer closeDB(dbConn)

	applied, err := migrate.Run(ctx, dbConn, db.DialectFor(cfg.DBDriver))
	if err != nil {
		return applied, err
	}
	slog.Info("migrations applied", "store", db.Describe(cfg), "versions", applied)
	return applied, nil
}

func openVerified(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dbConn, err := db.Open(cfg, db.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open %s store %s: %w", cfg.DBDriver, db.Describe(cfg), err)
	}
	if err := repository.Schema.Verify(ctx, dbConn); err != nil {
		closeDB(dbConn)
		return nil, fmt.Errorf("store %s: %w", db.Describe(cfg), err)
	}
	slog.Info("database connection successful",
		"driver", cfg.DBDriver,
		"store", db.Describe(cfg),
		"schemaVersion", repository.Schema.Version,
	)
	return dbConn, nil
}

func closeDB(dbConn *sql.DB) {
	if err := db.Close(dbConn); err != nil {
		slog.Error("db close", "error", err)
	}
}

func logConfig(cfg config.Config) {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"httpReadTimeout", cfg.HTTPReadTimeout,
		"httpWriteTimeout", cfg.HTTPWriteTimeout,
		"shutdownTimeout", cfg.ShutdownTimeout,
		"dbDriver", cfg.DBDriver,
		"dbStore", db.Describe(cfg),
		"dbMaxOpenConns", cfg.DBMaxOpenConns,
		"dbMaxIdleConns", cfg.DBMaxIdleConns,
		"dbConnMaxLifetime", cfg.DBConnMaxLifetime,
		"logSQL", cfg.LogSQL,
	)
}
