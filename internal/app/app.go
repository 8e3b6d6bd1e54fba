package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/commlog-server/internal/config"
	"github.com/vovakirdan/commlog-server/internal/service/records"
	"github.com/vovakirdan/commlog-server/internal/store"
	"github.com/vovakirdan/commlog-server/internal/store/postgres"
	"github.com/vovakirdan/commlog-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/commlog-server/internal/transport/http"
)

// App wires together the store, service and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// OpenStore connects to the configured backend and applies the schema.
func OpenStore(ctx context.Context, db config.DatabaseConfig, logger *zerolog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch db.Driver {
	case config.DriverSQLite:
		st, err = sqlite.New(db.Path)
		if err == nil {
			logger.Info().Str("db_path", db.Path).Msg("sqlite store opened")
		}
	case config.DriverPostgres:
		st, err = postgres.New(ctx, db.DSN)
		if err == nil {
			logger.Info().Msg("postgres store connected")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return st, nil
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	svc := records.New(st)
	server, err := transporthttp.NewServer(svc, st, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
