// Package app initializes and runs the authentication server: it selects
// the storage backend, wires the facade, and serves the HTTP API with
// graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wisespend/authcore/internal/auth"
	"github.com/wisespend/authcore/internal/config"
	"github.com/wisespend/authcore/internal/httpapi"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	store  kvstore.Store
	svc    *auth.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	svc := auth.NewService(store, cfg, logger)

	return &App{config: cfg, logger: logger, store: store, svc: svc}, nil
}

func openStore(cfg *config.Config) (kvstore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kvstore.NewMemoryStore(), nil
	case config.BackendSQLite:
		return kvstore.NewSQLiteStore(cfg.SQLitePath)
	case config.BackendPostgres:
		return kvstore.NewPostgresStore(context.Background(), cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.HTTPAddr, "backend", app.config.StoreBackend)

	app.initSignalHandler(cancelFunc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.NewHandler(app.svc).RegisterRoutes(router)

	srv := &http.Server{Addr: app.config.HTTPAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	if err := app.store.Close(); err != nil {
		return fmt.Errorf("store close error: %w", err)
	}
	return nil
}
