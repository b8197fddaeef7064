package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vahan-dashboard/internal/config"
)

// GracefulServer runs an http.Server until SIGINT/SIGTERM, then drains it
// and runs the registered shutdown hooks within the configured timeout.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	cfg    *config.Config
	hooks  []func(ctx context.Context) error
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg *config.Config) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		cfg:    cfg,
	}
}

// RegisterShutdownHook adds a hook run during shutdown, in registration
// order. Register hooks before calling ListenAndServe.
func (gs *GracefulServer) RegisterShutdownHook(fn func(ctx context.Context) error) {
	gs.hooks = append(gs.hooks, fn)
}

func (gs *GracefulServer) ListenAndServe() error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.cfg.Server.ReadTimeout,
			"write_timeout", gs.cfg.Server.WriteTimeout,
		)
		serverErrors <- gs.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case sig := <-shutdown:
		gs.logger.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), gs.cfg.Server.ShutdownTimeout)
		defer cancel()

		return gs.drain(ctx)
	}
}

func (gs *GracefulServer) drain(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.cfg.Server.ShutdownTimeout)

	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	var firstErr error
	for i, hook := range gs.hooks {
		if err := hook(ctx); err != nil {
			gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown hook %d failed: %w", i, err)
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}

	gs.logger.Info("graceful shutdown completed")
	return nil
}
