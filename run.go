package relay

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/server"
)

// Run runs the startup hooks, serves on addr until ctx is cancelled and then
// runs the shutdown hooks. An empty addr uses the configured server address.
// The server never starts when a startup hook fails.
func (a *App) Run(ctx context.Context, addr string, opts ...server.Option) error {
	cfg := a.config.Server
	if addr != "" {
		cfg.Addr = addr
	}
	srv, err := server.NewFromConfig(cfg, append([]server.Option{server.WithLogger(a.logger)}, opts...)...)
	if err != nil {
		return err
	}
	return a.RunServer(ctx, srv)
}

// RunServer is Run with a prepared server.
func (a *App) RunServer(ctx context.Context, srv *server.Server) error {
	if err := a.Startup(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(gctx, a))
	serveErr := g.Wait()

	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	shutdownErr := a.Shutdown(shutdownCtx)
	a.logger.InfoContext(ctx, "application stopped",
		logger.Component("app"),
		logger.Elapsed(start),
		logger.Error(shutdownErr),
	)
	return errors.Join(serveErr, shutdownErr)
}
