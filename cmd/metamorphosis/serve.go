package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"metamorphosis/internal/handlers"
	"metamorphosis/internal/metrics"
	"metamorphosis/internal/middleware"
	"metamorphosis/internal/startup"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectInterval   = time.Minute
	readHeaderTimeout = 10 * time.Second
)

func runServe(ctx context.Context, args []string, _, stderr io.Writer) int {
	flags := newFlagSet("serve", stderr)
	cfg, code := loadConfig(flags, args, stderr)
	if cfg == nil {
		return code
	}

	startTime := time.Now()
	startup.PrintBanner()
	startup.LogConfig(cfg)

	env, err := setup(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	defer env.close()
	startup.LogToolReport(env.tools)

	if err := serve(ctx, env, startTime); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, env *environment, startTime time.Time) error {
	var history handlers.History
	var stats metrics.StatsProvider
	if env.history != nil {
		history = env.history
		stats = env.history
	}

	h := handlers.New(env.router, history, env.batchOptions(), env.tools)
	router := h.Router(middleware.DefaultLoggingConfig())
	startup.LogHTTPRoutes(router)

	collector := metrics.NewCollector(stats, env.transcoder, collectInterval)
	collector.Start()
	defer collector.Stop()

	server := &http.Server{
		Addr:              env.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	startup.LogServerStarted(env.cfg.Listen, time.Since(startTime))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	reason := "shutdown"
	if cause := context.Cause(ctx); cause != nil {
		reason = cause.Error()
	}
	startup.LogShutdownInitiated(reason)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	startup.LogShutdownStepComplete("HTTP server stopped")
	return nil
}
