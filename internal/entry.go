// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/brymcon/mindlink/internal/api"
	"github.com/brymcon/mindlink/internal/linker"
	"github.com/brymcon/mindlink/internal/mcpserver"
	"github.com/brymcon/mindlink/internal/oracle"
	"github.com/brymcon/mindlink/internal/storage"
	"github.com/brymcon/mindlink/internal/updater"
	"github.com/brymcon/mindlink/internal/watcher"
)

// Version is reported by the MCP server and the CLI.
const Version = "0.1.0"

// setup applies opts and opens the vault.
func setup(opts []Option, defaultOut io.Writer) (*application, *slog.Logger, *storage.FS, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = defaultOut
	}
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.Any("extensions", cfg.Vault.Extensions),
		slog.Bool("dry_run", cfg.DryRun),
		slog.String("oracle", cfg.Oracle.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	info, err := os.Stat(cfg.Vault.Path)
	if err != nil || !info.IsDir() {
		return nil, nil, nil, fmt.Errorf("vault path %q not found or is not a directory", cfg.Vault.Path)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return app, logger, store, nil
}

// Run performs one link pass over the vault: every note gets its tags merged
// with the oracle's suggestions and its related-notes region refreshed.
func Run(ctx context.Context, opts ...Option) (*linker.Summary, error) {
	app, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return nil, err
	}
	cfg := app.config

	gen := app.generator
	if !app.customGen {
		if gen, err = oracle.NewGenerator(cfg.Oracle.Backend()); err != nil {
			return nil, fmt.Errorf("init oracle: %w", err)
		}
	}
	var o linker.Oracle
	if gen != nil {
		o = oracle.NewClient(gen, cfg.Oracle.ExcerptChars)
	} else {
		logger.Warn("no oracle configured: existing tags are kept, no suggestions")
	}

	if cfg.DryRun {
		logger.Warn("dry run mode enabled: no files will be written")
	}

	u := updater.New(store, updater.WithDryRun(cfg.DryRun), updater.WithLogger(logger))
	l := linker.New(store, cfg.Vault.Extensions, cfg.Linking.Options(), o, u, logger)

	start := time.Now()
	sum, err := l.Run(ctx)
	if sum != nil {
		logger.Info("Link pass complete",
			slog.Int("files", sum.Load.Files),
			slog.Int("notes", sum.Load.Parsed),
			slog.Int("skipped_files", sum.Load.Skipped()),
			slog.Int("degraded", sum.Load.Degraded),
			slog.Int("connected", sum.Connected),
			slog.Int("updated", sum.Updated),
			slog.Int("unchanged", sum.Unchanged),
			slog.Int("planned", sum.Planned),
			slog.Int("failed", sum.Failed),
			slog.Int("oracle_failures", sum.OracleFailures),
			slog.Duration("elapsed", time.Since(start)))
	}
	if err != nil {
		logger.Error("Link pass stopped", slog.String("error", err.Error()))
		return sum, err
	}
	return sum, nil
}

// newRouter builds the serve-mode HTTP handler.
func newRouter(cfg *Config, holder *linker.Holder) http.Handler {
	svc := api.NewService(holder)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)
	return r
}

// rebuildOnChange returns a watcher callback that refreshes holder.
func rebuildOnChange(holder *linker.Holder, logger *slog.Logger) watcher.ChangeFunc {
	return func(paths []string) {
		snap, err := holder.Rebuild()
		if err != nil {
			logger.Error("snapshot rebuild failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("snapshot rebuilt",
			slog.Int("changed", len(paths)),
			slog.Int("notes", len(snap.Notes())))
	}
}

// Serve runs the read-only HTTP API over a live snapshot of the vault.
func Serve(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	holder := linker.NewHolder(store, cfg.Vault.Extensions, cfg.Linking.Options(), logger)
	if _, err := holder.Rebuild(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           newRouter(cfg, holder),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Refresh the snapshot when notes change.
	g.Go(func() error {
		return watcher.Watch(gCtx, store.Root(), cfg.Vault.Extensions, cfg.Watch.Debounce, logger, rebuildOnChange(holder, logger))
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP serves the vault's relationships to MCP clients over stdio. Logs go
// to stderr since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config

	holder := linker.NewHolder(store, cfg.Vault.Extensions, cfg.Linking.Options(), logger)
	if _, err := holder.Rebuild(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	srv := mcpserver.New(holder, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gCtx, store.Root(), cfg.Vault.Extensions, cfg.Watch.Debounce, logger, rebuildOnChange(holder, logger))
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server listening on stdio")
		return srv.ServeStdio()
	})

	if err := g.Wait(); err != nil {
		logger.Error("MCP server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
