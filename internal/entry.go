// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/assist"
	"github.com/starford/laguz/internal/mcpserver"
	"github.com/starford/laguz/internal/metadata"
	"github.com/starford/laguz/internal/schema"
	"github.com/starford/laguz/internal/session"
	"github.com/starford/laguz/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("documents_path", cfg.Documents.Path),
		slog.Bool("assist_enabled", cfg.Assist.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	reg := schema.Default()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Document sessions over the documents directory.
	sessions, err := session.NewManager(cfg.Documents.Path, reg, broker, logger)
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}
	if cfg.Editor.HistoryDepth > 0 {
		sessions.SetHistoryDepth(cfg.Editor.HistoryDepth)
	}

	// Link card metadata resolver. A configured remote source is consulted
	// before the built-in page scraper.
	var metaOpts []metadata.ServiceOption
	if cfg.Metadata.CacheTTL > 0 {
		metaOpts = append(metaOpts, metadata.WithCacheTTL(cfg.Metadata.CacheTTL))
	}
	if cfg.Metadata.Timeout > 0 {
		metaOpts = append(metaOpts, metadata.WithHTTPClient(&http.Client{Timeout: cfg.Metadata.Timeout}))
	}
	var metaSource metadata.Source = metadata.NewService(logger, metaOpts...)
	if cfg.Metadata.SourceURL != "" {
		metaSource = metadata.Chain{
			metadata.NewHTTPSource(cfg.Metadata.SourceURL),
			metaSource,
		}
	}

	// AI generation backend, if configured.
	var assister *assist.Client
	if cfg.Assist.Enabled() {
		assistOpts := []assist.ClientOption{assist.WithToken(cfg.Assist.Token)}
		if cfg.Assist.Timeout > 0 {
			assistOpts = append(assistOpts, assist.WithHTTPClient(&http.Client{Timeout: cfg.Assist.Timeout}))
		}
		assister = assist.NewClient(cfg.Assist.Endpoint, assistOpts...)
	}

	// Build API service.
	svc := api.NewService(reg, metaSource, assister, logger)

	// MCP mode: serve tools over stdio instead of HTTP.
	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(reg, sessions, metaSource).ServeStdio()
	}

	apiRouter := api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the documents directory for external edits.
	g.Go(func() error {
		return sessions.Watch(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
