// Package app wires configuration, logging, metrics, services and HTTP
// transport into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"bnbpulse/internal/config"
	apperrors "bnbpulse/internal/errors"
	"bnbpulse/internal/infrastructure"
	custommw "bnbpulse/internal/middleware"
	"bnbpulse/internal/services"
	handlers "bnbpulse/internal/transport/http"
)

const (
	Version = "1.2.0"
	AppName = "bnbpulse"
)

// Application represents the main application container
type Application struct {
	Config   *config.Config
	Paths    *config.Paths
	Logger   *slog.Logger
	Metrics  *infrastructure.Metrics
	Router   *chi.Mux
	Server   *http.Server
	Analysis *services.AnalysisService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	metrics := infrastructure.NewMetrics()
	analysisService := services.NewAnalysisService(cfg, paths, logger, metrics)

	app := &Application{
		Config:   cfg,
		Paths:    paths,
		Logger:   logger,
		Metrics:  metrics,
		Analysis: analysisService,
	}

	app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	errorHandler := apperrors.NewErrorHandler(a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(a.Analysis, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.Analysis, a.Logger)

	r.Group(func(r chi.Router) {
		r.Use(custommw.Metrics(a.Metrics))
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Mount("/health", healthHandler.Routes())
			r.Mount("/", analysisHandler.Routes())
		})
	})

	// Outside the middleware group so scrapes skip logging and rate limits
	r.Handle("/metrics", a.Metrics.Handler())

	a.Router = r
}

// LoadDataset loads and prepares the configured dataset. A failure leaves
// the service running in a degraded state where /api/health reports the
// missing dataset and analysis endpoints return errors.
func (a *Application) LoadDataset(ctx context.Context) error {
	return a.Analysis.Load(ctx)
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. Shutdown is graceful within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	start := time.Now()

	if err := a.LoadDataset(ctx); err != nil {
		a.Logger.Error("dataset load failed, serving degraded",
			slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("HTTP server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	if closeErr := infrastructure.CloseLogFile(); closeErr != nil {
		a.Logger.Error("failed to close log file",
			slog.String("error", closeErr.Error()))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.Logger.Info("application stopped", slog.Duration("uptime", time.Since(start)))
	return nil
}
