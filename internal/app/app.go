package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"labordash/internal/config"
	"labordash/internal/dashboard"
	apierrors "labordash/internal/errors"
	"labordash/internal/forecast"
	"labordash/internal/infrastructure"
	"labordash/internal/ingest"
	customMiddleware "labordash/internal/middleware"
	"labordash/internal/services"
	"labordash/internal/store"
	handlers "labordash/internal/transport/http"
	ws "labordash/internal/websocket"
	"labordash/pkg/contracts"
	"labordash/web"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Store         *store.Store
	WebSocketHub  *ws.Hub
	Dashboard     *services.DashboardService
	Health        *services.HealthService
}

// NewApplication wires every component from cfg. Nothing is started and no
// data is read until Start.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	logger.Info("Application paths",
		slog.String("base_dir", paths.BaseDir),
		slog.String("data_dir", paths.DataDir),
		slog.String("logs_dir", paths.LogsDir))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices builds the analytical pipeline: loader and store feed
// the dashboard service, which publishes reloads through the hub
func (a *Application) initializeServices() {
	a.Store = store.New(a.Logger, a.Metrics)
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)

	a.Dashboard = services.NewDashboardService(
		a.Store,
		ingest.NewLoader(a.Config.Loader, a.Logger, a.Metrics),
		dashboard.New(a.Config.Dashboard, a.Logger),
		forecast.New(a.Config.Forecast, a.Logger, a.Metrics),
		a.WebSocketHub,
		a.Config,
		a.Logger,
	)

	a.Health = services.NewHealthService(
		a.Paths.DataDir,
		a.Store,
		a.WebSocketHub,
		a.Config.Credentials.Configured(),
		a.Logger,
	)
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID, RealIP, OTel, Logger, Recoverer, then per-group timeouts.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// WebSocket upgrades skip the header and rate-limit layers
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, a.Config, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	index, err := handlers.NewIndexHandler(web.Assets, web.IndexFile, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load dashboard page: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		r.Method(http.MethodGet, "/", index)
		a.setupAPIRoutes(r)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		// The dashboard routes include reload, which reads every file again,
		// so the group is bounded by the reload timeout rather than WriteTimeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReloadTimeout))
			r.Use(customMiddleware.WriteDeadline(a.Config.Server.ReloadTimeout + 5*time.Second))
			r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.ErrorHandler).Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout))
			r.Use(customMiddleware.ContentTypeValidator("application/json"))
			r.Post("/logs", handlers.NewClientLogHandler(a.Logger, a.ErrorHandler).Handle)
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub, performs the initial dataset load and begins
// serving. A failed initial load is logged; the server still starts with an
// empty store and readiness stays false until a reload succeeds.
func (a *Application) Start(ctx context.Context) (<-chan error, error) {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetVersionString()),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	loadCtx := infrastructure.EnsureTraceID(ctx)
	resp, err := a.Dashboard.Reload(loadCtx)
	if err != nil {
		a.Logger.WarnContext(loadCtx, "Initial dataset load failed",
			slog.String("data_dir", a.Paths.DataDir),
			slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(loadCtx, "Initial dataset loaded",
			slog.Int("observations", resp.Observations),
			slog.Int("files", len(resp.Files)),
			slog.String("duration", resp.Duration))
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			serveErr <- err
		}
		close(serveErr)
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("url", fmt.Sprintf("http://%s", a.Server.Addr)))
	return serveErr, nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr, err := a.Start(ctx)
	if err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case err, ok := <-serveErr:
		if ok {
			runErr = err
		}
	}

	// ctx is already cancelled here
	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
