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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"strakdash/internal/config"
	"strakdash/internal/dashboard"
	apperrors "strakdash/internal/errors"
	"strakdash/internal/infrastructure"
	customMiddleware "strakdash/internal/middleware"
	"strakdash/internal/services"
	"strakdash/internal/sources"
	handlers "strakdash/internal/transport/http"
	ws "strakdash/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X strakdash/internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	ErrorHandler  *apperrors.ErrorHandler

	Catalog      *sources.Catalog
	Store        *dashboard.Store
	Dashboard    *services.DashboardService
	Health       *services.HealthService
	WebSocketHub *ws.Hub
}

// NewApplication initializes the process logger from cfg.Logging, which
// honours the configured output and log file, and builds the application.
// Datasets are loaded before it returns. Callers close the log file with
// infrastructure.CloseLogFile once the application has stopped.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds the application from an explicit configuration and logger
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices loads the datasets and wires the services around them
func (a *Application) initializeServices(ctx context.Context) error {
	cat, store, err := LoadStore(ctx, a.Config.Data, a.Logger, a.Metrics)
	if err != nil {
		return err
	}
	a.Catalog = cat
	a.Store = store

	a.Dashboard = services.NewDashboardService(store, cat, a.Metrics, a.Logger)

	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	a.Health = services.NewHealthService(config.AppVersion, BuildTime, a.Dashboard, hub, a.Logger)
	return nil
}

// Catalog returns the dataset catalog named by cfg, or the built-in one.
// A configured base URL replaces the catalog's own.
func Catalog(cfg config.DataConfig) (*sources.Catalog, error) {
	cat := sources.DefaultCatalog()
	if cfg.CatalogFile != "" {
		loaded, err := sources.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to load dataset catalog", err)
		}
		cat = loaded
	}
	if cfg.BaseURL != "" {
		cat.BaseURL = cfg.BaseURL
	}
	return cat, nil
}

// LoadStore fetches every catalog dataset and builds the dashboard store.
// Any load failure is returned; there is no partial store.
func LoadStore(ctx context.Context, cfg config.DataConfig, logger *slog.Logger, observer sources.LoadObserver) (*sources.Catalog, *dashboard.Store, error) {
	cat, err := Catalog(cfg)
	if err != nil {
		return nil, nil, err
	}

	loader := sources.NewLoader(sources.Options{
		Timeout:        cfg.FetchTimeout,
		UserAgent:      cfg.UserAgent,
		SheetsAPIKey:   cfg.SheetsAPIKey,
		SheetsEndpoint: cfg.SheetsEndpoint,
	}, logger, observer)

	tables, err := loader.LoadAll(ctx, cat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	store, err := dashboard.NewStore(tables)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return cat, store, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// These don't wrap the ResponseWriter, so the WebSocket upgrade still works
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Dashboard, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.Handle("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				MaxAge:         300,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)

		r.Mount("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler).Routes())
		r.Method(http.MethodGet, "/", handlers.NewIndexHandler(handlers.PageData{
			Title:   "Strak Corporation",
			Version: config.AppVersion,
			WSPath:  "/ws",
		}, a.Logger, a.ErrorHandler))
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.ErrorHandler).Routes())
		r.Mount("/datasets", handlers.NewDatasetHandler(a.Dashboard, a.Logger, a.ErrorHandler).Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start begins serving in the background. A listen failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr),
		slog.Int("datasets", len(a.Store.Names())))
}

// Stop shuts the server, hub and telemetry down
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled or an interrupt arrives
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Start(ctx, cancel)
	<-ctx.Done()

	a.Logger.Info("Received shutdown signal")
	return a.Stop(context.Background())
}
