package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kirotools/admin-console/internal/admin"
	"github.com/kirotools/admin-console/internal/adminui"
	"github.com/kirotools/admin-console/internal/api"
	"github.com/kirotools/admin-console/internal/config"
	"github.com/kirotools/admin-console/internal/credentials"
	"github.com/kirotools/admin-console/internal/metrics"
	"github.com/kirotools/admin-console/internal/runtimeconfig"
	"github.com/kirotools/admin-console/internal/upstream"
	"github.com/kirotools/admin-console/webui"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	pool    *credentials.Pool
	service *admin.Service
	handler *api.Handler
	router  http.Handler
	metrics *metrics.Metrics
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	creds := credentials.DefaultCredentials()
	if cfg.CredentialsFile != "" {
		loaded, err := credentials.LoadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		creds = loaded
	}

	pool, err := credentials.NewPool(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise credential pool: %w", err)
	}

	var fetcher upstream.Fetcher = unconfiguredFetcher{}
	if cfg.UsageEndpoint != "" {
		fetcher = upstream.NewClient(cfg.UsageEndpoint)
	}

	// The host populates the process-wide slot before any reader runs.
	runtime := runtimeconfig.Config{BasePath: cfg.BasePath}
	runtimeconfig.Set(runtime)

	service := admin.NewService(pool, fetcher)
	handler := api.NewHandler(service)
	m := metrics.New()
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(m),
	)

	uiAssets, err := fs.Sub(webui.Dist(), "dist")
	if err != nil {
		return nil, fmt.Errorf("failed to open UI bundle: %w", err)
	}
	uiHandler := adminui.New(uiAssets, runtime)

	rootHandler := BuildRootHandler(apiRouter, uiHandler, m.Handler(), cfg.BasePath)
	server := NewServer(cfg, rootHandler)

	return &App{
		pool:    pool,
		service: service,
		handler: handler,
		router:  apiRouter,
		metrics: m,
		logger:  logger,
		server:  server,
	}, nil
}

// BuildRootHandler mounts the admin API and UI under the base path and the
// metrics endpoint at the server root. An empty base path mounts everything
// at the root.
func BuildRootHandler(apiHandler, uiHandler, metricsHandler http.Handler, basePath string) http.Handler {
	inner := http.NewServeMux()
	inner.Handle("/api/", apiHandler)
	inner.Handle("/", uiHandler)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	if basePath == "" {
		mux.Handle("/", inner)
		return mux
	}

	mux.Handle(basePath+"/", http.StripPrefix(basePath, inner))
	mux.HandleFunc(basePath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
	})
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// unconfiguredFetcher stands in when no usage endpoint is configured.
type unconfiguredFetcher struct{}

func (unconfiguredFetcher) UsageLimits(context.Context, int) (upstream.Limits, error) {
	return upstream.Limits{}, fmt.Errorf("%w: usage endpoint not configured", upstream.ErrUnavailable)
}
