package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ninetyone/TodoApp/internal/cache"
	"github.com/ninetyone/TodoApp/internal/metrics"
	"github.com/ninetyone/TodoApp/internal/middleware"
	"github.com/ninetyone/TodoApp/internal/service"
)

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Logger      *slog.Logger
	Credentials *service.CredentialService
	Todos       *service.TodoService
	Metrics     metrics.Recorder

	// Store and Cache back the readiness probe. Cache may be nil.
	Store HealthChecker
	Cache HealthChecker

	// Limiter throttles the credential endpoints. Nil disables throttling.
	Limiter          cache.Limiter
	RateLimitEnabled bool

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool

	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	IsDevelopment      bool
	MetricsEnabled     bool
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	h := New(logger)
	healthHandler := NewHealthHandler(cfg.Store, cfg.Cache)
	userHandler := NewUserHandler(cfg.Credentials, logger)
	todoHandler := NewTodoHandler(cfg.Todos, logger)

	var snapshotter metrics.Snapshotter
	if cfg.MetricsEnabled {
		snapshotter, _ = recorder.(metrics.Snapshotter)
	}
	metricsHandler := NewMetricsHandler(snapshotter)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Logger:      logger,
		Credentials: cfg.Credentials,
		Metrics:     recorder,
	})
	throttle := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: cfg.Limiter,
		Enabled: cfg.RateLimitEnabled,
	})

	r.Route("/user", func(r chi.Router) {
		r.With(throttle).Post("/", userHandler.Register)
		r.With(throttle).Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.Me)
			r.Delete("/me", userHandler.DeleteMe)
			r.Delete("/me/token", userHandler.Logout)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/todo", todoHandler.Create)
		r.Get("/todos", todoHandler.List)
		r.Get("/todo/{id}", todoHandler.Get)
		r.Patch("/todo/{id}", todoHandler.Update)
		r.Delete("/todo/{id}", todoHandler.Delete)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
