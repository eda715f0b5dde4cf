// Package main is the entrypoint for the todo API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/cache"
	"github.com/ninetyone/TodoApp/internal/config"
	"github.com/ninetyone/TodoApp/internal/docstore"
	"github.com/ninetyone/TodoApp/internal/handler"
	"github.com/ninetyone/TodoApp/internal/memstore"
	"github.com/ninetyone/TodoApp/internal/metrics"
	"github.com/ninetyone/TodoApp/internal/repository"
	"github.com/ninetyone/TodoApp/internal/server"
	"github.com/ninetyone/TodoApp/internal/service"
	"github.com/ninetyone/TodoApp/internal/store"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return serve(ctx, cfg, logger, st)
}

// serve wires the services around st and runs the HTTP server. It owns st:
// the store is closed on every return path, by the server's shutdown hooks
// once they are registered and here before that.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, st store.Store) error {
	closers := []func() error{st.Close}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	var (
		cacheClient *cache.Cache
		limiter     cache.Limiter
		err         error
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		closers = append(closers, cacheClient.Close)
		limiter = cache.NewRedisLimiter(cacheClient, cfg.RateLimitAuthPerMinute, cfg.RateLimitAuthBurst)
		logger.Info("connected to Redis")
	} else {
		limiter = cache.NewMemoryLimiter(cfg.RateLimitAuthPerMinute, cfg.RateLimitAuthBurst)
		logger.Info("REDIS_URL not set, rate limiting per process")
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	if cfg.MetricsEnabled {
		recorder = metrics.NewInMemory()
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}
	credentials, err := service.NewCredentialService(st, auth.NewHasher(auth.DefaultParams), tokens, recorder)
	if err != nil {
		return fmt.Errorf("failed to create credential service: %w", err)
	}
	todos := service.NewTodoService(st, recorder)

	routerCfg := handler.RouterConfig{
		Logger:             logger,
		Credentials:        credentials,
		Todos:              todos,
		Metrics:            recorder,
		Store:              st,
		Limiter:            limiter,
		RateLimitEnabled:   cfg.RateLimitAuthEnabled,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		IsDevelopment:      cfg.IsDevelopment(),
		MetricsEnabled:     cfg.MetricsEnabled,
	}
	// A nil *cache.Cache must not reach the interface field.
	if cacheClient != nil {
		routerCfg.Cache = cacheClient
	}

	srv := server.New(handler.NewRouter(routerCfg), server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error { return st.Close() })
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}
	// The shutdown hooks own the resources from here.
	closers = nil

	logger.Info("starting server",
		"port", cfg.AppPort,
		"store", cfg.StoreBackend,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openStore connects the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.AutoMigrate {
			if err := repository.Migrate(connectCtx, cfg.DatabaseURL); err != nil {
				logger.Error("failed to migrate database",
					slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
					slog.String("database_url", redactURL(cfg.DatabaseURL)),
				)
				return nil, errors.New("database migration failed")
			}
			logger.Info("database schema up to date")
		}

		repo, err := repository.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, errors.New("database unavailable")
		}
		logger.Info("connected to database")
		return repo, nil

	case config.BackendMongo:
		ds, err := docstore.New(connectCtx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			logger.Error("failed to connect to MongoDB",
				slog.String("error", sanitizeError(err, cfg.MongoURL)),
				slog.String("mongo_url", redactURL(cfg.MongoURL)),
			)
			return nil, errors.New("mongodb unavailable")
		}
		logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)
		return ds, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes connection secrets from a driver error message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
