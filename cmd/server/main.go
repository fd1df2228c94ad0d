/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the curbside parking restriction server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML file + environment overrides)
  2. Configure structured logging
  3. Initialize SQLite store
  4. Select the rule cache backend (memory, redis or none)
  5. Create API handler and router
  6. Start the cache warmer
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (default: $CONFIG_PATH, else env only)

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, CACHE_BACKEND, CACHE_TTL, REDIS_ADDR,
  REDIS_PASSWORD, REDIS_DB, WARMER_DISABLED, WARMER_INTERVAL,
  EVAL_BULK_WORKERS, RATE_LIMIT, ALLOWED_ORIGINS
  See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the cache warmer
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close cache and database connections
  5. Exit

EXAMPLES:
  # Run with the sample config
  ./server -config=config/local.yaml

  # Run with in-memory database and redis cache
  DB_PATH=":memory:" CACHE_BACKEND=redis REDIS_ADDR=localhost:6379 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/curbside/api"
	"github.com/warp/curbside/cache"
	"github.com/warp/curbside/config"
	"github.com/warp/curbside/logging"
	"github.com/warp/curbside/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", config.PathFromEnv(), "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Base().Fatal().Err(err).Msg("failed to load config")
	}

	logging.Configure(logging.Config{Level: cfg.Log.Level})
	logger := logging.WithComponent("main")

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to initialize database")
	}
	defer store.Close()

	// Initialize rule cache
	ruleCache, err := newRuleCache(cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("failed to initialize cache")
	}
	if ruleCache != nil {
		defer ruleCache.Close()
	}
	loader := cache.NewLoader(store, ruleCache)

	// Initialize handler
	handler := api.NewHandler(store, loader, cfg.Evaluation.BulkWorkers)

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
	})

	// Start cache warmer
	var warmer *api.CacheWarmer
	if !cfg.Warmer.Disabled && ruleCache != nil {
		warmer = api.NewCacheWarmer(loader, cfg.Warmer.Interval)
		warmer.Start()
	}

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("env", cfg.Env).
			Str("cache", cfg.Cache.Backend).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	if warmer != nil {
		warmer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newRuleCache returns nil for the "none" backend.
func newRuleCache(cfg config.CacheConfig) (cache.RuleCache, error) {
	switch cfg.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		}, logging.WithComponent("cache"))
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "none":
		return nil, nil
	default:
		return cache.NewMemory(cfg.TTL), nil
	}
}
