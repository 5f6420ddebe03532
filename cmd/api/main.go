package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api"
	"github.com/inventory-system/api/internal/api/exception"
	"github.com/inventory-system/api/internal/api/handlers"
	mw "github.com/inventory-system/api/internal/api/middleware"
	"github.com/inventory-system/api/internal/api/pipeline"
	"github.com/inventory-system/api/pkg/config"
	"github.com/inventory-system/api/pkg/database"
	"github.com/inventory-system/api/pkg/logger"
)

// @title           Inventory System API
// @version         1.0
// @description     API for managing the inventory system.
// @BasePath        /

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting Inventory System API",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.Addr()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.OpenPostgres(ctx, database.OptionsFromConfig(cfg), log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("database close error", zap.Error(err))
		}
	}()

	// Rate limit store: shared through Redis when configured
	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	filter := exception.NewFilter(log)

	interceptors := []pipeline.Interceptor{
		pipeline.Logging(log),
		pipeline.Timeout(cfg.RequestTimeout, log),
		pipeline.Sanitize(),
		pipeline.Transform(time.Now),
	}

	router := api.NewRouter(api.Dependencies{
		Logger:         log,
		Filter:         filter,
		Pipeline:       pipeline.New(log, filter, interceptors...),
		Limiter:        limiter,
		Production:     cfg.IsProduction(),
		AllowedOrigins: corsOrigins(cfg),
		Prefix:         cfg.APIPrefix,
		DefaultVersion: cfg.APIDefaultVersion,
		Health:         handlers.NewHealthHandler(db),
		Users:          handlers.NewUsersHandler(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}

// corsOrigins restricts browsers to the configured clients in production only.
func corsOrigins(cfg *config.Config) []string {
	if cfg.IsProduction() {
		return cfg.AllowedOrigins()
	}
	return nil
}

func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (mw.Store, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			log.Info("Rate limiting backed by Redis", zap.String("addr", cfg.RedisAddr))
			return mw.NewRedisStore(client, cfg.RateLimitTTL, cfg.RateLimitMax), func() { _ = client.Close() }
		}
		log.Warn("Redis unavailable, rate limiting in memory", zap.Error(err))
		_ = client.Close()
	}
	store := mw.NewMemoryStore(cfg.RateLimitTTL, cfg.RateLimitMax)
	return store, store.Close
}
