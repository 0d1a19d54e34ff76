package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shuffler/auth-gateway/internal/attempt"
	"github.com/shuffler/auth-gateway/internal/auth"
	"github.com/shuffler/auth-gateway/internal/config"
	"github.com/shuffler/auth-gateway/internal/database"
	"github.com/shuffler/auth-gateway/internal/directory"
	"github.com/shuffler/auth-gateway/internal/middleware"
	"github.com/shuffler/auth-gateway/internal/ratelimit"
	"github.com/shuffler/auth-gateway/internal/token"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting Shuffler Auth Gateway", zap.String("env", cfg.Env))
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, using the development default")
	}

	checks := map[string]auth.HealthChecker{}

	// Redis backs the verify rate limiter; without it verification is unthrottled
	var limiter auth.RateLimiter
	if cfg.RateLimitEnabled() {
		redisClient, err := database.NewRedisClient(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")

		limiter = ratelimit.NewLimiter(
			redisClient.Client,
			cfg.RateLimit.Window,
			cfg.RateLimit.MaxAttempts,
			cfg.RateLimit.LockoutDuration,
		)
		checks["redis"] = redisClient
	}

	// PostgreSQL keeps the verification attempt log
	var recorder auth.AttemptRecorder
	if cfg.AttemptLogEnabled() {
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Connected to PostgreSQL")

		repo := attempt.NewRepository(db.DB)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		recorder = repo
		checks["postgres"] = db
	}

	// Initialize services
	directoryClient := directory.NewClient(cfg.Directory, logger)
	tokenService := token.NewService([]byte(cfg.JWT.Secret), token.Lifetime)
	authService := auth.NewService(directoryClient, tokenService, limiter, recorder, logger)
	authHandler := auth.NewHandler(authService, checks)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logger, authService, authHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Directory.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// newRouter wires middleware and routes
func newRouter(cfg *config.Config, logger *zap.Logger, authService *auth.Service, authHandler *auth.Handler) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.ParseAllowedOrigins(cfg.CORS.AllowedOrigins)))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	// promhttp negotiates its own compression
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Public routes
	router.GET("/", authHandler.Status)
	router.GET("/health", authHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/auth")
	{
		api.POST("/verify", authHandler.Verify)
		api.GET("/me", middleware.Auth(authService), authHandler.Me)
	}

	return router
}
