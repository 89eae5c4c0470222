package main

import (
	"compress/gzip"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coursehub-server-go/internal/bootstrap"
	"github.com/mo-amir99/coursehub-server-go/internal/features/enrollment"
	"github.com/mo-amir99/coursehub-server-go/internal/http/routes"
	"github.com/mo-amir99/coursehub-server-go/pkg/cache"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/database"
	"github.com/mo-amir99/coursehub-server-go/pkg/jobs"
	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
	"github.com/mo-amir99/coursehub-server-go/pkg/media"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/request"
)

const maxRequestBytes = 10 << 20

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.ApplyDatabaseMigrations(db, cfg, appLogger); err != nil {
		appLogger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheClient, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		// The catalog works without redis; fall back to the in-process cache.
		appLogger.Warn("redis unavailable, using in-memory cache", slog.String("error", err.Error()))
		cacheClient = cache.NewMemoryCache()
	}
	defer cacheClient.Close()

	store := media.New(cfg.Media)
	if !cfg.Media.Enabled() {
		appLogger.Warn("media storage not configured, uploads are disabled")
	}

	if cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler(appLogger, 5*time.Minute)
		scheduler.AddJob(enrollment.NewReconciler(db, appLogger), cfg.Jobs.ReconcileInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	router := gin.New()
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Compression(gzip.BestSpeed, "/metrics"))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.NoStoreByDefault())
	router.Use(middleware.RequestSizeLimit(maxRequestBytes))
	router.Use(metrics.Middleware())
	router.Use(request.Handler(appLogger))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	rateLimiter.StartCleanup(10 * time.Minute)
	defer rateLimiter.Stop()
	router.Use(rateLimiter.Middleware())

	routes.Register(router, cfg, db, appLogger, cacheClient, store)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
