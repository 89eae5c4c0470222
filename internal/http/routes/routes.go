package routes

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/auth"
	"github.com/mo-amir99/coursehub-server-go/internal/features/catalog"
	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/enrollment"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/internal/features/wishlist"
	"github.com/mo-amir99/coursehub-server-go/internal/middleware"
	"github.com/mo-amir99/coursehub-server-go/pkg/cache"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/database"
	"github.com/mo-amir99/coursehub-server-go/pkg/health"
	"github.com/mo-amir99/coursehub-server-go/pkg/media"
	"github.com/mo-amir99/coursehub-server-go/pkg/metrics"
	"github.com/mo-amir99/coursehub-server-go/pkg/types"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, cacheClient cache.Client, store media.Store) {
	// Probes stay outside /api so load balancers can reach them without auth.
	healthHandler := health.NewHandler(logger, map[string]health.Checker{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"cache":    cacheClient.Ping,
	})
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)
	engine.GET("/metrics", metrics.Handler())

	api := engine.Group("/api")

	authMiddleware := middleware.NewAuthMiddleware(db, cfg.JWTSecret, logger)
	authenticated := authMiddleware.Authenticate()
	optionalAuth := authMiddleware.OptionalAuthenticate()
	instructorOnly := authMiddleware.RequireRoles(types.RoleInstructor)

	authHandler := auth.NewHandler(db, logger, cfg)
	auth.RegisterRoutes(api, authHandler)

	userHandler := user.NewHandler(db, logger, store)
	user.RegisterRoutes(api, userHandler, authenticated)

	// Catalog owns the static /courses paths; course owns /courses/:id.
	catalogHandler := catalog.NewHandler(db, logger, cacheClient, cfg.CatalogCacheTTL)
	catalog.RegisterRoutes(api, catalogHandler)

	courseHandler := course.NewHandler(db, logger, store, cacheClient)
	course.RegisterRoutes(api, courseHandler, optionalAuth, instructorOnly)

	enrollmentHandler := enrollment.NewHandler(db, logger)
	enrollment.RegisterRoutes(api, enrollmentHandler, authenticated)

	wishlistHandler := wishlist.NewHandler(db, logger)
	wishlist.RegisterRoutes(api, wishlistHandler, authenticated)
}
