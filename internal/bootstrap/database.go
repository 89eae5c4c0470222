package bootstrap

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/database/migrations"
)

func init() {
	migrations.Register(migrations.SQL("enable_pg_trgm", "postgres",
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	))
	migrations.Register(migrations.SQL("courses_search_trgm", "postgres",
		`CREATE INDEX IF NOT EXISTS idx_courses_title_trgm ON courses USING gin (lower(title) gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_description_trgm ON courses USING gin (lower(description) gin_trgm_ops)`,
	))
	migrations.Register(migrations.SQL("courses_catalog_partial", "postgres",
		`CREATE INDEX IF NOT EXISTS idx_courses_catalog ON courses (status, is_active, created_at DESC) WHERE status = 'published' AND is_active`,
	))
}

// ApplyDatabaseMigrations runs database migrations when enabled via configuration.
func ApplyDatabaseMigrations(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("database migrations skipped", slog.String("env_var", "DB_RUN_MIGRATIONS=false"))
		return nil
	}

	if err := Migrate(db, logger); err != nil {
		return err
	}

	logger.Info("database migrations applied successfully")
	return nil
}

// Migrate creates or updates the tables and then applies the registered SQL migrations.
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	if err := db.AutoMigrate(&user.User{}, &course.Course{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := migrations.Run(db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
