package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mo-amir99/coursehub-server-go/internal/features/enrollment"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/database"
	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
)

// reconcile recomputes course and instructor enrollment counters once and exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(logger.Options{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	report, err := enrollment.Reconcile(db)
	if err != nil {
		appLogger.Error("reconcile failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("reconcile completed",
		slog.Int("coursesFixed", report.CoursesFixed),
		slog.Int("instructorsFixed", report.InstructorsFixed))
}
