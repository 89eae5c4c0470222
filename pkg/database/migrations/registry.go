// Package migrations holds hand-written SQL that AutoMigrate cannot express,
// such as extensions and expression indexes. Applied names are recorded in
// schema_migrations so every migration runs once per database.
package migrations

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Migration is one named schema change. An empty Dialect matches every database.
type Migration struct {
	Name    string
	Dialect string
	Up      func(*gorm.DB) error
}

type appliedMigration struct {
	Name      string `gorm:"primaryKey;size:200"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string { return "schema_migrations" }

var (
	registryMu sync.RWMutex
	registry   []Migration
)

// Register appends m to the registry. Migrations run in registration order.
func Register(m Migration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, m)
}

// SQL builds a migration that executes statements in order.
func SQL(name, dialect string, statements ...string) Migration {
	return Migration{
		Name:    name,
		Dialect: dialect,
		Up: func(db *gorm.DB) error {
			for _, stmt := range statements {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Registered returns a copy of the registry.
func Registered() []Migration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Migration, len(registry))
	copy(out, registry)
	return out
}

// Run applies the registered migrations that have not been recorded yet.
func Run(db *gorm.DB, log *slog.Logger) error {
	return Apply(db, log, Registered())
}

// Apply runs the pending subset of list against db. Migrations for another
// dialect are skipped without being recorded.
func Apply(db *gorm.DB, log *slog.Logger, list []Migration) error {
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var names []string
	if err := db.Model(&appliedMigration{}).Pluck("name", &names).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}

	dialect := db.Dialector.Name()
	for _, m := range list {
		if done[m.Name] || (m.Dialect != "" && m.Dialect != dialect) {
			continue
		}

		log.Info("running migration", slog.String("name", m.Name))
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&appliedMigration{Name: m.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return nil
}
