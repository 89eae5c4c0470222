package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/coursehub-server-go/internal/features/course"
	"github.com/mo-amir99/coursehub-server-go/internal/features/user"
	"github.com/mo-amir99/coursehub-server-go/pkg/config"
	"github.com/mo-amir99/coursehub-server-go/pkg/database/dbtest"
	"github.com/mo-amir99/coursehub-server-go/pkg/database/migrations"
	"github.com/mo-amir99/coursehub-server-go/pkg/logger"
)

func TestMigrateCreatesTablesAndSkipsPostgresOnlySQL(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, Migrate(db, logger.Discard()))
	assert.True(t, db.Migrator().HasTable(&user.User{}))
	assert.True(t, db.Migrator().HasTable(&course.Course{}))

	// Running twice is harmless.
	require.NoError(t, Migrate(db, logger.Discard()))
}

func TestApplyDatabaseMigrationsRespectsFlag(t *testing.T) {
	db := dbtest.Open(t)
	cfg := &config.Config{}

	require.NoError(t, ApplyDatabaseMigrations(db, cfg, logger.Discard()))
	assert.False(t, db.Migrator().HasTable(&course.Course{}))

	cfg.Database.RunMigrations = true
	require.NoError(t, ApplyDatabaseMigrations(db, cfg, logger.Discard()))
	assert.True(t, db.Migrator().HasTable(&course.Course{}))
}

func TestSearchIndexesAreRegisteredForPostgres(t *testing.T) {
	names := map[string]string{}
	for _, m := range migrations.Registered() {
		names[m.Name] = m.Dialect
	}
	assert.Equal(t, "postgres", names["enable_pg_trgm"])
	assert.Equal(t, "postgres", names["courses_search_trgm"])
	assert.Equal(t, "postgres", names["courses_catalog_partial"])
}
