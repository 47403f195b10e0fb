package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "notary", Password: "pw", DBName: "notary", SSLMode: "disable",
	})
	assert.Equal(t, "host=db port=5432 user=notary password=pw dbname=notary sslmode=disable", dsn)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "notary.db"),
	}
	db, err := database.ConnectWithRetry(cfg, 2, 10*time.Millisecond)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, database.Migrate(db))
	// 重复迁移不报错
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"templates", "template_fields", "contracts", "contract_sequences", "clients", "offices", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.NoError(t, database.CheckHealth(context.Background(), db))
}

func TestCheckHealth_NilDB(t *testing.T) {
	assert.Error(t, database.CheckHealth(context.Background(), nil))
}
