// Package pgtest starts a disposable PostgreSQL container with the
// application schema for integration tests.
package pgtest

import (
	"context"
	"testing"
	"time"

	"artfactory/internal/adapters/out/postgres/migrations"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is a migrated database running in a container.
type Database struct {
	Container *postgres.PostgresContainer
	DSN       string
	DB        *gorm.DB
}

// Start runs postgres:15-alpine and applies the migrations.
func Start(ctx context.Context, t testing.TB) *Database {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = migrations.Up(dsn)
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return &Database{Container: container, DSN: dsn, DB: db}
}

// Truncate empties every application table.
func (d *Database) Truncate(t testing.TB) {
	t.Helper()
	require.NoError(t, d.DB.Exec("TRUNCATE TABLE products, order_items, orders, machines CASCADE").Error)
}

// Stop terminates the container.
func (d *Database) Stop(t testing.TB) {
	t.Helper()
	if d == nil || d.Container == nil {
		return
	}
	require.NoError(t, d.Container.Terminate(context.Background()))
}
