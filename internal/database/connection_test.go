package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/users"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct{ input, expected string }{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"pgx5://already", "pgx5://already"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, MigrationURL(tt.input))
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "one up and one down file")
}

func TestDatabaseConnectionAndMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	runner, err := NewMigrationRunner(dsn, logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Up(ctx), "second run is a no-op")
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	require.NoError(t, runner.Close())

	db, err := NewConnection(ctx, domain.DatabaseConfig{URL: dsn, MaxOpenConns: 5, MaxIdleConns: 1}, logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Health(ctx))

	store, err := users.NewPostgresStore(db.SQLDB())
	require.NoError(t, err)

	user := &domain.User{ClerkUserID: "user_pg", Email: "pg@example.org"}
	require.NoError(t, store.Upsert(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := store.GetByClerkID(ctx, "user_pg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pg@example.org", got.Email)

	stats := db.Stats()
	assert.NotZero(t, stats.TotalConns())
}

func TestMigrate_UpDownStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("migratedb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	cfg := domain.DatabaseConfig{Driver: "postgres", URL: dsn}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	steps := []struct {
		direction string
		version   uint
	}{
		{MigrateStatus, 0},
		{MigrateUp, 1},
		{MigrateDown, 0},
		{MigrateDown, 0},
		{MigrateUp, 1},
	}
	for _, step := range steps {
		status, err := Migrate(ctx, cfg, step.direction, logger)
		require.NoError(t, err, step.direction)
		assert.Equal(t, MigrationStatus{Version: step.version}, *status, step.direction)
	}
}

func TestMigrate_Rejections(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	_, err := Migrate(context.Background(), domain.DatabaseConfig{Driver: "sqlite", URL: "users.db"}, MigrateUp, logger)
	assert.ErrorContains(t, err, "postgres driver only")
}

func TestOpenUserStore_SQLite(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, closeStore, err := OpenUserStore(context.Background(), domain.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "users.db"),
	}, logger)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &users.SQLiteStore{}, store)
}

func TestOpenUserStore_UnknownDriver(t *testing.T) {
	_, _, err := OpenUserStore(context.Background(), domain.DatabaseConfig{Driver: "mysql"}, logrus.New())
	assert.Error(t, err)
}
