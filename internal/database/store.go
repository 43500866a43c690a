package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/users"
)

// OpenUserStore opens the user store for cfg.Driver. For PostgreSQL it
// creates the pool and, when AutoMigrate is set, applies the embedded
// migrations first. The returned close function releases everything.
func OpenUserStore(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (users.Store, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		store, err := users.NewSQLiteStore(cfg.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("path", cfg.URL).Info("Using SQLite user store")
		return store, func() { store.Close() }, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := migrateUp(ctx, cfg.URL, logger); err != nil {
				return nil, nil, err
			}
		}

		db, err := NewConnection(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := users.NewPostgresStore(db.SQLDB())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() {
			store.Close()
			db.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func migrateUp(ctx context.Context, databaseURL string, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migration runner")
		}
	}()
	return runner.Up(ctx)
}
