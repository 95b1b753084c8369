package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"taskdesk/internal/domain/errors"
	"taskdesk/internal/server"
	"taskdesk/internal/services"
	db "taskdesk/repository/db"
	inmemory "taskdesk/repository/inmemory"
)

// Store is every repository the services need.
type Store interface {
	services.UserRepository
	services.TaskRepository
	services.A3Repository
	services.ReportRepository
}

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// OpenStore connects to Postgres and applies migrations. When the database
// is unreachable and allowMemory is set it falls back to the in-memory
// store. The returned func releases the store.
func OpenStore(ctx context.Context, cfg *server.Config, logger zerolog.Logger, allowMemory bool) (Store, func(), error) {
	pool, err := db.Connect(ctx, db.PoolConfig{
		URL:            cfg.DatabaseURL,
		ConnectTimeout: connectTimeout,
		PingTimeout:    pingTimeout,
	}, logger)
	if err != nil {
		if !allowMemory {
			return nil, nil, err
		}
		logger.Warn().
			Err(err).
			Msg("database unavailable, using in-memory storage; data is lost on restart")
		return inmemory.NewStorage(), func() {}, nil
	}

	if err := db.Migration(cfg.DatabaseURL, cfg.MigratePath); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info().
		Str("path", cfg.MigratePath).
		Msg("applied migrations")

	return db.NewStorage(pool, logger), pool.Close, nil
}

// IsMemoryStore reports whether store keeps its data in process memory.
func IsMemoryStore(store Store) bool {
	_, ok := store.(*inmemory.Storage)
	return ok
}

// BootstrapAdmin creates the configured admin account when a password is
// set. A fresh in-memory store has no users, so it requires one.
func BootstrapAdmin(ctx context.Context, cfg *server.Config, store Store, users *services.UserService, logger zerolog.Logger) error {
	if cfg.Admin.Password == "" {
		if IsMemoryStore(store) {
			return fmt.Errorf("%w: ADMIN_PASSWORD is required with the in-memory store", errors.ErrConfigInvalidFormat)
		}
		return nil
	}

	created, err := users.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info().
		Str("email", cfg.Admin.Email).
		Bool("created", created).
		Msg("admin account ready")
	return nil
}
