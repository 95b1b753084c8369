package db

import (
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"taskdesk/internal/domain/errors"
)

// Migration applies every pending up migration found in migratePath.
func Migration(dbURL, migratePath string) error {
	if dbURL == "" {
		return fmt.Errorf("migration: database url is empty")
	}
	if migratePath == "" {
		return fmt.Errorf("migration: migrations path is empty")
	}
	abs, err := filepath.Abs(migratePath)
	if err != nil {
		return fmt.Errorf("migration: resolve path: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), dbURL)
	if err != nil {
		return fmt.Errorf("migration: init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: up: %w", err)
	}
	return nil
}
