package db

import (
	"errors"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies all pending migrations from the given source directory
// (a file:// URL) against the database. A fully migrated database is not an
// error.
func Migrate(sourceURL, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[DB] Schema already up to date")
			return nil
		}
		return err
	}
	logger.Info("[DB] Migrations applied")
	return nil
}
