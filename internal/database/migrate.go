package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies all pending migrations for db's driver.
func Migrate(db *sqlx.DB, log logger.Logger) error {
	driverName := db.DriverName()

	var (
		target database.Driver
		err    error
	)
	switch driverName {
	case config.DriverPostgres:
		target, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case config.DriverSQLite:
		target, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driverName, err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, target)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	// m.Close would also close db, which the caller owns.
	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No pending migrations", logger.String("driver", driverName))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("Migrations applied",
		logger.String("driver", driverName),
		logger.Int64("version", int64(version)),
	)
	return nil
}
