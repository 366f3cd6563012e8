package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/database"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/repository"
)

// SetupDatabase opens the catalog store and applies the optional startup
// migration and seed steps.
func SetupDatabase(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*sqlx.DB, error) {
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err = database.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if cfg.Seed {
		added, seedErr := repository.NewBrandRepository(db).Seed(ctx, nil)
		if seedErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed brands: %w", seedErr)
		}
		log.Info("Sample brands seeded", logger.Int("added", added))
	}

	return db, nil
}
