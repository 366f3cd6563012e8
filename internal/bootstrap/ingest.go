package bootstrap

import (
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/events"
	"github.com/jonesrussell/partprice/internal/ingest"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/metrics"
	"github.com/jonesrussell/partprice/internal/reconcile"
	"github.com/jonesrussell/partprice/internal/repository"
	"github.com/jonesrussell/partprice/internal/retailer"
)

// SetupScheduler wires retailer adapters, the reconciliation engine and the
// brand repository into an idle scheduler.
func SetupScheduler(
	cfg config.ScraperConfig,
	db *sqlx.DB,
	catalog *retailer.Catalog,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
) *ingest.Scheduler {
	engineOpts := []reconcile.Option{reconcile.WithObserver(m)}
	if publisher != nil {
		engineOpts = append(engineOpts, reconcile.WithNotifier(publisher))
	}
	engine := reconcile.NewEngine(
		reconcile.NewSQLStore(repository.NewCatalogStore(db)),
		catalog,
		log,
		engineOpts...,
	)

	retailers := catalog.Adapters(log, retailer.WithObserver(m))
	adapters := make([]ingest.Adapter, 0, len(retailers))
	for _, a := range retailers {
		adapters = append(adapters, a)
	}

	sessionCfg := retailer.SessionConfig{
		Timeout:           cfg.RequestTimeout,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		Accept:            cfg.Accept,
	}

	return ingest.New(
		ingest.Config{
			Parts:        cfg.Parts,
			PacingDelay:  cfg.PacingDelay,
			PassInterval: cfg.PassInterval,
			StopGrace:    cfg.StopGrace,
		},
		adapters,
		engine,
		repository.NewBrandRepository(db),
		func() ingest.Session { return retailer.NewSession(sessionCfg) },
		log,
		ingest.WithObserver(m),
	)
}
