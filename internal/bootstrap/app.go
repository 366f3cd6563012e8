// Package bootstrap wires configuration, storage and services for the
// partprice commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/partprice/internal/api"
	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/events"
	"github.com/jonesrussell/partprice/internal/ingest"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/metrics"
	"github.com/jonesrussell/partprice/internal/repository"
	"github.com/jonesrussell/partprice/internal/retailer"
)

// Options select the configuration source.
type Options struct {
	ConfigPath string
	Debug      bool
}

// App holds the wired components shared by every command.
type App struct {
	Config    *config.Config
	Log       logger.Logger
	DB        *sqlx.DB
	Metrics   *metrics.Metrics
	Catalog   *retailer.Catalog
	Brands    *repository.BrandRepository
	Parts     *repository.PartRepository
	Stats     *repository.StatsRepository
	Refs      *repository.ReferenceRepository
	Publisher *events.Publisher
	Scheduler *ingest.Scheduler

	redis *redis.Client
}

// New runs the startup phases: config, logger, database, retailer catalog,
// events, scheduler.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	log, err := CreateLogger(cfg, opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := SetupDatabase(ctx, cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("setup database: %w", err)
	}

	catalog, err := retailer.LoadCatalog(cfg.Scraper.RetailersFile)
	if err != nil {
		_ = db.Close()
		_ = log.Sync()
		return nil, err
	}

	m := metrics.New()
	publisher, client := SetupEventPublisher(ctx, cfg.Redis, log)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Metrics:   m,
		Catalog:   catalog,
		Brands:    repository.NewBrandRepository(db),
		Parts:     repository.NewPartRepository(db, log),
		Stats:     repository.NewStatsRepository(db),
		Refs:      repository.NewReferenceRepository(db),
		Publisher: publisher,
		Scheduler: SetupScheduler(cfg.Scraper, db, catalog, publisher, m, log),
		redis:     client,
	}, nil
}

// Close stops any active run and releases connections.
func (a *App) Close(ctx context.Context) error {
	if res := a.Scheduler.Stop(ctx); res.WasRunning {
		a.Log.Info("Scheduler stopped on shutdown", logger.Bool("forced", res.Forced))
	}

	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	_ = a.Log.Sync()
	return errors.Join(errs...)
}

// Handler builds the HTTP API handler over the app's components.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(api.Deps{
		Scraper:    a.Scheduler,
		Brands:     a.Brands,
		References: a.Refs,
		Parts:      a.Parts,
		Stats:      a.Stats,
		DB:         a.DB,
	}, a.Log)
}

// Serve runs the HTTP server until ctx is cancelled, optionally starting the
// scheduler first.
func (a *App) Serve(ctx context.Context) error {
	routerCfg := api.RouterConfig{
		Debug:       a.Config.Server.Debug,
		CORSOrigins: a.Config.Server.CORSOrigins,
		Observer:    a.Metrics,
	}
	if a.Config.Metrics.Enabled {
		routerCfg.Metrics = a.Metrics.Handler()
		routerCfg.MetricsPath = a.Config.Metrics.Path
	}

	server := api.NewServer(api.ServerConfig{
		Address:         a.Config.Server.Address(),
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, api.NewRouter(routerCfg, a.Handler(), a.Log), a.Log)

	if a.Config.Scraper.AutoStart {
		a.Scheduler.Start()
	}

	errCh := server.StartAsync()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Log.Info("Shutdown signal received")
	}

	//nolint:contextcheck // ctx is already cancelled; shutdown needs a fresh one
	return server.Shutdown(context.Background())
}
