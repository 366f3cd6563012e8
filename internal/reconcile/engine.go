// Package reconcile maps scraped listings onto catalog rows: retailers and
// categories are looked up before they are created, and parts are upserted on
// their (name, retailer, brand, category) key.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
)

// Tx is the unit of work one batch is reconciled in.
type Tx interface {
	FindRetailer(ctx context.Context, name string) (*domain.Retailer, error)
	CreateRetailer(ctx context.Context, r *domain.Retailer) error
	FindCategory(ctx context.Context, name string) (*domain.PartCategory, error)
	CreateCategory(ctx context.Context, c *domain.PartCategory) error
	FindPart(ctx context.Context, name string, retailerID, brandID, categoryID int64) (*domain.Part, error)
	InsertPart(ctx context.Context, p *domain.Part) error
	UpdatePartPrice(ctx context.Context, id int64, price decimal.Decimal, observedAt time.Time) error
}

// Store commits everything fn does, or nothing.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Websites resolves a retailer display name to its base URL.
type Websites interface {
	Website(name string) (string, bool)
}

// Observation describes one reconciled part. Notifiers receive them after commit.
type Observation struct {
	PartID        int64
	Name          string
	Brand         string
	Category      string
	Retailer      string
	Price         decimal.Decimal
	PreviousPrice decimal.Decimal
	Created       bool
	ObservedAt    time.Time
}

// Notifier is told about committed observations.
type Notifier interface {
	Notify(ctx context.Context, observations []Observation)
}

// Observer receives batch counts.
type Observer interface {
	ObserveReconciled(created, updated int)
}

// Result summarises one batch.
type Result struct {
	Created           int
	Updated           int
	Skipped           int
	RetailersCreated  int
	CategoriesCreated int
}

// Engine reconciles listing batches.
type Engine struct {
	store    Store
	websites Websites
	log      logger.Logger
	now      func() time.Time
	notifier Notifier
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the observation clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNotifier sends committed observations to n.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithObserver reports batch counts to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine.
func NewEngine(store Store, websites Websites, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		websites: websites,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile upserts listings for brand under the category named category in
// one transaction. An empty batch touches nothing.
func (e *Engine) Reconcile(ctx context.Context, listings []domain.Listing, brand domain.CarBrand, category string) (Result, error) {
	var result Result
	if len(listings) == 0 {
		return result, nil
	}

	observedAt := e.now()
	var observations []Observation

	err := e.store.InTx(ctx, func(tx Tx) error {
		result = Result{}
		observations = observations[:0]

		cat, created, err := e.resolveCategory(ctx, tx, category)
		if err != nil {
			return err
		}
		if created {
			result.CategoriesCreated++
		}

		retailers := make(map[string]*domain.Retailer)
		for _, l := range listings {
			if strings.TrimSpace(l.Name) == "" || !l.Price.IsPositive() {
				result.Skipped++
				continue
			}

			r, ok := retailers[l.Retailer]
			if !ok {
				r, created, err = e.resolveRetailer(ctx, tx, l)
				if err != nil {
					return err
				}
				if created {
					result.RetailersCreated++
				}
				retailers[l.Retailer] = r
			}

			obs, err := e.upsertPart(ctx, tx, l, r, brand, cat, observedAt)
			if err != nil {
				return err
			}
			if obs.Created {
				result.Created++
			} else {
				result.Updated++
			}
			observations = append(observations, obs)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("reconcile %s/%s: %w", brand.Name, category, err)
	}

	e.log.Debug("Reconciled listings",
		logger.String("brand", brand.Name),
		logger.String("category", category),
		logger.Int("created", result.Created),
		logger.Int("updated", result.Updated),
		logger.Int("skipped", result.Skipped),
	)
	if e.observer != nil {
		e.observer.ObserveReconciled(result.Created, result.Updated)
	}
	if e.notifier != nil && len(observations) > 0 {
		e.notifier.Notify(ctx, observations)
	}
	return result, nil
}

func (e *Engine) resolveCategory(ctx context.Context, tx Tx, name string) (*domain.PartCategory, bool, error) {
	cat, err := tx.FindCategory(ctx, name)
	if err == nil {
		return cat, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	cat = &domain.PartCategory{Name: name}
	if err = tx.CreateCategory(ctx, cat); err != nil {
		return nil, false, err
	}
	return cat, true, nil
}

func (e *Engine) resolveRetailer(ctx context.Context, tx Tx, l domain.Listing) (*domain.Retailer, bool, error) {
	r, err := tx.FindRetailer(ctx, l.Retailer)
	if err == nil {
		return r, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	r = &domain.Retailer{Name: l.Retailer, Website: e.website(l)}
	if err = tx.CreateRetailer(ctx, r); err != nil {
		return nil, false, err
	}
	e.log.Info("Created retailer",
		logger.String("retailer", r.Name),
		logger.String("website", r.Website),
	)
	return r, true, nil
}

// website prefers the configured base URL, then the listing URL's origin.
func (e *Engine) website(l domain.Listing) string {
	if e.websites != nil {
		if site, ok := e.websites.Website(l.Retailer); ok {
			return site
		}
	}
	if u, err := url.Parse(l.URL); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return l.Retailer
}

func (e *Engine) upsertPart(
	ctx context.Context,
	tx Tx,
	l domain.Listing,
	r *domain.Retailer,
	brand domain.CarBrand,
	cat *domain.PartCategory,
	observedAt time.Time,
) (Observation, error) {
	obs := Observation{
		Name:       l.Name,
		Brand:      brand.Name,
		Category:   cat.Name,
		Retailer:   r.Name,
		Price:      l.Price,
		ObservedAt: observedAt,
	}

	existing, err := tx.FindPart(ctx, l.Name, r.ID, brand.ID, cat.ID)
	switch {
	case err == nil:
		if err = tx.UpdatePartPrice(ctx, existing.ID, l.Price, observedAt); err != nil {
			return obs, err
		}
		obs.PartID = existing.ID
		obs.PreviousPrice = existing.Price
		return obs, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return obs, err
	}

	part := &domain.Part{
		Name:        l.Name,
		Price:       l.Price,
		Currency:    domain.DefaultCurrency,
		URL:         l.URL,
		LastUpdated: observedAt,
		RetailerID:  r.ID,
		BrandID:     brand.ID,
		CategoryID:  cat.ID,
	}
	if err = tx.InsertPart(ctx, part); err != nil {
		return obs, err
	}
	obs.PartID = part.ID
	obs.Created = true
	return obs, nil
}
