package retailer

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
)

// Fetch outcomes reported to a FetchObserver.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
)

// Fetcher performs a GET through the run's shared session.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// FetchObserver receives one call per search.
type FetchObserver interface {
	ObserveFetch(retailer, outcome string, listings int)
}

// Adapter searches one retailer. The logic is generic; all retailer
// knowledge comes from its Config.
type Adapter struct {
	cfg      Config
	log      logger.Logger
	observer FetchObserver
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithObserver reports fetch outcomes to o.
func WithObserver(o FetchObserver) AdapterOption {
	return func(a *Adapter) { a.observer = o }
}

// NewAdapter returns an adapter for cfg.
func NewAdapter(cfg Config, log logger.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		cfg: cfg,
		log: log.With(logger.String("retailer", cfg.Name)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adapters returns one adapter per catalog entry, in catalog order.
func (c *Catalog) Adapters(log logger.Logger, opts ...AdapterOption) []*Adapter {
	adapters := make([]*Adapter, 0, len(c.retailers))
	for _, r := range c.retailers {
		adapters = append(adapters, NewAdapter(r, log, opts...))
	}
	return adapters
}

// Name returns the retailer display name.
func (a *Adapter) Name() string {
	return a.cfg.Name
}

// SearchURL substitutes the query-escaped brand and part into the template.
func (a *Adapter) SearchURL(brand, part string) string {
	return strings.NewReplacer(
		BrandToken, url.QueryEscape(brand),
		PartToken, url.QueryEscape(part),
	).Replace(a.cfg.SearchURL)
}

// Search fetches and parses the retailer's results for brand and part.
// Failures are logged and yield no listings.
func (a *Adapter) Search(ctx context.Context, f Fetcher, brand, part string) []domain.Listing {
	target := a.SearchURL(brand, part)

	body, err := f.Get(ctx, target)
	if err != nil {
		a.log.Warn("Retailer fetch failed",
			logger.String("url", target),
			logger.Error(err),
		)
		a.observe(OutcomeFetchError, 0)
		return nil
	}

	listings, err := ExtractListings(body, a.cfg, a.log)
	if err != nil {
		a.log.Warn("Retailer page parse failed",
			logger.String("url", target),
			logger.Error(err),
		)
		a.observe(OutcomeParseError, 0)
		return nil
	}

	a.log.Debug("Retailer search complete",
		logger.String("brand", brand),
		logger.String("part", part),
		logger.Int("listings", len(listings)),
	)
	a.observe(OutcomeOK, len(listings))
	return listings
}

func (a *Adapter) observe(outcome string, n int) {
	if a.observer != nil {
		a.observer.ObserveFetch(a.cfg.Name, outcome, n)
	}
}
