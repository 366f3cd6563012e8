package retailer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/retailer"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	count int
}

func (o *recordingObserver) ObserveFetch(_ string, outcome string, listings int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, outcome)
	o.count += listings
}

func testRetailer(baseURL string) retailer.Config {
	cfg := retailer.DefaultCatalog().Retailers()[0]
	cfg.BaseURL = baseURL
	cfg.SearchURL = baseURL + "/search?controller=search&s={brand}+{part}"
	return cfg
}

func TestAdapter_SearchURL(t *testing.T) {
	t.Parallel()

	a := retailer.NewAdapter(retailer.DefaultCatalog().Retailers()[0], logger.NewNop())
	assert.Equal(t,
		"https://onlinecarparts.co.za/search?controller=search&s=Toyota+oil+filter",
		a.SearchURL("Toyota", "oil filter"),
	)
	assert.Equal(t,
		"https://onlinecarparts.co.za/search?controller=search&s=Mercedes%26Co+brake+pads",
		a.SearchURL("Mercedes&Co", "brake pads"),
	)
}

func TestAdapter_Search(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query().Get("s")
		_, _ = w.Write([]byte(onlineCarPartsHTML))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	a := retailer.NewAdapter(testRetailer(srv.URL), logger.NewNop(), retailer.WithObserver(obs))
	s := retailer.NewSession(retailer.SessionConfig{})
	defer s.Close()

	listings := a.Search(context.Background(), s, "Toyota", "oil filter")
	require.Len(t, listings, 2)
	assert.Equal(t, "Toyota oil filter", <-queries)
	assert.Equal(t, srv.URL+"/oil-filters/toyota-oil-filter-x.html", listings[0].URL)
	assert.Equal(t, []string{retailer.OutcomeOK}, obs.calls)
	assert.Equal(t, 2, obs.count)
}

func TestAdapter_SearchFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	a := retailer.NewAdapter(testRetailer(srv.URL), logger.NewNop(), retailer.WithObserver(obs))
	s := retailer.NewSession(retailer.SessionConfig{})
	defer s.Close()

	assert.Empty(t, a.Search(context.Background(), s, "Toyota", "oil filter"))
	assert.Equal(t, []string{retailer.OutcomeFetchError}, obs.calls)
}

func TestAdapter_SearchConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	a := retailer.NewAdapter(testRetailer(base), logger.NewNop())
	s := retailer.NewSession(retailer.SessionConfig{})
	defer s.Close()

	assert.Empty(t, a.Search(context.Background(), s, "Ford", "radiator"))
}

func TestCatalog_AdaptersKeepOrder(t *testing.T) {
	t.Parallel()

	adapters := retailer.DefaultCatalog().Adapters(logger.NewNop())
	require.Len(t, adapters, 2)
	assert.Equal(t, "Online Car Parts", adapters[0].Name())
	assert.Equal(t, "AfricaBoyz Online", adapters[1].Name())
}
