package ingest_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/ingest"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/reconcile"
	"github.com/jonesrussell/partprice/internal/retailer"
)

type searchCall struct {
	retailer string
	brand    string
	part     string
	at       time.Time
}

type callLog struct {
	mu    sync.Mutex
	calls []searchCall
}

func (l *callLog) add(c searchCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *callLog) snapshot() []searchCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]searchCall(nil), l.calls...)
}

type fakeAdapter struct {
	name    string
	log     *callLog
	block   bool
	entered chan struct{}
	panicOn string
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Search(ctx context.Context, _ retailer.Fetcher, brand, part string) []domain.Listing {
	a.log.add(searchCall{retailer: a.name, brand: brand, part: part, at: time.Now()})
	if a.panicOn != "" && part == a.panicOn {
		panic("selector exploded")
	}
	if a.block {
		if a.entered != nil {
			select {
			case a.entered <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return nil
	}
	return []domain.Listing{{
		Name:     brand + " " + part,
		Price:    decimal.NewFromInt(100),
		URL:      "https://" + a.name + ".example/p",
		Retailer: a.name,
	}}
}

type reconcileCall struct {
	brand    string
	part     string
	listings int
}

type fakeReconciler struct {
	mu     sync.Mutex
	calls  []reconcileCall
	err    error
	onCall func(n int)
}

func (r *fakeReconciler) Reconcile(_ context.Context, listings []domain.Listing, brand domain.CarBrand, category string) (reconcile.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, reconcileCall{brand: brand.Name, part: category, listings: len(listings)})
	n := len(r.calls)
	hook := r.onCall
	r.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if r.err != nil {
		return reconcile.Result{}, r.err
	}
	return reconcile.Result{Created: len(listings)}, nil
}

func (r *fakeReconciler) snapshot() []reconcileCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reconcileCall(nil), r.calls...)
}

type fakeBrands struct {
	mu      sync.Mutex
	brands  []domain.CarBrand
	listErr error
	marked  []int64
}

func (b *fakeBrands) List(context.Context) ([]domain.CarBrand, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.brands, nil
}

func (b *fakeBrands) MarkScraped(_ context.Context, id int64, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marked = append(b.marked, id)
	return nil
}

func (b *fakeBrands) markedIDs() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.marked...)
}

type fakeSession struct {
	closes atomic.Int32
}

func (s *fakeSession) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (s *fakeSession) Close() error {
	s.closes.Add(1)
	return nil
}

type fakeObserver struct {
	passes   atomic.Int32
	failures atomic.Int32
	running  atomic.Bool
}

func (o *fakeObserver) PassCompleted(time.Duration) { o.passes.Add(1) }
func (o *fakeObserver) CombinationFailed()          { o.failures.Add(1) }
func (o *fakeObserver) SetRunning(r bool)           { o.running.Store(r) }

type harness struct {
	log        *callLog
	adapters   []*fakeAdapter
	reconciler *fakeReconciler
	brands     *fakeBrands
	sessions   []*fakeSession
	observer   *fakeObserver
	mu         sync.Mutex
}

func newHarness() *harness {
	l := &callLog{}
	return &harness{
		log: l,
		adapters: []*fakeAdapter{
			{name: "onlinecarparts", log: l},
			{name: "africaboyz", log: l},
		},
		reconciler: &fakeReconciler{},
		brands: &fakeBrands{brands: []domain.CarBrand{
			{ID: 1, Name: "Toyota"},
			{ID: 2, Name: "BMW"},
		}},
		observer: &fakeObserver{},
	}
}

func (h *harness) scheduler(cfg ingest.Config) *ingest.Scheduler {
	adapters := make([]ingest.Adapter, 0, len(h.adapters))
	for _, a := range h.adapters {
		adapters = append(adapters, a)
	}
	factory := func() ingest.Session {
		h.mu.Lock()
		defer h.mu.Unlock()
		s := &fakeSession{}
		h.sessions = append(h.sessions, s)
		return s
	}
	return ingest.New(cfg, adapters, h.reconciler, h.brands, factory, logger.NewNop(), ingest.WithObserver(h.observer))
}

func (h *harness) lastSession(t *testing.T) *fakeSession {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.sessions)
	return h.sessions[len(h.sessions)-1]
}

func TestRunPass_VisitsEveryCombination(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter", "brake pads"}})

	summary, err := s.RunPass(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Completed)
	assert.Equal(t, 2, summary.Brands)
	assert.Equal(t, 4, summary.Combinations)
	assert.Equal(t, 8, summary.Listings)
	assert.Equal(t, 8, summary.Created)
	assert.Zero(t, summary.Failures)

	calls := h.reconciler.snapshot()
	require.Len(t, calls, 4)
	assert.Equal(t, reconcileCall{brand: "Toyota", part: "oil filter", listings: 2}, calls[0])
	assert.Equal(t, reconcileCall{brand: "Toyota", part: "brake pads", listings: 2}, calls[1])
	assert.Equal(t, reconcileCall{brand: "BMW", part: "oil filter", listings: 2}, calls[2])

	searches := h.log.snapshot()
	require.Len(t, searches, 8)
	assert.Equal(t, "onlinecarparts", searches[0].retailer)
	assert.Equal(t, "africaboyz", searches[1].retailer)

	assert.Equal(t, []int64{1, 2}, h.brands.markedIDs())
	assert.Equal(t, int32(1), h.lastSession(t).closes.Load())
	assert.Equal(t, int32(1), h.observer.passes.Load())
	assert.False(t, s.Running())

	st := s.Status()
	assert.Equal(t, ingest.StateIdle, st.State)
	assert.Equal(t, 1, st.Passes)
	require.NotNil(t, st.LastPass)
	assert.Equal(t, 4, st.LastPass.Combinations)
}

func TestRunPass_PacesRetailersAndCombinations(t *testing.T) {
	const pacing = 30 * time.Millisecond

	h := newHarness()
	h.brands.brands = h.brands.brands[:1]
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter", "spark plugs"}, PacingDelay: pacing})

	_, err := s.RunPass(context.Background())
	require.NoError(t, err)

	searches := h.log.snapshot()
	require.Len(t, searches, 4)
	for i := 1; i < len(searches); i++ {
		gap := searches[i].at.Sub(searches[i-1].at)
		assert.GreaterOrEqual(t, gap, pacing, "search %d started too soon", i)
	}
}

func TestRunPass_RecoversPanickingCombination(t *testing.T) {
	h := newHarness()
	h.brands.brands = h.brands.brands[:1]
	h.adapters[0].panicOn = "oil filter"
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter", "air filter"}})

	summary, err := s.RunPass(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Completed)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, int32(1), h.observer.failures.Load())

	calls := h.reconciler.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "air filter", calls[0].part)
}

func TestRunPass_ReconcileErrorDoesNotAbortPass(t *testing.T) {
	h := newHarness()
	h.reconciler.err = errors.New("database is locked")
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter"}})

	summary, err := s.RunPass(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Completed)
	assert.Equal(t, 2, summary.Combinations)
	assert.Equal(t, 2, summary.Failures)
	assert.Len(t, h.reconciler.snapshot(), 2)
}

func TestRunPass_BrandListFailure(t *testing.T) {
	h := newHarness()
	h.brands.listErr = errors.New("connection refused")
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter"}})

	summary, err := s.RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failures)
	assert.Empty(t, h.reconciler.snapshot())
	assert.Equal(t, int32(1), h.lastSession(t).closes.Load())
}

func TestStart_IsIdempotent(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter"}, PassInterval: time.Hour})

	require.True(t, s.Start())
	assert.False(t, s.Start())
	assert.True(t, s.Running())
	assert.True(t, h.observer.running.Load())

	_, err := s.RunPass(context.Background())
	require.ErrorIs(t, err, ingest.ErrAlreadyRunning)

	res := s.Stop(context.Background())
	assert.True(t, res.WasRunning)
	assert.False(t, s.Running())
	assert.False(t, h.observer.running.Load())

	h.mu.Lock()
	assert.Len(t, h.sessions, 1)
	h.mu.Unlock()
}

func TestStop_WhenIdle(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{})

	res := s.Stop(context.Background())
	assert.False(t, res.WasRunning)
	assert.False(t, res.Forced)
	assert.False(t, s.RequestStop())
}

func TestStop_InterruptsIntervalSleep(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{
		Parts:        []string{"oil filter"},
		PassInterval: time.Hour,
		StopGrace:    5 * time.Second,
	})

	require.True(t, s.Start())
	require.Eventually(t, func() bool { return s.Status().Passes == 1 }, 2*time.Second, 5*time.Millisecond)

	begin := time.Now()
	res := s.Stop(context.Background())

	assert.True(t, res.WasRunning)
	assert.False(t, res.Forced)
	assert.Less(t, time.Since(begin), time.Second)
	assert.Equal(t, int32(1), h.lastSession(t).closes.Load())
	assert.Equal(t, ingest.StateIdle, s.Status().State)
}

func TestStop_CooperativeAtPartBoundary(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{
		Parts:        []string{"oil filter", "brake pads", "spark plugs"},
		PassInterval: time.Hour,
	})
	h.reconciler.onCall = func(n int) {
		if n == 1 {
			s.RequestStop()
		}
	}

	require.True(t, s.Start())
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)

	calls := h.reconciler.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "oil filter", calls[0].part)
	assert.Empty(t, h.brands.markedIDs())
	assert.Zero(t, s.Status().Passes)
	assert.Equal(t, int32(1), h.lastSession(t).closes.Load())
}

func TestStop_ForcesCancelAfterGrace(t *testing.T) {
	h := newHarness()
	entered := make(chan struct{}, 1)
	h.adapters[0].block = true
	h.adapters[0].entered = entered
	s := h.scheduler(ingest.Config{
		Parts:     []string{"oil filter"},
		StopGrace: 50 * time.Millisecond,
	})

	require.True(t, s.Start())
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("adapter never started")
	}

	res := s.Stop(context.Background())

	assert.True(t, res.WasRunning)
	assert.True(t, res.Forced)
	assert.False(t, s.Running())
	assert.Empty(t, h.reconciler.snapshot(), "cancelled combination must not be reconciled")
	assert.Equal(t, int32(1), h.lastSession(t).closes.Load())

	for _, c := range h.log.snapshot() {
		assert.NotEqual(t, "africaboyz", c.retailer)
	}
}

func TestStart_AfterStopUsesFreshSession(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter"}, PassInterval: time.Hour})

	require.True(t, s.Start())
	s.Stop(context.Background())
	require.True(t, s.Start())
	s.Stop(context.Background())

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.sessions, 2)
	for _, sess := range h.sessions {
		assert.Equal(t, int32(1), sess.closes.Load())
	}
}

func TestRunPass_NarrowedToBrandAndPart(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter", "brake pads"}})

	summary, err := s.RunPass(context.Background(), ingest.OnlyBrand("bmw"), ingest.OnlyParts("radiator"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Brands)
	calls := h.reconciler.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, reconcileCall{brand: "BMW", part: "radiator", listings: 2}, calls[0])
	assert.Empty(t, h.brands.markedIDs(), "a pass over a subset of parts must not stamp the brand")
}

func TestRunPass_BrandOnlyStampsBrand(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter", "brake pads"}})

	summary, err := s.RunPass(context.Background(), ingest.OnlyBrand("toyota"))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Combinations)
	assert.Equal(t, []int64{1}, h.brands.markedIDs())
}

func TestRunPass_UnknownBrandVisitsNothing(t *testing.T) {
	h := newHarness()
	s := h.scheduler(ingest.Config{Parts: []string{"oil filter"}})

	summary, err := s.RunPass(context.Background(), ingest.OnlyBrand("Lada"))
	require.NoError(t, err)

	assert.Zero(t, summary.Brands)
	assert.Empty(t, h.reconciler.snapshot())
}
