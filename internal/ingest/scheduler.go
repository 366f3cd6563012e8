// Package ingest drives the periodic scrape: every brand times every common
// part name, each retailer in turn, reconciling the results before moving on.
package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/reconcile"
	"github.com/jonesrussell/partprice/internal/retailer"
)

// Defaults used when Config leaves a duration unset.
const (
	DefaultPacingDelay  = 2 * time.Second
	DefaultPassInterval = 6 * time.Hour
	DefaultStopGrace    = 5 * time.Second
)

// ErrAlreadyRunning is returned by RunPass while a run is active.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Adapter searches one retailer through the run's session.
type Adapter interface {
	Name() string
	Search(ctx context.Context, f retailer.Fetcher, brand, part string) []domain.Listing
}

// Reconciler persists one brand and part batch.
type Reconciler interface {
	Reconcile(ctx context.Context, listings []domain.Listing, brand domain.CarBrand, category string) (reconcile.Result, error)
}

// BrandSource supplies the brands visited by each pass.
type BrandSource interface {
	List(ctx context.Context) ([]domain.CarBrand, error)
	MarkScraped(ctx context.Context, id int64, at time.Time) error
}

// Session is the network session owned by one run.
type Session interface {
	retailer.Fetcher
	Close() error
}

// SessionFactory acquires a fresh session for each run.
type SessionFactory func() Session

// Observer receives lifecycle and failure signals.
type Observer interface {
	PassCompleted(d time.Duration)
	CombinationFailed()
	SetRunning(running bool)
}

// Config controls pacing and the part catalog.
type Config struct {
	Parts        []string
	PacingDelay  time.Duration
	PassInterval time.Duration
	StopGrace    time.Duration
}

// Scheduler owns at most one background run at a time.
type Scheduler struct {
	cfg        Config
	adapters   []Adapter
	reconciler Reconciler
	brands     BrandSource
	newSession SessionFactory
	log        logger.Logger
	observer   Observer

	mu     sync.Mutex
	state  State
	run    *run
	status Status
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver reports lifecycle signals to o.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New creates an idle scheduler. Adapters are invoked in the given order.
func New(
	cfg Config,
	adapters []Adapter,
	reconciler Reconciler,
	brands BrandSource,
	newSession SessionFactory,
	log logger.Logger,
	opts ...Option,
) *Scheduler {
	if cfg.PacingDelay < 0 {
		cfg.PacingDelay = 0
	}
	if cfg.PassInterval <= 0 {
		cfg.PassInterval = DefaultPassInterval
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	s := &Scheduler{
		cfg:        cfg,
		adapters:   adapters,
		reconciler: reconciler,
		brands:     brands,
		newSession: newSession,
		log:        log.With(logger.String("component", "ingest")),
		state:      StateIdle,
		status:     Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background run. It returns false, doing nothing, when a
// run is already active.
func (s *Scheduler) Start() bool {
	r, ok := s.begin(context.Background())
	if !ok {
		return false
	}
	s.log.Info("Scheduler started",
		logger.Int("retailers", len(s.adapters)),
		logger.Int("parts", len(s.cfg.Parts)),
	)
	go s.loop(r)
	return true
}

// Running reports whether a run is active, including one that is stopping.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.State = s.state
	return st
}

// RequestStop signals the active run to stop at its next boundary. It does not wait.
func (s *Scheduler) RequestStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return false
	}
	s.state = StateStopping
	s.run.requestStop()
	return true
}

// Stop requests a cooperative stop and waits up to the configured grace
// period for the run to exit. After the grace period the run is cancelled and
// Stop waits for it to release its session. ctx bounds the whole wait.
func (s *Scheduler) Stop(ctx context.Context) StopResult {
	s.mu.Lock()
	r := s.run
	if r == nil {
		s.mu.Unlock()
		return StopResult{}
	}
	s.state = StateStopping
	r.requestStop()
	s.mu.Unlock()

	s.log.Info("Stop requested", logger.Duration("grace", s.cfg.StopGrace))

	grace := time.NewTimer(s.cfg.StopGrace)
	defer grace.Stop()

	select {
	case <-r.done:
		s.log.Info("Scheduler stopped cleanly")
		return StopResult{WasRunning: true}
	case <-grace.C:
	case <-ctx.Done():
	}

	s.log.Warn("Grace period elapsed, cancelling run")
	r.cancel()
	select {
	case <-r.done:
	case <-ctx.Done():
		s.log.Warn("Gave up waiting for cancelled run", logger.Error(ctx.Err()))
	}
	return StopResult{WasRunning: true, Forced: true}
}

// PassOption narrows a foreground pass.
type PassOption func(*run)

// OnlyBrand restricts the pass to the brand with the given name, matched
// case-insensitively.
func OnlyBrand(name string) PassOption {
	return func(r *run) { r.brand = strings.TrimSpace(name) }
}

// OnlyParts replaces the configured part names for the pass. A narrowed pass
// does not stamp brands as scraped.
func OnlyParts(parts ...string) PassOption {
	return func(r *run) { r.parts = parts }
}

// RunPass performs a single pass in the foreground with its own session and
// returns its summary. ctx cancellation stops the pass.
func (s *Scheduler) RunPass(ctx context.Context, opts ...PassOption) (PassSummary, error) {
	r, ok := s.begin(ctx)
	if !ok {
		return PassSummary{}, ErrAlreadyRunning
	}
	defer s.finish(r)
	for _, opt := range opts {
		opt(r)
	}

	summary := s.runPass(r)
	return summary, nil
}

// begin registers a new run and acquires its session.
func (s *Scheduler) begin(parent context.Context) (*run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return nil, false
	}

	r := newRun(parent, s.newSession())
	now := time.Now().UTC()
	s.run = r
	s.state = StateRunning
	s.status = Status{
		State:      StateRunning,
		StartedAt:  &now,
		Passes:     s.status.Passes,
		LastPass:   s.status.LastPass,
		LastPassAt: s.status.LastPassAt,
	}
	if s.observer != nil {
		s.observer.SetRunning(true)
	}
	return r, true
}

// finish releases the run's session and returns the scheduler to idle.
func (s *Scheduler) finish(r *run) {
	if err := r.session.Close(); err != nil {
		s.log.Warn("Failed to close fetch session", logger.Error(err))
	}
	r.cancel()

	s.mu.Lock()
	s.run = nil
	s.state = StateIdle
	s.status.CurrentBrand = ""
	s.status.CurrentPart = ""
	if s.observer != nil {
		s.observer.SetRunning(false)
	}
	s.mu.Unlock()

	close(r.done)
}

func (s *Scheduler) loop(r *run) {
	defer s.finish(r)

	for {
		summary := s.runPass(r)
		if !summary.Completed {
			s.log.Info("Scheduler loop exiting", logger.Bool("cancelled", r.ctx.Err() != nil))
			return
		}
		s.log.Info("Pass complete, sleeping",
			logger.Duration("interval", s.cfg.PassInterval),
			logger.Int("created", summary.Created),
			logger.Int("updated", summary.Updated),
			logger.Int("failures", summary.Failures),
		)
		if !r.wait(s.cfg.PassInterval, true) {
			s.log.Info("Scheduler loop exiting during interval sleep")
			return
		}
	}
}
