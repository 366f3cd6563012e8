package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/partprice/internal/domain"
)

// run is one active scheduler loop. stop is the cooperative signal checked at
// brand and part boundaries; cancel aborts in-flight work.
type run struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	session  Session

	// brand and parts narrow a foreground pass when set.
	brand string
	parts []string
}

func newRun(parent context.Context, session Session) *run {
	ctx, cancel := context.WithCancel(parent)
	return &run{
		ctx:     ctx,
		cancel:  cancel,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		session: session,
	}
}

func (r *run) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// stopped reports whether the run should not begin new work.
func (r *run) stopped() bool {
	if r.ctx.Err() != nil {
		return true
	}
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// wait sleeps for d. It returns false early when the run is cancelled, or when
// a stop is requested and interruptible is set.
func (r *run) wait(d time.Duration, interruptible bool) bool {
	if d <= 0 {
		if interruptible {
			return !r.stopped()
		}
		return r.ctx.Err() == nil
	}

	stop := r.stop
	if !interruptible {
		stop = nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return r.ctx.Err() == nil
	case <-r.ctx.Done():
		return false
	case <-stop:
		return false
	}
}

func (r *run) selectBrands(all []domain.CarBrand) []domain.CarBrand {
	if r.brand == "" {
		return all
	}
	for _, b := range all {
		if strings.EqualFold(b.Name, r.brand) {
			return []domain.CarBrand{b}
		}
	}
	return nil
}

// fullCatalog reports whether the run visits every configured part name, so
// finishing a brand means it was fully scraped.
func (r *run) fullCatalog() bool {
	return len(r.parts) == 0
}

func (r *run) partNames(configured []string) []string {
	if len(r.parts) > 0 {
		return r.parts
	}
	return configured
}
