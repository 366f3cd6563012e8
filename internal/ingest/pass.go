package ingest

import (
	"fmt"
	"time"

	"github.com/jonesrussell/partprice/internal/domain"
	"github.com/jonesrussell/partprice/internal/logger"
	"github.com/jonesrussell/partprice/internal/reconcile"
)

// runPass visits every brand and part once. The summary is marked Completed
// only when the pass reached its end without a stop or cancellation.
func (s *Scheduler) runPass(r *run) PassSummary {
	start := time.Now()
	var summary PassSummary

	brands, err := s.brands.List(r.ctx)
	if err != nil {
		s.log.Error("Failed to list brands", logger.Error(err))
		summary.Failures++
		summary.Completed = !r.stopped()
		return s.endPass(summary, start)
	}

	parts := r.partNames(s.cfg.Parts)
	for _, brand := range r.selectBrands(brands) {
		if r.stopped() {
			return s.endPass(summary, start)
		}
		summary.Brands++

		for _, part := range parts {
			if r.stopped() {
				return s.endPass(summary, start)
			}
			s.setCurrent(brand.Name, part, summary)

			listings, result, cerr := s.runCombination(r, brand, part)
			summary.Combinations++
			summary.Listings += listings
			summary.Created += result.Created
			summary.Updated += result.Updated
			if cerr != nil {
				summary.Failures++
				if s.observer != nil {
					s.observer.CombinationFailed()
				}
				s.log.Error("Combination failed",
					logger.String("brand", brand.Name),
					logger.String("part", part),
					logger.Error(cerr),
				)
			}
			s.setCurrent(brand.Name, part, summary)

			if !r.wait(s.cfg.PacingDelay, true) {
				return s.endPass(summary, start)
			}
		}

		if !r.fullCatalog() {
			continue
		}
		if err := s.brands.MarkScraped(r.ctx, brand.ID, time.Now().UTC()); err != nil {
			s.log.Warn("Failed to stamp brand", logger.String("brand", brand.Name), logger.Error(err))
		}
	}

	summary.Completed = true
	return s.endPass(summary, start)
}

// runCombination queries every adapter in order and reconciles the combined
// batch. A panic is recovered and reported as an error so the pass continues.
func (s *Scheduler) runCombination(r *run, brand domain.CarBrand, part string) (n int, res reconcile.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	var listings []domain.Listing
	for i, a := range s.adapters {
		if i > 0 && !r.wait(s.cfg.PacingDelay, false) {
			return len(listings), res, r.ctx.Err()
		}
		found := a.Search(r.ctx, r.session, brand.Name, part)
		s.log.Debug("Retailer searched",
			logger.String("retailer", a.Name()),
			logger.String("brand", brand.Name),
			logger.String("part", part),
			logger.Int("listings", len(found)),
		)
		listings = append(listings, found...)
	}

	if cerr := r.ctx.Err(); cerr != nil {
		return len(listings), res, cerr
	}

	res, err = s.reconciler.Reconcile(r.ctx, listings, brand, part)
	if err != nil {
		return len(listings), res, fmt.Errorf("reconcile %s/%s: %w", brand.Name, part, err)
	}
	return len(listings), res, nil
}

func (s *Scheduler) setCurrent(brand, part string, summary PassSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.CurrentBrand = brand
	s.status.CurrentPart = part
	s.status.Current = summary
}

func (s *Scheduler) endPass(summary PassSummary, start time.Time) PassSummary {
	summary.Duration = time.Since(start)

	s.mu.Lock()
	s.status.Current = summary
	if summary.Completed {
		now := time.Now().UTC()
		s.status.Passes++
		s.status.LastPass = &summary
		s.status.LastPassAt = &now
	}
	s.mu.Unlock()

	if summary.Completed && s.observer != nil {
		s.observer.PassCompleted(summary.Duration)
	}
	return summary
}
