package memory

import (
	"context"
	"sync"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
)

// PeriodRepository is an in-memory fiscal period store for demo/testing.
type PeriodRepository struct {
	mu      sync.RWMutex
	nextID  int64
	periods []*fiscalperiod.Period
}

// NewPeriodRepository constructs a repository.
func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{}
}

// Seed inserts a period and returns its assigned id.
func (r *PeriodRepository) Seed(start, end time.Time, locked, closed bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.periods = append(r.periods, &fiscalperiod.Period{
		ID:        r.nextID,
		StartDate: fiscalperiod.Truncate(start),
		EndDate:   fiscalperiod.Truncate(end),
		IsLocked:  locked,
		IsClosed:  closed,
	})
	return r.nextID
}

// SetLocked updates the locked flag of a period.
func (r *PeriodRepository) SetLocked(id int64, locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, period := range r.periods {
		if period.ID == id {
			period.IsLocked = locked
		}
	}
}

// SetClosed updates the closed flag of a period.
func (r *PeriodRepository) SetClosed(id int64, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, period := range r.periods {
		if period.ID == id {
			period.IsClosed = closed
		}
	}
}

// FindForDate returns the period covering the date, or (nil, nil) when none
// is defined.
func (r *PeriodRepository) FindForDate(ctx context.Context, date time.Time) (*fiscalperiod.Period, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, period := range r.periods {
		if period.Contains(date) {
			copied := *period
			return &copied, nil
		}
	}
	return nil, nil
}
