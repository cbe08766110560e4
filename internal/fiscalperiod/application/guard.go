package application

import (
	"context"
	"errors"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
)

// PeriodRepository looks up fiscal periods by date.
type PeriodRepository interface {
	// FindForDate returns the period whose inclusive range covers the date,
	// or (nil, nil) when no period is defined for it.
	FindForDate(ctx context.Context, date time.Time) (*fiscalperiod.Period, error)
}

// Guard validates that a voucher date may receive postings. It re-resolves
// the period on every call so a lock or close applied by period
// administration takes effect immediately.
type Guard struct {
	periods PeriodRepository
}

// NewGuard constructs a guard.
func NewGuard(periods PeriodRepository) (*Guard, error) {
	if periods == nil {
		return nil, errors.New("fiscal period guard: nil repository")
	}
	return &Guard{periods: periods}, nil
}

// Resolve returns the enclosing open period for the date. The locked flag is
// checked before the closed flag, matching the posting contract's message
// precedence when both flags are set.
func (g *Guard) Resolve(ctx context.Context, date time.Time) (*fiscalperiod.Period, error) {
	period, err := g.periods.FindForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, &fiscalperiod.NotFoundError{Date: date}
	}
	if period.IsLocked {
		return nil, fiscalperiod.ErrPeriodLocked
	}
	if period.IsClosed {
		return nil, fiscalperiod.ErrPeriodClosed
	}
	return period, nil
}
