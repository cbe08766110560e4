package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
)

// PeriodRepository reads fiscal periods.
type PeriodRepository struct {
	db *sql.DB
}

// NewPeriodRepository constructs a repository.
func NewPeriodRepository(db *sql.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// FindForDate returns the period covering the date, or (nil, nil) when none
// is defined. Periods are non-overlapping so at most one row can match.
func (r *PeriodRepository) FindForDate(ctx context.Context, date time.Time) (*fiscalperiod.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("period repo: nil db")
	}
	day := fiscalperiod.Truncate(date)
	row := r.db.QueryRowContext(ctx, `
SELECT id, start_date, end_date, is_closed, is_locked
FROM fiscal_periods
WHERE start_date <= $1 AND end_date >= $1
LIMIT 1`, day)

	var period fiscalperiod.Period
	err := row.Scan(&period.ID, &period.StartDate, &period.EndDate, &period.IsClosed, &period.IsLocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}
