package fiscalperiod

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for voucher and period dates.
const DateLayout = "2006-01-02"

// Period is an administrative date range controlling when postings are
// allowed. Start and end dates are inclusive; sibling periods never overlap.
// A locked period is temporarily frozen (reversible); a closed period is
// permanently finalized.
type Period struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	IsLocked  bool
}

// Contains reports whether the date falls inside the period (inclusive).
func (p *Period) Contains(date time.Time) bool {
	day := Truncate(date)
	return !day.Before(Truncate(p.StartDate)) && !day.After(Truncate(p.EndDate))
}

// Truncate drops the time-of-day component in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// The error messages below are part of the posting contract and are surfaced
// to callers verbatim.

// NotFoundError is returned when no fiscal period covers a voucher date.
type NotFoundError struct {
	Date time.Time
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Voucher date (%s) is outside fiscal period", e.Date.Format(DateLayout))
}

var (
	// ErrPeriodLocked is returned when the enclosing period is locked.
	ErrPeriodLocked = errors.New("Cannot post transactions to a locked fiscal period")
	// ErrPeriodClosed is returned when the enclosing period is closed.
	ErrPeriodClosed = errors.New("Cannot post transactions to a closed fiscal period")
)
