package application

import (
	"context"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	ledger "erp-ledger/internal/ledger/domain"

	"github.com/google/uuid"
)

// VoucherPosted is emitted after a voucher commits.
type VoucherPosted struct {
	EventID       string    `json:"event_id"`
	VoucherNumber string    `json:"voucher_number"`
	VoucherDate   string    `json:"voucher_date"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   *int64    `json:"reference_id,omitempty"`
	EntryCount    int       `json:"entry_count"`
	TotalDebits   string    `json:"total_debits"`
	CreatedBy     string    `json:"created_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// VoucherReversed is emitted after a reversal voucher commits.
type VoucherReversed struct {
	EventID        string    `json:"event_id"`
	VoucherNumber  string    `json:"voucher_number"`
	ReversalNumber string    `json:"reversal_number"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventPublisher notifies downstream consumers (reporting, ZATCA submission
// queues) about committed vouchers. Publishing is best-effort: a voucher that
// has committed is never failed because a publisher is down.
type EventPublisher interface {
	PublishVoucherPosted(ctx context.Context, event VoucherPosted) error
	PublishVoucherReversed(ctx context.Context, event VoucherReversed) error
}

func (s *PostingService) publishPosted(ctx context.Context, voucherNumber string, voucherDate time.Time, req PostRequest, totals ledger.SideTotals, entryCount int) {
	if s.publisher == nil {
		return
	}
	event := VoucherPosted{
		EventID:       uuid.New().String(),
		VoucherNumber: voucherNumber,
		VoucherDate:   voucherDate.Format(fiscalperiod.DateLayout),
		EntryCount:    entryCount,
		TotalDebits:   totals.Debits.String(),
		CreatedBy:     req.CreatedBy,
		OccurredAt:    s.clock.Now(),
	}
	if req.Reference != nil {
		event.ReferenceType = string(req.Reference.Type)
		event.ReferenceID = req.Reference.ID
	}
	if err := s.publisher.PublishVoucherPosted(ctx, event); err != nil {
		s.logger.Printf("ledger: publish voucher posted %s: %v", voucherNumber, err)
	}
}

func (s *PostingService) publishReversed(ctx context.Context, voucherNumber, reversalNumber, reason string) {
	if s.publisher == nil {
		return
	}
	event := VoucherReversed{
		EventID:        uuid.New().String(),
		VoucherNumber:  voucherNumber,
		ReversalNumber: reversalNumber,
		Reason:         reason,
		OccurredAt:     s.clock.Now(),
	}
	if err := s.publisher.PublishVoucherReversed(ctx, event); err != nil {
		s.logger.Printf("ledger: publish voucher reversed %s: %v", voucherNumber, err)
	}
}
