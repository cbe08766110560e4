package interfaces

import (
	"context"
	"errors"
	"log"

	"erp-ledger/internal/ledger/application"
)

// LoggingPublisher logs voucher events. It is the default publisher when no
// broker is configured.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishVoucherPosted logs the event.
func (p *LoggingPublisher) PublishVoucherPosted(ctx context.Context, event application.VoucherPosted) error {
	_ = ctx
	if p == nil {
		return errors.New("ledger publisher: nil publisher")
	}
	p.logger.Printf("voucher posted: number=%s date=%s entries=%d debits=%s by=%s", event.VoucherNumber, event.VoucherDate, event.EntryCount, event.TotalDebits, event.CreatedBy)
	return nil
}

// PublishVoucherReversed logs the event.
func (p *LoggingPublisher) PublishVoucherReversed(ctx context.Context, event application.VoucherReversed) error {
	_ = ctx
	if p == nil {
		return errors.New("ledger publisher: nil publisher")
	}
	p.logger.Printf("voucher reversed: number=%s reversal=%s reason=%q", event.VoucherNumber, event.ReversalNumber, event.Reason)
	return nil
}
