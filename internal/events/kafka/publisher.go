package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"erp-ledger/internal/ledger/application"
)

// Publisher writes voucher events to a Kafka topic for downstream
// consumers (reporting pipeline, ZATCA submission queue).
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher constructs a publisher against the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishVoucherPosted emits a posted-voucher event keyed by voucher number.
func (p *Publisher) PublishVoucherPosted(ctx context.Context, event application.VoucherPosted) error {
	return p.write(ctx, event.VoucherNumber, event)
}

// PublishVoucherReversed emits a reversed-voucher event keyed by the
// original voucher number so both events land on the same partition.
func (p *Publisher) PublishVoucherReversed(ctx context.Context, event application.VoucherReversed) error {
	return p.write(ctx, event.VoucherNumber, event)
}

func (p *Publisher) write(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
