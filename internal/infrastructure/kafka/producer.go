// Package kafka carries event envelopes over Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/events"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by Producer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes envelopes to one topic, keyed by order id so events of
// an order stay on one partition.
type Producer struct {
	writer MessageWriter
}

var _ events.Bus = (*Producer)(nil)

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: writer}
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w MessageWriter) *Producer {
	return &Producer{writer: w}
}

// Send writes all entries in one call. kafka-go fails the whole call when
// any message is rejected.
func (p *Producer) Send(ctx context.Context, entries []events.Envelope) error {
	msgs := make([]kafka.Message, 0, len(entries))
	now := time.Now()
	for _, env := range entries {
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal envelope: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(env.Key),
			Value: data,
			Time:  now,
			Headers: []kafka.Header{
				{Key: "detail-type", Value: []byte(env.DetailType)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return apperror.External(fmt.Errorf("failed to write %d messages: %w", len(msgs), err))
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
