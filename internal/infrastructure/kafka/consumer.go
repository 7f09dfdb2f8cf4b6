package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/order-backend/internal/events"
	"github.com/example/order-backend/internal/retry"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EnvelopeHandler processes one decoded envelope.
type EnvelopeHandler func(ctx context.Context, env events.Envelope) error

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  MessageReader
	backoff retry.Options
	log     *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, log)
}

func NewConsumerWithReader(r MessageReader, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{reader: r, backoff: retry.DefaultOptions, log: log}
}

// WithFetchBackoff sets the delays between consecutive failed fetches.
func (c *Consumer) WithFetchBackoff(opts retry.Options) *Consumer {
	c.backoff = opts
	return c
}

// Consume reads until ctx is cancelled. Every fetched message is committed
// after the handler returns; handler errors are logged, not retried.
// Consecutive fetch failures back off exponentially.
func (c *Consumer) Consume(ctx context.Context, handler EnvelopeHandler) error {
	failures := 0
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			delay := c.backoff.Delay(failures)
			failures++
			c.log.Error("failed to fetch message",
				zap.Int("consecutiveFailures", failures),
				zap.Duration("delay", delay),
				zap.Error(err))
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}
		failures = 0

		fields := []zap.Field{
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.ByteString("key", msg.Key),
		}

		var env events.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.log.Error("dropping undecodable message", append(fields, zap.Error(err))...)
			c.commit(ctx, msg)
			continue
		}
		env.Key = string(msg.Key)

		if err := handler(ctx, env); err != nil {
			c.log.Error("failed to handle message",
				append(fields, zap.String("eventType", string(env.DetailType)), zap.Error(err))...)
		}
		c.commit(ctx, msg)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
