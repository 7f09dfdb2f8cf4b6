package events

import (
	"context"
	"fmt"

	"github.com/example/order-backend/internal/retry"
	"go.uber.org/zap"
)

// Bus delivers envelopes to the event transport. Send fails if any entry
// was rejected, even when others were accepted.
type Bus interface {
	Send(ctx context.Context, entries []Envelope) error
}

// Publisher stamps events with a fixed source and bus name and sends them
// with retry.
type Publisher struct {
	bus     Bus
	source  string
	busName string
	retry   *retry.Executor
	log     *zap.Logger
}

func NewPublisher(bus Bus, source, busName string, exec *retry.Executor, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{bus: bus, source: source, busName: busName, retry: exec, log: log}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	env, err := NewEnvelope(p.source, p.busName, event)
	if err != nil {
		return err
	}

	err = p.retry.Do(ctx, "events.publish", func(ctx context.Context) error {
		return p.bus.Send(ctx, []Envelope{env})
	})
	if err != nil {
		p.log.Error("failed to publish event",
			zap.String("eventType", string(env.DetailType)),
			zap.String("key", env.Key),
			zap.Error(err))
		return err
	}
	p.log.Info("event published", zap.String("eventType", string(env.DetailType)), zap.String("key", env.Key))
	return nil
}

// PublishBatch sends all events together. A partial failure fails the whole
// batch; retries resend every entry.
func (p *Publisher) PublishBatch(ctx context.Context, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	entries := make([]Envelope, 0, len(batch))
	for _, event := range batch {
		env, err := NewEnvelope(p.source, p.busName, event)
		if err != nil {
			return err
		}
		entries = append(entries, env)
	}

	err := p.retry.Do(ctx, "events.publishBatch", func(ctx context.Context) error {
		return p.bus.Send(ctx, entries)
	})
	if err != nil {
		p.log.Error("failed to publish event batch", zap.Int("count", len(entries)), zap.Error(err))
		return fmt.Errorf("failed to publish %d events: %w", len(entries), err)
	}
	p.log.Info("event batch published", zap.Int("count", len(entries)))
	return nil
}
