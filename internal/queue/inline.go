package queue

import (
	"context"

	"github.com/google/uuid"
)

// InlineSender processes messages in the caller's goroutine instead of
// enqueueing them. It stands in for a queue when none is configured.
type InlineSender struct {
	processor *Processor
}

var _ Sender = (*InlineSender)(nil)

func NewInlineSender(p *Processor) *InlineSender {
	return &InlineSender{processor: p}
}

func (s *InlineSender) Send(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return s.processor.Process(ctx, msg)
}
