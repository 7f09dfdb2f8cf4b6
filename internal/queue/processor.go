package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// HandlerFunc processes one message.
type HandlerFunc func(ctx context.Context, msg Message) error

// BatchError names the messages of a batch that failed.
type BatchError struct {
	FailedIDs []string
	Total     int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to process %d of %d messages: %s", len(e.FailedIDs), e.Total, strings.Join(e.FailedIDs, ", "))
}

// Processor routes messages to handlers by type.
type Processor struct {
	handlers map[MessageType]HandlerFunc
	log      *zap.Logger
}

func NewProcessor(log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{handlers: make(map[MessageType]HandlerFunc), log: log}
}

// Handle registers fn for messages of type t. Call before processing starts.
func (p *Processor) Handle(t MessageType, fn HandlerFunc) {
	p.handlers[t] = fn
}

// Process runs the handler for msg. Messages of unknown type are logged and
// skipped.
func (p *Processor) Process(ctx context.Context, msg Message) error {
	handler, ok := p.handlers[msg.Type]
	if !ok {
		p.log.Warn("skipping message of unknown type", zap.String("messageId", msg.ID), zap.String("type", string(msg.Type)))
		return nil
	}
	return handler(ctx, msg)
}

// ProcessBatch processes every message concurrently. One failure does not
// stop the others; if any failed, a *BatchError lists their ids.
func (p *Processor) ProcessBatch(ctx context.Context, msgs []Message) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for _, msg := range msgs {
		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()
			if err := p.Process(ctx, msg); err != nil {
				p.log.Error("failed to process message",
					zap.String("messageId", msg.ID),
					zap.String("type", string(msg.Type)),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, msg.ID)
				mu.Unlock()
			}
		}(msg)
	}
	wg.Wait()

	p.log.Info("processed message batch", zap.Int("total", len(msgs)), zap.Int("failed", len(failed)))
	if len(failed) > 0 {
		return &BatchError{FailedIDs: failed, Total: len(msgs)}
	}
	return nil
}
