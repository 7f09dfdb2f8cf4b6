package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type dispatchFunc func(ctx context.Context, event Event) error

// Registry maps event types to handlers. Registration and dispatch are safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Type]dispatchFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{handlers: make(map[Type]dispatchFunc), log: log}
}

// Register sets the handler for E's event type, replacing any handler
// registered earlier for that type.
func Register[E Variant](r *Registry, h func(ctx context.Context, event E) error) {
	var zero E
	eventType := zero.EventType()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = func(ctx context.Context, event Event) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("event %s has payload %T, handler expects %T", eventType, event, zero)
		}
		return h(ctx, typed)
	}
}

// Dispatch runs the handler registered for event's type. An event type with
// no handler is logged and ignored. Handler errors are returned unchanged.
func (r *Registry) Dispatch(ctx context.Context, event Event) error {
	r.mu.RLock()
	handler, ok := r.handlers[event.EventType()]
	r.mu.RUnlock()

	if !ok {
		r.log.Warn("no handler registered for event type", zap.String("eventType", string(event.EventType())))
		return nil
	}
	return handler(ctx, event)
}

// DispatchEnvelope decodes env and dispatches it. Unknown detail types are
// treated like unhandled ones.
func (r *Registry) DispatchEnvelope(ctx context.Context, env Envelope) error {
	event, err := Decode(env)
	if errors.Is(err, ErrUnknownType) {
		r.log.Warn("ignoring unknown event type",
			zap.String("eventType", string(env.DetailType)),
			zap.String("source", env.Source))
		return nil
	}
	if err != nil {
		return err
	}
	return r.Dispatch(ctx, event)
}
