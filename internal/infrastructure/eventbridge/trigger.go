package eventbridge

import (
	"context"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/example/order-backend/internal/events"
	"go.uber.org/zap"
)

// Dispatcher routes a decoded envelope to its handler.
type Dispatcher interface {
	DispatchEnvelope(ctx context.Context, env events.Envelope) error
}

// Trigger is the Lambda entry point for events delivered by an EventBridge
// rule. A handler error fails the invocation so EventBridge retries it.
type Trigger struct {
	dispatcher Dispatcher
	busName    string
	log        *zap.Logger
}

func NewTrigger(d Dispatcher, busName string, log *zap.Logger) *Trigger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trigger{dispatcher: d, busName: busName, log: log}
}

func (t *Trigger) Handle(ctx context.Context, event awsevents.CloudWatchEvent) error {
	env := events.Envelope{
		Source:     event.Source,
		DetailType: events.Type(event.DetailType),
		Detail:     event.Detail,
		BusName:    t.busName,
	}
	t.log.Info("received event",
		zap.String("id", event.ID),
		zap.String("source", event.Source),
		zap.String("detailType", event.DetailType))

	if err := t.dispatcher.DispatchEnvelope(ctx, env); err != nil {
		t.log.Error("failed to handle event", zap.String("id", event.ID), zap.Error(err))
		return err
	}
	return nil
}
