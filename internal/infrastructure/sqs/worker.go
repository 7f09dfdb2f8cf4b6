package sqs

import (
	"context"
	"encoding/json"
	"errors"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/example/order-backend/internal/queue"
	"go.uber.org/zap"
)

// BatchProcessor processes decoded messages.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, msgs []queue.Message) error
}

// Worker is the Lambda entry point for SQS batches. The invocation fails
// with a *queue.BatchError when any record failed, undecodable ones included.
type Worker struct {
	processor BatchProcessor
	log       *zap.Logger
}

func NewWorker(p BatchProcessor, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{processor: p, log: log}
}

func (w *Worker) Handle(ctx context.Context, event awsevents.SQSEvent) error {
	w.log.Info("received messages", zap.Int("count", len(event.Records)))

	msgs := make([]queue.Message, 0, len(event.Records))
	var undecodable []string
	for _, record := range event.Records {
		var msg queue.Message
		if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
			w.log.Error("failed to decode message", zap.String("messageId", record.MessageId), zap.Error(err))
			undecodable = append(undecodable, record.MessageId)
			continue
		}
		msg.ID = record.MessageId
		msgs = append(msgs, msg)
	}

	err := w.processor.ProcessBatch(ctx, msgs)
	if err == nil && len(undecodable) == 0 {
		return nil
	}

	failed := append([]string(nil), undecodable...)
	var batchErr *queue.BatchError
	switch {
	case errors.As(err, &batchErr):
		failed = append(failed, batchErr.FailedIDs...)
	case err != nil:
		return err
	}
	return &queue.BatchError{FailedIDs: failed, Total: len(event.Records)}
}
