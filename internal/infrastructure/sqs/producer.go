// Package sqs sends work-queue messages to Amazon SQS.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/queue"
	"github.com/example/order-backend/internal/retry"
	"go.uber.org/zap"
)

// API is the subset of *sqs.Client used by Producer.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type Producer struct {
	client   API
	queueURL string
	retry    *retry.Executor
	log      *zap.Logger
}

var _ queue.Sender = (*Producer)(nil)

func NewProducer(client API, queueURL string, exec *retry.Executor, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{client: client, queueURL: queueURL, retry: exec, log: log}
}

func (p *Producer) Send(ctx context.Context, msg queue.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	out, err := retry.Value(ctx, p.retry, "sqs.SendMessage", func(ctx context.Context) (*sqs.SendMessageOutput, error) {
		return p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"type": {DataType: aws.String("String"), StringValue: aws.String(string(msg.Type))},
			},
		})
	})
	if err != nil {
		p.log.Error("failed to enqueue message", zap.String("type", string(msg.Type)), zap.Error(err))
		return apperror.External(err)
	}
	p.log.Info("message enqueued", zap.String("type", string(msg.Type)), zap.String("messageId", aws.ToString(out.MessageId)))
	return nil
}
