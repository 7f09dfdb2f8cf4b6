// Package sns publishes order notifications to an Amazon SNS topic.
package sns

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/retry"
	"go.uber.org/zap"
)

// API is the subset of *sns.Client used by Notifier.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	client   API
	topicARN string
	retry    *retry.Executor
	log      *zap.Logger
}

func NewNotifier(client API, topicARN string, exec *retry.Executor, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{client: client, topicARN: topicARN, retry: exec, log: log}
}

// Notify publishes message with subject. Attributes become SNS string
// message attributes so subscribers can filter on them.
func (n *Notifier) Notify(ctx context.Context, subject, message string, attributes map[string]string) error {
	attrs := make(map[string]types.MessageAttributeValue, len(attributes))
	for k, v := range attributes {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	err := n.retry.Do(ctx, "sns.Publish", func(ctx context.Context) error {
		_, err := n.client.Publish(ctx, &sns.PublishInput{
			TopicArn:          aws.String(n.topicARN),
			Subject:           aws.String(subject),
			Message:           aws.String(message),
			MessageAttributes: attrs,
		})
		return err
	})
	if err != nil {
		n.log.Error("failed to publish notification", zap.String("subject", subject), zap.Error(err))
		return apperror.External(err)
	}
	n.log.Info("notification published", zap.String("subject", subject))
	return nil
}
