package sqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/example/order-backend/internal/queue"
	"github.com/example/order-backend/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	inputs []*sqs.SendMessageInput
	errs   []error
}

func (f *fakeClient) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func fastRetry() *retry.Executor {
	return retry.NewExecutor(retry.Options{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}, nil)
}

func TestProducer_Send(t *testing.T) {
	client := &fakeClient{}
	msg, err := queue.NewMessage(queue.TypeProcessOrder, queue.ProcessOrderData{OrderID: "o-1"})
	require.NoError(t, err)

	require.NoError(t, NewProducer(client, "https://sqs.local/orders", fastRetry(), nil).Send(context.Background(), msg))

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.local/orders", aws.ToString(in.QueueUrl))
	assert.JSONEq(t, `{"type":"PROCESS_ORDER","data":{"orderId":"o-1"}}`, aws.ToString(in.MessageBody))
	assert.Equal(t, "PROCESS_ORDER", aws.ToString(in.MessageAttributes["type"].StringValue))
}

func TestProducer_SendRetries(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("throttled"), nil}}

	err := NewProducer(client, "q", fastRetry(), nil).Send(context.Background(), queue.Message{Type: queue.TypeSendEmail})

	require.NoError(t, err)
	assert.Len(t, client.inputs, 2)
}
