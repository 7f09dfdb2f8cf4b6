// Package eventbridge sends event envelopes to an Amazon EventBridge bus.
package eventbridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/events"
)

// maxEntries is the PutEvents per-request limit.
const maxEntries = 10

// API is the subset of *eventbridge.Client used by Bus.
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// FailedEntriesError reports entries EventBridge rejected.
type FailedEntriesError struct {
	Failed int
	Total  int
	Codes  []string
}

func (e *FailedEntriesError) Error() string {
	return fmt.Sprintf("eventbridge rejected %d of %d entries: %s", e.Failed, e.Total, strings.Join(e.Codes, ", "))
}

type Bus struct {
	client API
}

var _ events.Bus = (*Bus)(nil)

func NewBus(client API) *Bus {
	return &Bus{client: client}
}

// Send puts entries in chunks of ten. Any rejected entry fails the call.
func (b *Bus) Send(ctx context.Context, entries []events.Envelope) error {
	failed := &FailedEntriesError{Total: len(entries)}

	for start := 0; start < len(entries); start += maxEntries {
		end := min(start+maxEntries, len(entries))
		input := &eventbridge.PutEventsInput{Entries: make([]types.PutEventsRequestEntry, 0, end-start)}
		for _, env := range entries[start:end] {
			input.Entries = append(input.Entries, types.PutEventsRequestEntry{
				Source:       aws.String(env.Source),
				DetailType:   aws.String(string(env.DetailType)),
				Detail:       aws.String(string(env.Detail)),
				EventBusName: aws.String(env.BusName),
			})
		}

		out, err := b.client.PutEvents(ctx, input)
		if err != nil {
			return apperror.External(fmt.Errorf("failed to put events: %w", err))
		}
		if out.FailedEntryCount == 0 {
			continue
		}
		failed.Failed += int(out.FailedEntryCount)
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				failed.Codes = append(failed.Codes, aws.ToString(entry.ErrorCode))
			}
		}
	}

	if failed.Failed > 0 {
		return apperror.External(failed)
	}
	return nil
}
