package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when decoding an envelope whose detail type is
// not one of the known variants.
var ErrUnknownType = errors.New("unknown event type")

// Envelope is the bus message wrapping one event.
type Envelope struct {
	Source     string          `json:"source"`
	DetailType Type            `json:"detailType"`
	Detail     json.RawMessage `json:"detail"`
	BusName    string          `json:"busName"`

	// Key is the transport partition key; it is not part of the message body.
	Key string `json:"-"`
}

// NewEnvelope wraps e for the given source and bus.
func NewEnvelope(source, busName string, e Event) (Envelope, error) {
	detail, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s event: %w", e.EventType(), err)
	}
	return Envelope{
		Source:     source,
		DetailType: e.EventType(),
		Detail:     detail,
		BusName:    busName,
		Key:        e.PartitionKey(),
	}, nil
}

// Decode returns the typed event carried by env.
func Decode(env Envelope) (Event, error) {
	switch env.DetailType {
	case TypeOrderCreated:
		return decodeDetail[OrderCreated](env)
	case TypeOrderUpdated:
		return decodeDetail[OrderUpdated](env)
	case TypeOrderDeleted:
		return decodeDetail[OrderDeleted](env)
	case TypePaymentProcessed:
		return decodeDetail[PaymentProcessed](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.DetailType)
	}
}

func decodeDetail[E Variant](env Envelope) (Event, error) {
	var e E
	if err := json.Unmarshal(env.Detail, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s detail: %w", env.DetailType, err)
	}
	return e, nil
}
