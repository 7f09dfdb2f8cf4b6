// Package queue defines work-queue messages and processes them in batches.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	TypeProcessOrder MessageType = "PROCESS_ORDER"
	TypeSendEmail    MessageType = "SEND_EMAIL"
)

// Message is the body of a work-queue message. ID is the transport's
// message id and is not serialized.
type Message struct {
	ID   string          `json:"-"`
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ProcessOrderData struct {
	OrderID string `json:"orderId"`
}

type SendEmailData struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewMessage encodes data as the payload of a message of type t.
func NewMessage(t MessageType, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Data: raw}, nil
}

// Sender enqueues messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
