// Package events defines the order domain events, their bus envelope, the
// publisher and the handler registry that dispatches consumed events.
package events

import (
	"time"

	"github.com/example/order-backend/internal/domain/order"
)

// Type is the discriminant of a domain event, carried as the envelope's
// detail type.
type Type string

const (
	TypeOrderCreated     Type = "ORDER_CREATED"
	TypeOrderUpdated     Type = "ORDER_UPDATED"
	TypeOrderDeleted     Type = "ORDER_DELETED"
	TypePaymentProcessed Type = "PAYMENT_PROCESSED"
)

// Event is implemented only by the variants in this file.
type Event interface {
	EventType() Type
	// PartitionKey groups events of the same order on ordered transports.
	PartitionKey() string
	event()
}

// Variant lists the concrete event types, so handlers can only be
// registered for a known payload.
type Variant interface {
	OrderCreated | OrderUpdated | OrderDeleted | PaymentProcessed
	Event
}

type OrderCreated struct {
	OrderID       string       `json:"orderId"`
	CustomerID    string       `json:"customerId"`
	CustomerEmail string       `json:"customerEmail,omitempty"`
	Items         []order.Item `json:"items"`
	TotalAmount   float64      `json:"totalAmount"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// OrderUpdated carries exactly the attributes written by the update.
type OrderUpdated struct {
	OrderID   string         `json:"orderId"`
	Updates   map[string]any `json:"updates"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type OrderDeleted struct {
	OrderID   string    `json:"orderId"`
	DeletedAt time.Time `json:"deletedAt"`
	Reason    string    `json:"reason,omitempty"`
}

// PaymentProcessed is published by the payment system, not by this service.
type PaymentProcessed struct {
	OrderID   string  `json:"orderId"`
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// PaymentStatusCompleted marks a successful payment.
const PaymentStatusCompleted = "COMPLETED"

func (OrderCreated) EventType() Type     { return TypeOrderCreated }
func (OrderUpdated) EventType() Type     { return TypeOrderUpdated }
func (OrderDeleted) EventType() Type     { return TypeOrderDeleted }
func (PaymentProcessed) EventType() Type { return TypePaymentProcessed }

func (e OrderCreated) PartitionKey() string     { return e.OrderID }
func (e OrderUpdated) PartitionKey() string     { return e.OrderID }
func (e OrderDeleted) PartitionKey() string     { return e.OrderID }
func (e PaymentProcessed) PartitionKey() string { return e.OrderID }

func (OrderCreated) event()     {}
func (OrderUpdated) event()     {}
func (OrderDeleted) event()     {}
func (PaymentProcessed) event() {}
