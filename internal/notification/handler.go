// Package notification reacts to order events with customer notifications
// and follow-up work.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/order-backend/internal/email"
	"github.com/example/order-backend/internal/events"
	"github.com/example/order-backend/internal/queue"
	"go.uber.org/zap"
)

// Notifier publishes a notification to subscribers.
type Notifier interface {
	Notify(ctx context.Context, subject, message string, attributes map[string]string) error
}

// Handler turns order events into notifications and queue messages.
type Handler struct {
	notifier Notifier
	queue    queue.Sender
	log      *zap.Logger
}

func NewHandler(notifier Notifier, sender queue.Sender, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{notifier: notifier, queue: sender, log: log}
}

// Register installs the handler for every event type it reacts to.
func (h *Handler) Register(r *events.Registry) {
	events.Register(r, h.OrderCreated)
	events.Register(r, h.OrderUpdated)
	events.Register(r, h.OrderDeleted)
	events.Register(r, h.PaymentProcessed)
}

// OrderCreated notifies subscribers and queues the confirmation email.
func (h *Handler) OrderCreated(ctx context.Context, e events.OrderCreated) error {
	h.log.Info("processing order created", zap.String("orderId", e.OrderID), zap.String("customerId", e.CustomerID))

	if err := h.notify(ctx, e, fmt.Sprintf("Order %s created", e.OrderID)); err != nil {
		return err
	}
	if e.CustomerEmail == "" {
		h.log.Warn("order has no customer email, skipping confirmation", zap.String("orderId", e.OrderID))
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	msg, err := queue.NewMessage(queue.TypeSendEmail, queue.SendEmailData{
		To:      e.CustomerEmail,
		Subject: email.ConfirmationSubject(e.OrderID),
		Body:    email.BuildOrderConfirmationBody(e.OrderID, e.TotalAmount, items),
	})
	if err != nil {
		return err
	}
	if err := h.queue.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue confirmation for order %s: %w", e.OrderID, err)
	}
	return nil
}

// OrderUpdated notifies subscribers only when the status changed.
func (h *Handler) OrderUpdated(ctx context.Context, e events.OrderUpdated) error {
	status, ok := e.Updates["status"]
	if !ok {
		h.log.Debug("order updated without status change", zap.String("orderId", e.OrderID))
		return nil
	}
	return h.notify(ctx, e, email.StatusSubject(e.OrderID, fmt.Sprint(status)))
}

func (h *Handler) OrderDeleted(ctx context.Context, e events.OrderDeleted) error {
	return h.notify(ctx, e, fmt.Sprintf("Order %s deleted", e.OrderID))
}

// PaymentProcessed queues order processing once a payment completed.
func (h *Handler) PaymentProcessed(ctx context.Context, e events.PaymentProcessed) error {
	if e.Status != events.PaymentStatusCompleted {
		h.log.Info("payment not completed, order left pending",
			zap.String("orderId", e.OrderID),
			zap.String("paymentId", e.PaymentID),
			zap.String("status", e.Status))
		return nil
	}

	msg, err := queue.NewMessage(queue.TypeProcessOrder, queue.ProcessOrderData{OrderID: e.OrderID})
	if err != nil {
		return err
	}
	if err := h.queue.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to queue processing for order %s: %w", e.OrderID, err)
	}
	return nil
}

func (h *Handler) notify(ctx context.Context, e events.Event, subject string) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s notification: %w", e.EventType(), err)
	}
	attrs := map[string]string{
		"eventType": string(e.EventType()),
		"orderId":   e.PartitionKey(),
	}
	if err := h.notifier.Notify(ctx, subject, string(body), attrs); err != nil {
		return fmt.Errorf("failed to notify %s: %w", e.EventType(), err)
	}
	return nil
}
