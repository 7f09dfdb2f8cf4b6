package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// OrderProcessor advances an order into processing.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, orderID string) error
}

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RegisterHandlers wires the PROCESS_ORDER and SEND_EMAIL handlers into p.
func RegisterHandlers(p *Processor, orders OrderProcessor, mailer Mailer) {
	p.Handle(TypeProcessOrder, func(ctx context.Context, msg Message) error {
		var data ProcessOrderData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
		if data.OrderID == "" {
			return errors.New("process order message has no orderId")
		}
		return orders.ProcessOrder(ctx, data.OrderID)
	})

	p.Handle(TypeSendEmail, func(ctx context.Context, msg Message) error {
		var data SendEmailData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
		if data.To == "" {
			return errors.New("send email message has no recipient")
		}
		return mailer.Send(ctx, data.To, data.Subject, data.Body)
	})
}
