package validation

import (
	"strings"

	"github.com/example/order-backend/internal/domain/order"
)

// CreateOrderSchema parses order.CreateOrderRequest bodies.
type CreateOrderSchema struct{ V *Validator }

func (s CreateOrderSchema) Parse(body []byte) (any, error) {
	var req order.CreateOrderRequest
	if err := decode(body, &req, false); err != nil {
		return nil, err
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	normalizeItems(req.Items)
	normalizeAddress(req.ShippingAddress)

	if err := s.V.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateOrderSchema parses order.UpdateOrderRequest bodies. OrderID is
// filled in from the path by the handler.
type UpdateOrderSchema struct{ V *Validator }

func (s UpdateOrderSchema) Parse(body []byte) (any, error) {
	var req order.UpdateOrderRequest
	if err := decode(body, &req, false); err != nil {
		return nil, err
	}
	normalizeItems(req.Items)
	normalizeAddress(req.ShippingAddress)
	if req.Status != nil {
		status := order.Status(strings.ToUpper(strings.TrimSpace(string(*req.Status))))
		req.Status = &status
	}

	if err := s.V.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteOrderSchema accepts an empty body or {"reason": "..."}.
type DeleteOrderSchema struct{ V *Validator }

func (s DeleteOrderSchema) Parse(body []byte) (any, error) {
	var req order.DeleteOrderRequest
	if err := decode(body, &req, true); err != nil {
		return nil, err
	}
	req.Reason = strings.TrimSpace(req.Reason)

	if err := s.V.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}
