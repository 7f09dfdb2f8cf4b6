package order

import "fmt"

// CreateOrderRequest is the validated body of an order creation.
type CreateOrderRequest struct {
	CustomerID      string            `json:"customerId" validate:"required,max=128"`
	CustomerEmail   string            `json:"customerEmail" validate:"required,email"`
	Items           []Item            `json:"items" validate:"required,min=1,unique=ProductID,dive"`
	ShippingAddress *Address          `json:"shippingAddress" validate:"required"`
	Metadata        map[string]string `json:"metadata,omitempty" validate:"omitempty,max=50"`
}

// UpdateOrderRequest carries only the fields the caller supplied.
type UpdateOrderRequest struct {
	OrderID         string   `json:"-"`
	Items           []Item   `json:"items,omitempty" validate:"omitnil,min=1,unique=ProductID,dive"`
	Status          *Status  `json:"status,omitempty" validate:"omitnil,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	ShippingAddress *Address `json:"shippingAddress,omitempty" validate:"omitnil"`
}

type DeleteOrderRequest struct {
	OrderID string `json:"-"`
	Reason  string `json:"reason,omitempty" validate:"max=500"`
}

// NotFoundError reports a missing order.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Order not found: %s", e.ID)
}
