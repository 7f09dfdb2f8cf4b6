package order

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Item struct {
	ProductID string  `json:"productId" dynamodbav:"productId" validate:"required,uuid"`
	Name      string  `json:"name" dynamodbav:"name" validate:"required,max=200"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity" validate:"gt=0"`
	Price     float64 `json:"price" dynamodbav:"price" validate:"gt=0"`
}

type Address struct {
	Street  string `json:"street" dynamodbav:"street" validate:"required,max=200"`
	City    string `json:"city" dynamodbav:"city" validate:"required,max=100"`
	State   string `json:"state" dynamodbav:"state" validate:"required,len=2"`
	ZipCode string `json:"zipCode" dynamodbav:"zipCode" validate:"required,zipcode"`
	Country string `json:"country" dynamodbav:"country" validate:"omitempty,max=56"`
}

// DefaultCountry is applied to shipping addresses that omit a country.
const DefaultCountry = "US"

type Order struct {
	OrderID         string            `json:"orderId" dynamodbav:"orderId"`
	CustomerID      string            `json:"customerId" dynamodbav:"customerId"`
	CustomerEmail   string            `json:"customerEmail" dynamodbav:"customerEmail"`
	Items           []Item            `json:"items" dynamodbav:"items"`
	Status          Status            `json:"status" dynamodbav:"status"`
	TotalAmount     float64           `json:"totalAmount" dynamodbav:"totalAmount"`
	ShippingAddress Address           `json:"shippingAddress" dynamodbav:"shippingAddress"`
	Metadata        map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt" dynamodbav:"updatedAt"`
	Version         int               `json:"version" dynamodbav:"version"`
}

// Key returns the primary key of the order.
func (o *Order) Key() string { return o.OrderID }

// Total sums quantity times price over items. No rounding is applied.
func Total(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}
