package order

import (
	"errors"
	"time"
)

var (
	ErrOrderIDRequired         = errors.New("Order ID is required")
	ErrCustomerIDRequired      = errors.New("Customer ID is required")
	ErrCustomerEmailRequired   = errors.New("Customer email is required")
	ErrItemsRequired           = errors.New("Order must have at least one item")
	ErrShippingAddressRequired = errors.New("Shipping address is required")
)

// Builder assembles an Order. Each With method mutates and returns the
// same builder.
type Builder struct {
	order     Order
	address   *Address
	statusSet bool
	now       func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

func (b *Builder) WithOrderID(id string) *Builder {
	b.order.OrderID = id
	return b
}

func (b *Builder) WithCustomerID(id string) *Builder {
	b.order.CustomerID = id
	return b
}

func (b *Builder) WithCustomerEmail(email string) *Builder {
	b.order.CustomerEmail = email
	return b
}

func (b *Builder) WithItems(items []Item) *Builder {
	b.order.Items = append([]Item(nil), items...)
	return b
}

func (b *Builder) AddItem(item Item) *Builder {
	b.order.Items = append(b.order.Items, item)
	return b
}

func (b *Builder) WithStatus(status Status) *Builder {
	b.order.Status = status
	b.statusSet = true
	return b
}

func (b *Builder) WithShippingAddress(address Address) *Builder {
	b.address = &address
	return b
}

func (b *Builder) WithMetadata(metadata map[string]string) *Builder {
	if len(metadata) == 0 {
		b.order.Metadata = nil
		return b
	}
	b.order.Metadata = make(map[string]string, len(metadata))
	for k, v := range metadata {
		b.order.Metadata[k] = v
	}
	return b
}

// Build checks required fields in a fixed order (order id, customer id,
// customer email, items, shipping address) and returns the first missing
// one as an error. The result has version 1, equal creation and update
// timestamps, and a total derived from its items.
func (b *Builder) Build() (*Order, error) {
	switch {
	case b.order.OrderID == "":
		return nil, ErrOrderIDRequired
	case b.order.CustomerID == "":
		return nil, ErrCustomerIDRequired
	case b.order.CustomerEmail == "":
		return nil, ErrCustomerEmailRequired
	case len(b.order.Items) == 0:
		return nil, ErrItemsRequired
	case b.address == nil:
		return nil, ErrShippingAddressRequired
	}

	o := b.order
	o.Items = append([]Item(nil), b.order.Items...)
	o.ShippingAddress = *b.address
	if !b.statusSet {
		o.Status = StatusPending
	}
	o.TotalAmount = Total(o.Items)

	now := b.now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Version = 1

	return &o, nil
}
