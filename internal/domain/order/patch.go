package order

import (
	"time"

	"github.com/example/order-backend/internal/repository"
)

// Attribute names shared by the JSON, DynamoDB and patch representations.
const (
	AttrOrderID         = "orderId"
	AttrCustomerID      = "customerId"
	AttrItems           = "items"
	AttrStatus          = "status"
	AttrTotalAmount     = "totalAmount"
	AttrShippingAddress = "shippingAddress"
	AttrUpdatedAt       = "updatedAt"
	AttrVersion         = "version"
)

// Patch is the closed set of updatable order fields. UpdatedAt and Version
// are always written; nil fields are left untouched. ExpectedVersion, when
// non-zero, makes the write conditional on the stored version.
type Patch struct {
	UpdatedAt       time.Time
	Version         int
	Items           []Item
	TotalAmount     *float64
	Status          *Status
	ShippingAddress *Address
	ExpectedVersion int
}

var _ repository.Patch = Patch{}

func (p Patch) Assignments() []repository.Assignment {
	assignments := []repository.Assignment{
		{Attribute: AttrUpdatedAt, Value: p.UpdatedAt},
		{Attribute: AttrVersion, Value: p.Version},
	}
	if p.Items != nil {
		assignments = append(assignments, repository.Assignment{Attribute: AttrItems, Value: p.Items})
	}
	if p.TotalAmount != nil {
		assignments = append(assignments, repository.Assignment{Attribute: AttrTotalAmount, Value: *p.TotalAmount})
	}
	if p.Status != nil {
		assignments = append(assignments, repository.Assignment{Attribute: AttrStatus, Value: *p.Status})
	}
	if p.ShippingAddress != nil {
		assignments = append(assignments, repository.Assignment{Attribute: AttrShippingAddress, Value: *p.ShippingAddress})
	}
	return assignments
}

func (p Patch) Condition() *repository.Condition {
	if p.ExpectedVersion == 0 {
		return nil
	}
	return &repository.Condition{Attribute: AttrVersion, Value: p.ExpectedVersion}
}

// Fields returns the applied assignments keyed by attribute name.
func (p Patch) Fields() map[string]any {
	assignments := p.Assignments()
	fields := make(map[string]any, len(assignments))
	for _, a := range assignments {
		fields[a.Attribute] = a.Value
	}
	return fields
}
