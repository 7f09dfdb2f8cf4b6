package validation

import (
	"testing"

	"github.com/example/order-backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCreateBody = `{
	"customerId": "customer-123",
	"customerEmail": "test@example.com",
	"items": [{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "Product", "quantity": 2, "price": 29.99}],
	"shippingAddress": {"street": "123 Main St", "city": "Boston", "state": "MA", "zipCode": "02101"}
}`

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	fields := make([]string, len(vErr.Violations))
	for i, v := range vErr.Violations {
		fields[i] = v.Field
	}
	return fields
}

func TestCreateOrderSchema_Valid(t *testing.T) {
	schema := CreateOrderSchema{V: New()}

	parsed, err := schema.Parse([]byte(validCreateBody))

	require.NoError(t, err)
	req := parsed.(*order.CreateOrderRequest)
	assert.Equal(t, "customer-123", req.CustomerID)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 2, req.Items[0].Quantity)
	require.NotNil(t, req.ShippingAddress)
	assert.Equal(t, "US", req.ShippingAddress.Country)
}

func TestCreateOrderSchema_InvalidEmail(t *testing.T) {
	schema := CreateOrderSchema{V: New()}
	body := `{
		"customerId": "customer-123",
		"customerEmail": "invalid-email",
		"items": [{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "Product", "quantity": 2, "price": 29.99}],
		"shippingAddress": {"street": "123 Main St", "city": "Boston", "state": "MA", "zipCode": "02101"}
	}`

	_, err := schema.Parse([]byte(body))

	assert.Equal(t, []string{"customerEmail"}, violationFields(t, err))
}

func TestCreateOrderSchema_ReportsAllViolations(t *testing.T) {
	schema := CreateOrderSchema{V: New()}
	body := `{
		"customerId": "",
		"customerEmail": "nope",
		"items": [
			{"productId": "not-a-uuid", "name": "", "quantity": 0, "price": -1}
		],
		"shippingAddress": {"street": "", "city": "Boston", "state": "Mass", "zipCode": "2101"}
	}`

	_, err := schema.Parse([]byte(body))

	fields := violationFields(t, err)
	assert.ElementsMatch(t, []string{
		"customerId",
		"customerEmail",
		"items[0].productId",
		"items[0].name",
		"items[0].quantity",
		"items[0].price",
		"shippingAddress.street",
		"shippingAddress.state",
		"shippingAddress.zipCode",
	}, fields)
}

func TestCreateOrderSchema_ItemRules(t *testing.T) {
	tests := []struct {
		name  string
		items string
		field string
	}{
		{name: "empty list", items: `[]`, field: "items"},
		{name: "duplicate product", items: `[
			{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "A", "quantity": 1, "price": 1},
			{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "B", "quantity": 1, "price": 1}]`, field: "items"},
		{name: "long name", items: `[{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "` + string(make201()) + `", "quantity": 1, "price": 1}]`, field: "items[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"customerId": "c", "customerEmail": "a@b.io", "items": ` + tt.items + `,
				"shippingAddress": {"street": "s", "city": "c", "state": "MA", "zipCode": "02101"}}`

			_, err := CreateOrderSchema{V: New()}.Parse([]byte(body))

			assert.Equal(t, []string{tt.field}, violationFields(t, err))
		})
	}
}

func make201() []byte {
	b := make([]byte, 201)
	for i := range b {
		b[i] = 'x'
	}
	return b
}

func TestCreateOrderSchema_ZipPlusFour(t *testing.T) {
	body := `{"customerId": "c", "customerEmail": "a@b.io",
		"items": [{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "A", "quantity": 1, "price": 1}],
		"shippingAddress": {"street": "s", "city": "c", "state": "ma", "zipCode": "02101-1234", "country": "ca"}}`

	parsed, err := CreateOrderSchema{V: New()}.Parse([]byte(body))

	require.NoError(t, err)
	addr := parsed.(*order.CreateOrderRequest).ShippingAddress
	assert.Equal(t, "MA", addr.State)
	assert.Equal(t, "CA", addr.Country)
}

func TestCreateOrderSchema_MalformedBodies(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty", body: ``, field: "body"},
		{name: "syntax", body: `{"customerId":`, field: "body"},
		{name: "fractional quantity", body: `{"items": [{"quantity": 2.5}]}`, field: "items.quantity"},
		{name: "unknown field", body: `{"customerId": "c", "surprise": true}`, field: "surprise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateOrderSchema{V: New()}.Parse([]byte(tt.body))
			assert.Equal(t, []string{tt.field}, violationFields(t, err))
		})
	}
}

func TestUpdateOrderSchema(t *testing.T) {
	schema := UpdateOrderSchema{V: New()}

	t.Run("status only", func(t *testing.T) {
		parsed, err := schema.Parse([]byte(`{"status": "processing"}`))
		require.NoError(t, err)
		req := parsed.(*order.UpdateOrderRequest)
		require.NotNil(t, req.Status)
		assert.Equal(t, order.StatusProcessing, *req.Status)
		assert.Nil(t, req.Items)
		assert.Nil(t, req.ShippingAddress)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := schema.Parse([]byte(`{"status": "LOST"}`))
		assert.Equal(t, []string{"status"}, violationFields(t, err))
	})

	t.Run("empty items", func(t *testing.T) {
		_, err := schema.Parse([]byte(`{"items": []}`))
		assert.Equal(t, []string{"items"}, violationFields(t, err))
	})

	t.Run("address defaults country", func(t *testing.T) {
		parsed, err := schema.Parse([]byte(`{"shippingAddress": {"street": "1 Elm", "city": "Austin", "state": "TX", "zipCode": "73301"}}`))
		require.NoError(t, err)
		assert.Equal(t, "US", parsed.(*order.UpdateOrderRequest).ShippingAddress.Country)
	})
}

func TestDeleteOrderSchema(t *testing.T) {
	schema := DeleteOrderSchema{V: New()}

	parsed, err := schema.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, parsed.(*order.DeleteOrderRequest).Reason)

	parsed, err = schema.Parse([]byte(`{"reason": " customer request "}`))
	require.NoError(t, err)
	assert.Equal(t, "customer request", parsed.(*order.DeleteOrderRequest).Reason)
}

func TestError_Message(t *testing.T) {
	err := &Error{Violations: []Violation{{Field: "a", Message: "is required"}, {Field: "b", Message: "must be x"}}}
	assert.EqualError(t, err, "validation failed: a: is required; b: must be x")
}
