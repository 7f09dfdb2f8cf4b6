package email

import (
	"fmt"
	"html/template"
	"strings"
)

// OrderItem is one line of an order as shown in an email.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     float64
}

// ConfirmationSubject is the subject line of an order confirmation.
func ConfirmationSubject(orderID string) string {
	return fmt.Sprintf("Order confirmation (order #%s)", shortID(orderID))
}

// StatusSubject is the subject line of a status change notice.
func StatusSubject(orderID, status string) string {
	return fmt.Sprintf("Order #%s is now %s", shortID(orderID), strings.ToLower(status))
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Helvetica, Arial, sans-serif; color: #222; max-width: 560px; margin: 0 auto;">
	<h1 style="font-size: 20px; border-bottom: 3px solid #2f6fdb; padding-bottom: 8px;">Thanks, your order is in</h1>
	<p>Order <code>{{.OrderID}}</code> has been received. We will email you again when its status changes.</p>
	<table style="width: 100%; border-collapse: collapse;">
		<tr style="text-align: left; color: #666;"><th>Item</th><th>Qty</th><th>Unit</th><th>Line total</th></tr>
		{{- range .Lines}}
		<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>${{.Price}}</td><td>${{.Subtotal}}</td></tr>
		{{- end}}
	</table>
	<p style="text-align: right; font-size: 18px;"><strong>Total ${{.Total}}</strong></p>
	<p style="font-size: 11px; color: #999;">Automated message, replies are not monitored.</p>
</body>
</html>`))

type confirmationLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

// BuildOrderConfirmationBody renders the HTML confirmation for an order.
// Items without a name are listed by product id.
func BuildOrderConfirmationBody(orderID string, total float64, items []OrderItem) string {
	lines := make([]confirmationLine, len(items))
	for i, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		lines[i] = confirmationLine{
			Name:     name,
			Quantity: item.Quantity,
			Price:    formatAmount(item.Price),
			Subtotal: formatAmount(item.Price * float64(item.Quantity)),
		}
	}

	var b strings.Builder
	data := struct {
		OrderID string
		Lines   []confirmationLine
		Total   string
	}{orderID, lines, formatAmount(total)}
	// Execute only fails on template or writer errors; neither applies here.
	_ = confirmationTemplate.Execute(&b, data)
	return b.String()
}

// formatAmount renders a dollar amount with comma separators and two decimals.
func formatAmount(amount float64) string {
	str := fmt.Sprintf("%.2f", amount)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	whole, cents := str[:len(str)-3], str[len(str)-3:]
	if len(whole) <= 3 {
		return sign + whole + cents
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := len(whole) % 3
	if remainder > 0 {
		result.WriteString(whole[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < len(whole); i += 3 {
		result.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			result.WriteString(",")
		}
	}
	result.WriteString(cents)
	return result.String()
}
