package checkout

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/procure-marine/procure-marine-web/internal/format"
	"github.com/procure-marine/procure-marine-web/internal/models"
)

var orderEmailTmpl = template.Must(template.New("order-email").Funcs(template.FuncMap{
	"price":     format.Price,
	"lineTotal": format.LineTotal,
	"amount":    format.Amount,
	"units":     format.Quantity,
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>New Order Request - {{.OrderReference}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #003366; color: white; padding: 20px; text-align: center;">
    <h1 style="margin: 0;">New Order Request</h1>
    <p style="margin: 10px 0 0 0; font-size: 18px;">Reference: {{.OrderReference}}</p>
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; margin: 20px 0;">
    <h2 style="margin-top: 0; color: #003366;">Customer Information</h2>
    <p><strong>Name:</strong> {{.Order.Contact.FullName}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Order.Contact.Email}}">{{.Order.Contact.Email}}</a></p>
    <p><strong>Phone:</strong> {{.Order.Contact.Phone}}</p>
    {{if .Order.Contact.CompanyName}}<p><strong>Company:</strong> {{.Order.Contact.CompanyName}}</p>{{end}}
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; margin: 20px 0;">
    <h2 style="margin-top: 0; color: #003366;">Delivery Information</h2>
    <p><strong>Location/Port:</strong> {{.Order.Delivery.Location}}</p>
    {{if .Order.Delivery.Notes}}<p><strong>Notes:</strong> {{.Order.Delivery.Notes}}</p>{{end}}
  </div>

  <div style="margin: 20px 0;">
    <h2 style="color: #003366;">Order Items</h2>
    <table style="width: 100%; border-collapse: collapse; background-color: white; border: 1px solid #e5e7eb;">
      <thead>
        <tr style="background-color: #f3f4f6;">
          <th style="padding: 12px; text-align: left;">Product</th>
          <th style="padding: 12px; text-align: center;">Quantity</th>
          <th style="padding: 12px; text-align: right;">Unit Price</th>
          <th style="padding: 12px; text-align: right;">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Order.Items}}
        <tr>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb;">
            <strong>{{.Product.Name}}</strong><br>
            <span style="color: #6b7280; font-size: 14px;">Part No: {{.Product.PartNumber}}</span>
          </td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb; text-align: center;">{{.Quantity}}</td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb; text-align: right;">{{price .Product.Price}}</td>
          <td style="padding: 12px; border-bottom: 1px solid #e5e7eb; text-align: right;"><strong>{{lineTotal .Product.Price .Quantity}}</strong></td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #003366;">Order Summary</h3>
    <p><strong>Subtotal (Fixed Price Items):</strong> {{amount .Subtotal .Currency}}</p>
    {{if gt .QuoteItemsCount 0}}<p><strong>Quote Items:</strong> <span style="color: #ff9900;">{{units .QuoteItemsCount}} on request</span></p>{{end}}
    <p style="font-size: 18px; color: #003366;"><strong>Estimated Total: {{amount .Subtotal .Currency}}{{if gt .QuoteItemsCount 0}} + Quote Items{{end}}</strong></p>
  </div>

  {{if .Order.AdditionalNotes}}
  <div style="background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #856404;">Additional Notes</h3>
    <p style="margin: 0; white-space: pre-wrap;">{{.Order.AdditionalNotes}}</p>
  </div>
  {{end}}

  <div style="margin-top: 30px; padding-top: 20px; border-top: 2px solid #e5e7eb; color: #6b7280; font-size: 14px;">
    <p><strong>Submitted:</strong> {{.Order.SubmittedAt.Format "Monday, January 2, 2006 3:04 PM MST"}}</p>
    <p style="margin-top: 20px;">
      <em>This is an automated order request from the Procure Marine website.
      Please contact the customer to provide a formal quote and arrange payment and delivery.</em>
    </p>
  </div>
</body>
</html>`))

type orderEmailData struct {
	Order           models.OrderSubmission
	OrderReference  string
	Subtotal        float64
	Currency        string
	QuoteItemsCount int
}

// renderOrderEmail produces the HTML notification body. The subtotal
// covers fixed-price items only and renders in their currency (the catalog
// is single-currency; quote-only orders fall back to USD); the quote line
// appears only when quote items exist, so a zero-quote order never shows a
// misleading zero count.
func renderOrderEmail(order models.OrderSubmission, reference string) (string, error) {
	data := orderEmailData{Order: order, OrderReference: reference, Currency: "USD"}
	currencySet := false
	for _, item := range order.Items {
		if item.Product.Price.Fixed() {
			data.Subtotal += item.Product.Price.Amount * float64(item.Quantity)
			if !currencySet {
				data.Currency = item.Product.Price.Currency
				currencySet = true
			}
		} else {
			data.QuoteItemsCount += item.Quantity
		}
	}

	var buf bytes.Buffer
	if err := orderEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}
