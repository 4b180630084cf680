// Package format renders prices for templates and order emails.
package format

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/procure-marine/procure-marine-web/internal/models"
)

const quoteLabel = "Price on Request"

var printer = message.NewPrinter(language.AmericanEnglish)

// Amount formats a monetary amount with its currency symbol, e.g.
// Amount(1250.5, "USD") => "$1,250.50". Currencies without a common
// symbol, and unknown codes, fall back to "CODE amount". The printer
// localizes the number itself (grouping, decimal point).
func Amount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return printer.Sprintf("%s %.2f", code, amount)
	}
	switch unit {
	case currency.USD:
		return printer.Sprintf("$%.2f", amount)
	case currency.EUR:
		return printer.Sprintf("€%.2f", amount)
	case currency.GBP:
		return printer.Sprintf("£%.2f", amount)
	}
	return printer.Sprintf("%v %.2f", unit, amount)
}

// Price formats a product price, switching on the union tag so quote-only
// products never render as a zero amount.
func Price(p models.Price) string {
	if !p.Fixed() {
		return quoteLabel
	}
	return Amount(p.Amount, p.Currency)
}

// LineTotal formats price times quantity for a cart line.
func LineTotal(p models.Price, quantity int) string {
	if !p.Fixed() {
		return quoteLabel
	}
	return Amount(p.Amount*float64(quantity), p.Currency)
}

// Quantity renders a unit count like "3 item(s)".
func Quantity(n int) string {
	return fmt.Sprintf("%d item(s)", n)
}
