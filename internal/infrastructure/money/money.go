// Package money formats decimal amounts for display in the storefront currency.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with the currency symbol and locale grouping
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter parses an ISO 4217 code such as "inr" or "USD"; tag picks the locale conventions
func NewFormatter(code string, tag language.Tag) (*Formatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("unknown currency %q: %w", code, err)
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

// Code returns the lower-case ISO code, the form payment processors expect
func (f *Formatter) Code() string {
	return strings.ToLower(f.unit.String())
}

// Format renders d with its currency symbol
func (f *Formatter) Format(d decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(d.InexactFloat64())))
}
