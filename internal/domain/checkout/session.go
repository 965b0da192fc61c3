package checkout

import (
	"encoding/json"
	"strings"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// MetadataItemIDs is the session metadata key holding the JSON list of requested ids,
// as the client sent them when known
const MetadataItemIDs = "medicineIds"

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a price to the processor's smallest currency unit,
// rounding half away from zero: 149.99 -> 14999, 150 -> 15000.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// LineItem is one product on a hosted checkout page
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Currency    string
	Quantity    int64
}

// SessionParams is everything the processor needs to host a checkout
type SessionParams struct {
	LineItems          []LineItem
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
	PaymentMethodTypes []string
	Mode               string
	Metadata           map[string]string
}

// Session is the processor's answer: an opaque id and the hosted page URL
type Session struct {
	ID  string
	URL string
}

// NewSessionParams builds a card payment session with one line item of quantity 1 per resolved item
func NewSessionParams(req Request, items []*catalog.Item, currency, successURL, cancelURL string) (SessionParams, error) {
	if len(items) == 0 {
		return SessionParams{}, ErrItemsNotFound
	}
	currency = strings.ToLower(currency)

	lines := make([]LineItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, LineItem{
			Name:        it.Name,
			Description: it.Description,
			UnitAmount:  MinorUnits(it.Price),
			Currency:    currency,
			Quantity:    1,
		})
	}

	ids := []byte(req.RawSelection)
	if len(ids) == 0 {
		var err error
		if ids, err = json.Marshal(req.ItemIDs); err != nil {
			return SessionParams{}, err
		}
	}

	return SessionParams{
		LineItems:          lines,
		CustomerEmail:      req.Email,
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
		PaymentMethodTypes: []string{"card"},
		Mode:               "payment",
		Metadata:           map[string]string{MetadataItemIDs: string(ids)},
	}, nil
}
