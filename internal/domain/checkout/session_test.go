package checkout

import (
	"testing"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"149.99", 14999},
		{"150", 15000},
		{"0", 0},
		{"0.005", 1},
		{"12.345", 1235},
		{"19.994", 1999},
		{"50", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.price)))
		})
	}
}

func TestNewSessionParams(t *testing.T) {
	req, err := NewRequest([]string{"1", "2"}, "a@b.com")
	require.NoError(t, err)
	items := []*catalog.Item{
		{ID: "1", Name: "Paracetamol", Description: "Pain reliever", Price: decimal.NewFromInt(50)},
		{ID: "2", Name: "Ibuprofen", Description: "Anti-inflammatory", Price: decimal.NewFromInt(75)},
	}

	params, err := NewSessionParams(req, items, "INR", "http://localhost:5173/success", "http://localhost:5173/cancel")
	require.NoError(t, err)

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, LineItem{Name: "Paracetamol", Description: "Pain reliever", UnitAmount: 5000, Currency: "inr", Quantity: 1}, params.LineItems[0])
	assert.Equal(t, int64(7500), params.LineItems[1].UnitAmount)
	assert.Equal(t, []string{"card"}, params.PaymentMethodTypes)
	assert.Equal(t, "payment", params.Mode)
	assert.Equal(t, "a@b.com", params.CustomerEmail)
	assert.Equal(t, "http://localhost:5173/success", params.SuccessURL)
	assert.Equal(t, "http://localhost:5173/cancel", params.CancelURL)
	assert.JSONEq(t, `["1","2"]`, params.Metadata[MetadataItemIDs])
}

func TestNewSessionParams_NoItems(t *testing.T) {
	req, err := NewRequest([]string{"9"}, "a@b.com")
	require.NoError(t, err)

	_, err = NewSessionParams(req, nil, "inr", "s", "c")
	assert.ErrorIs(t, err, ErrItemsNotFound)
}

func TestNewSessionParams_MetadataUsesRawSelection(t *testing.T) {
	req, err := NewRequest([]string{"1", "1", "2"}, "a@b.com")
	require.NoError(t, err)
	req = req.WithRawSelection([]byte(`[1,1,2]`))
	items := []*catalog.Item{
		{ID: "1", Name: "Paracetamol", Price: decimal.NewFromInt(50)},
		{ID: "2", Name: "Ibuprofen", Price: decimal.NewFromInt(75)},
	}

	params, err := NewSessionParams(req, items, "inr", "s", "c")
	require.NoError(t, err)
	assert.Len(t, params.LineItems, 2)
	assert.Equal(t, `[1,1,2]`, params.Metadata[MetadataItemIDs])
}
