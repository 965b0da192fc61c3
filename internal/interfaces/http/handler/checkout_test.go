package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/medico/backend/internal/application/checkout"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/infrastructure/persistence"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProcessor records every session request and serves canned sessions for tracking
type fakeProcessor struct {
	mu        sync.Mutex
	calls     []checkout.SessionParams
	createErr error
	sessions  map[string]*order.SessionSnapshot
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, params checkout.SessionParams) (*checkout.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, params)
	if p.createErr != nil {
		return nil, p.createErr
	}
	return &checkout.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (p *fakeProcessor) GetCheckoutSession(_ context.Context, id string) (*order.SessionSnapshot, error) {
	if s, ok := p.sessions[id]; ok {
		return s, nil
	}
	return nil, order.ErrOrderNotFound
}

func (p *fakeProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newCheckoutRouter(t *testing.T, processor *fakeProcessor, showDetails bool) *gin.Engine {
	t.Helper()

	catalog, err := persistence.NewSnapshotCatalog("")
	require.NoError(t, err)
	svc := checkoutapp.NewService(catalog, processor, nil, checkoutapp.Config{
		Currency:   "inr",
		SuccessURL: "http://localhost:5173/success",
		CancelURL:  "http://localhost:5173/cancel",
	}, zap.NewNop())

	h := NewCheckoutHandler(svc, showDetails)
	r := gin.New()
	r.POST("/payment", h.CreatePayment)
	r.GET("/track/:trackingId", h.Track)
	return r
}

func decodePlain(t *testing.T, w *httptest.ResponseRecorder) dto.PlainError {
	t.Helper()
	var body dto.PlainError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestCheckoutHandler_CreatePayment(t *testing.T) {
	processor := &fakeProcessor{}
	router := newCheckoutRouter(t, processor, false)

	w := doJSON(t, router, http.MethodPost, "/payment", `{"medicineIds":[1,2],"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body dto.CheckoutRedirect
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", body.URL)

	require.Equal(t, 1, processor.callCount())
	params := processor.calls[0]
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(5000), params.LineItems[0].UnitAmount)
	assert.Equal(t, int64(7500), params.LineItems[1].UnitAmount)
	assert.Equal(t, "inr", params.LineItems[0].Currency)
	assert.Equal(t, "a@b.com", params.CustomerEmail)
	assert.Equal(t, `[1,2]`, params.Metadata[checkout.MetadataItemIDs])
}

func TestCheckoutHandler_MetadataKeepsClientSelection(t *testing.T) {
	processor := &fakeProcessor{}
	router := newCheckoutRouter(t, processor, false)

	w := doJSON(t, router, http.MethodPost, "/payment", `{"medicineIds":[1, 1, "2"],"email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	params := processor.calls[0]
	assert.Len(t, params.LineItems, 2, "duplicate ids resolve to one line item")
	assert.Equal(t, `[1,1,"2"]`, params.Metadata[checkout.MetadataItemIDs])
}

func TestCheckoutHandler_CreatePaymentSingleIDVariant(t *testing.T) {
	processor := &fakeProcessor{}
	router := newCheckoutRouter(t, processor, false)

	w := doJSON(t, router, http.MethodPost, "/payment", `{"medicineId":"3","email":"a@b.com"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, processor.callCount())
	require.Len(t, processor.calls[0].LineItems, 1)
	assert.Equal(t, int64(15000), processor.calls[0].LineItems[0].UnitAmount)
	assert.Equal(t, `["3"]`, processor.calls[0].Metadata[checkout.MetadataItemIDs])
}

func TestCheckoutHandler_CreatePaymentRejected(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"empty list", `{"medicineIds":[],"email":"a@b.com"}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"not a list", `{"medicineIds":"1,2","email":"a@b.com"}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"object ids", `{"medicineIds":[{"id":1}],"email":"a@b.com"}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"no selection", `{"email":"a@b.com"}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"malformed json", `{"medicineIds":[1,`, http.StatusBadRequest, "Invalid medicine selection"},
		{"empty body", ``, http.StatusBadRequest, "Invalid medicine selection"},
		{"selection checked before email", `{"medicineIds":[]}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"email omitted", `{"medicineIds":[1]}`, http.StatusBadRequest, "Email is required"},
		{"blank email", `{"medicineIds":[1],"email":"   "}`, http.StatusBadRequest, "Email is required"},
		{"numeric email", `{"medicineIds":[1],"email":123}`, http.StatusBadRequest, "Email is required"},
		{"null email", `{"medicineIds":[1],"email":null}`, http.StatusBadRequest, "Email is required"},
		{"object email", `{"medicineIds":[1],"email":{"to":"a@b.com"}}`, http.StatusBadRequest, "Email is required"},
		{"bad selection wins over bad email", `{"medicineIds":"x","email":123}`, http.StatusBadRequest, "Invalid medicine selection"},
		{"no matches", `{"medicineIds":[404],"email":"a@b.com"}`, http.StatusNotFound, "Medicines not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &fakeProcessor{}
			router := newCheckoutRouter(t, processor, false)

			w := doJSON(t, router, http.MethodPost, "/payment", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodePlain(t, w).Error)
			assert.Zero(t, processor.callCount(), "processor must not be called")
		})
	}
}

func TestCheckoutHandler_ProcessorFailure(t *testing.T) {
	t.Run("details outside production", func(t *testing.T) {
		processor := &fakeProcessor{createErr: errors.New("card_declined")}
		router := newCheckoutRouter(t, processor, true)

		w := doJSON(t, router, http.MethodPost, "/payment", `{"medicineIds":[1],"email":"a@b.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodePlain(t, w)
		assert.Equal(t, "Failed to create payment session", body.Error)
		assert.Contains(t, body.Details, "card_declined")
		assert.Equal(t, 1, processor.callCount())
	})

	t.Run("details withheld in production", func(t *testing.T) {
		processor := &fakeProcessor{createErr: errors.New("card_declined")}
		router := newCheckoutRouter(t, processor, false)

		w := doJSON(t, router, http.MethodPost, "/payment", `{"medicineIds":[1],"email":"a@b.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "details")
	})
}

func TestCheckoutHandler_Track(t *testing.T) {
	processor := &fakeProcessor{sessions: map[string]*order.SessionSnapshot{
		"cs_paid": {
			ID:            "cs_paid",
			Status:        "complete",
			PaymentStatus: "paid",
			Metadata:      map[string]string{checkout.MetadataItemIDs: `["1","999","3"]`},
		},
	}}
	router := newCheckoutRouter(t, processor, false)

	t.Run("known session", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/track/cs_paid", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body TrackingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "cs_paid", body.TrackingID)
		assert.Equal(t, "paid", body.Status)
		require.Len(t, body.Items, 2)
		assert.Equal(t, "Paracetamol", body.Items[0].Name)
		assert.Equal(t, 50.0, body.Items[0].Price)
		assert.Equal(t, "Amoxicillin", body.Items[1].Name)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/track/cs_missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Order not found", decodePlain(t, w).Error)
	})
}
