package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/medico/backend/internal/application/checkout"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// CheckoutHandler serves the public storefront endpoints POST /payment and GET /track/:trackingId.
// Both answer errors with the flat {"error": ...} body the storefront expects.
type CheckoutHandler struct {
	service     *checkoutapp.Service
	showDetails bool
}

// NewCheckoutHandler creates a CheckoutHandler. showDetails adds the failure cause
// to 500 bodies and must be false in production.
func NewCheckoutHandler(service *checkoutapp.Service, showDetails bool) *CheckoutHandler {
	return &CheckoutHandler{service: service, showDetails: showDetails}
}

// PaymentRequest accepts both storefront variants: a list under medicineIds
// or a single id under medicineId. Ids may be JSON numbers or strings.
type PaymentRequest struct {
	MedicineIDs json.RawMessage `json:"medicineIds"`
	MedicineID  json.RawMessage `json:"medicineId"`
	Email       json.RawMessage `json:"email"`
}

// EmailAddress returns the email when it was sent as a JSON string, else ""
func (r PaymentRequest) EmailAddress() string {
	var email string
	if err := json.Unmarshal(r.Email, &email); err != nil {
		return ""
	}
	return email
}

// RawSelection returns the requested ids as a JSON list in the client's own spelling
func (r PaymentRequest) RawSelection() []byte {
	if present(r.MedicineIDs) {
		return r.MedicineIDs
	}
	if present(r.MedicineID) {
		return append(append([]byte{'['}, r.MedicineID...), ']')
	}
	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// ItemIDs normalizes either variant into a list. medicineIds wins when both are present.
func (r PaymentRequest) ItemIDs() ([]string, error) {
	if present(r.MedicineIDs) {
		return checkout.ParseIDList(r.MedicineIDs)
	}
	if present(r.MedicineID) {
		id, err := checkout.ParseID(r.MedicineID)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	return nil, checkout.ErrInvalidSelection
}

// TrackingItemResponse is one line of GET /track/:trackingId
type TrackingItemResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// TrackingResponse is the body of GET /track/:trackingId
type TrackingResponse struct {
	TrackingID string                 `json:"trackingId"`
	Status     string                 `json:"status"`
	Items      []TrackingItemResponse `json:"items"`
}

// CreatePayment godoc
// @Summary      Create a checkout session
// @Description  Validate the selection and email, create one hosted checkout session and return its URL. medicineId is accepted as a one-item selection.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body PaymentRequest true "Selection and customer email"
// @Success      200 {object} dto.CheckoutRedirect
// @Failure      400 {object} dto.PlainError
// @Failure      404 {object} dto.PlainError
// @Failure      500 {object} dto.PlainError
// @Router       /payment [post]
func (h *CheckoutHandler) CreatePayment(c *gin.Context) {
	var body PaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, checkout.ErrInvalidSelection.Wrap(err))
		return
	}

	ids, err := body.ItemIDs()
	if err != nil {
		h.fail(c, err)
		return
	}
	req, err := checkout.NewRequest(ids, body.EmailAddress())
	if err != nil {
		h.fail(c, err)
		return
	}
	req = req.WithRawSelection(body.RawSelection())

	session, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutRedirect{URL: session.URL})
}

// Track godoc
// @Summary      Track an order
// @Description  Report the payment status and items of a checkout session
// @Tags         checkout
// @Produce      json
// @Param        trackingId path string true "Checkout session ID"
// @Success      200 {object} TrackingResponse
// @Failure      404 {object} dto.PlainError
// @Failure      500 {object} dto.PlainError
// @Failure      503 {object} dto.PlainError
// @Router       /track/{trackingId} [get]
func (h *CheckoutHandler) Track(c *gin.Context) {
	tracking, err := h.service.Track(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]TrackingItemResponse, 0, len(tracking.Items))
	for _, it := range tracking.Items {
		items = append(items, TrackingItemResponse{ID: it.ID, Name: it.Name, Price: it.Price.InexactFloat64()})
	}
	c.JSON(http.StatusOK, TrackingResponse{
		TrackingID: tracking.TrackingID,
		Status:     string(tracking.Status),
		Items:      items,
	})
}

func (h *CheckoutHandler) fail(c *gin.Context, err error) {
	status, message := plainStatus(err)
	body := dto.PlainError{Error: message}
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error(message, zap.Error(err))
		if h.showDetails {
			body.Details = err.Error()
		}
	}
	c.JSON(status, body)
}

func plainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrInvalidSelection):
		return http.StatusBadRequest, checkout.ErrInvalidSelection.Message
	case errors.Is(err, checkout.ErrMissingEmail):
		return http.StatusBadRequest, checkout.ErrMissingEmail.Message
	case errors.Is(err, checkout.ErrItemsNotFound):
		return http.StatusNotFound, checkout.ErrItemsNotFound.Message
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, order.ErrOrderNotFound.Message
	case errors.Is(err, shared.ErrUnavailable):
		return http.StatusServiceUnavailable, checkoutapp.ErrTrackingUnavailable.Message
	default:
		return http.StatusInternalServerError, checkout.ErrProcessor.Message
	}
}
