package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutapp "github.com/medico/backend/internal/application/checkout"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Stripe webhook payloads are small; anything bigger is not from Stripe
const maxWebhookPayloadSize = 65536

// WebhookHandler receives payment processor webhooks. It is unauthenticated;
// the Stripe-Signature header is the only trust anchor.
type WebhookHandler struct {
	webhookService *checkoutapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *checkoutapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripe godoc
// @Summary      Stripe webhook
// @Description  Verify the Stripe-Signature header and publish checkout outcomes as order events. Verification failures are 400 so Stripe stops retrying; publish failures are 500 so it retries later.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe signature"
// @Success      200 {object} WebhookResponse
// @Failure      400 {object} WebhookResponse
// @Failure      413 {object} WebhookResponse
// @Failure      500 {object} WebhookResponse
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	// the raw body is needed for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{Message: "Failed to read request body"})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, WebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	switch {
	case errors.Is(err, checkoutapp.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, WebhookResponse{Message: "Webhook signature verification failed"})
		return
	case errors.Is(err, shared.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, WebhookResponse{Message: "Malformed webhook payload"})
		return
	case err != nil:
		logger.L(c.Request.Context()).Error("Failed to process webhook", zap.Error(err))
		resp := WebhookResponse{Message: "Webhook processing failed"}
		if result != nil {
			resp.EventID = result.EventID
			resp.EventType = result.EventType
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}
