package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/payment"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// Processor event types the webhook acts on
const (
	StripeSessionCompleted      = "checkout.session.completed"
	StripeSessionExpired        = "checkout.session.expired"
	StripeAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Invalid webhook signature")

// WebhookResult describes what happened to one delivery
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// WebhookService verifies processor webhooks and republishes checkout outcomes as order events
type WebhookService struct {
	secret          string
	events          EventPublisher
	logger          *zap.Logger
	businessMetrics *telemetry.StorefrontMetrics
}

// NewWebhookService creates a WebhookService
func NewWebhookService(secret string, events EventPublisher, log *zap.Logger) *WebhookService {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookService{secret: secret, events: events, logger: log.Named("webhook")}
}

// SetBusinessMetrics sets the metrics recorder
func (s *WebhookService) SetBusinessMetrics(m *telemetry.StorefrontMetrics) {
	s.businessMetrics = m
}

// ProcessWebhook verifies the Stripe-Signature header and handles session events.
// Unhandled event types are acknowledged without action.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	log := logger.Enrich(ctx, s.logger)

	// an empty secret would accept payloads signed with an empty key
	if s.secret == "" {
		log.Warn("Webhook secret not configured, rejecting delivery")
		return nil, ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, ErrInvalidSignature.Wrap(err)
	}

	result := &WebhookResult{EventID: event.ID, EventType: string(event.Type), Processed: true}

	switch string(event.Type) {
	case StripeSessionCompleted, StripeSessionExpired, StripeAsyncPaymentSucceeded:
	default:
		log.Debug("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		result.Message = "Event type not handled"
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("Malformed checkout session").Wrap(err)
	}

	snapshot := payment.SnapshotFromSession(&session)
	status := order.StatusFromSession(snapshot.Status, snapshot.PaymentStatus)
	eventType := order.EventTypeForStatus(status)
	ev := order.NewEvent(eventType, snapshot.ID, snapshot.Email, snapshot.ItemIDs())
	ev.Status = status

	log.Info("Handling checkout session event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", snapshot.ID),
		zap.String("status", string(ev.Status)),
	)

	if s.events != nil {
		err := s.events.Publish(ctx, ev)
		if s.businessMetrics != nil {
			s.businessMetrics.RecordEventPublished(ctx, eventType, err)
		}
		if err != nil {
			result.Processed = false
			result.Message = err.Error()
			return result, fmt.Errorf("publish %s: %w", eventType, err)
		}
	}
	return result, nil
}
