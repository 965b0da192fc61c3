package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrTrackingUnavailable is returned when the processor cannot be asked about a session
var ErrTrackingUnavailable = shared.ErrUnavailable.WithMessage("Failed to fetch order status")

// PaymentProcessor hosts checkout pages. GetCheckoutSession returns
// order.ErrOrderNotFound when the processor does not know the id.
type PaymentProcessor interface {
	CreateCheckoutSession(ctx context.Context, params checkout.SessionParams) (*checkout.Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*order.SessionSnapshot, error)
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event order.Event) error
}

// Config fixes the session parameters that do not come from the request
type Config struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Service turns checkout requests into processor-hosted sessions and answers tracking lookups
type Service struct {
	catalog         catalog.Repository
	processor       PaymentProcessor
	events          EventPublisher
	config          Config
	logger          *zap.Logger
	businessMetrics *telemetry.StorefrontMetrics
}

// NewService creates a checkout Service. events may be nil.
func NewService(repo catalog.Repository, processor PaymentProcessor, events EventPublisher, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "inr"
	}
	return &Service{
		catalog:   repo,
		processor: processor,
		events:    events,
		config:    cfg,
		logger:    log.Named("checkout"),
	}
}

// SetBusinessMetrics sets the metrics recorder
func (s *Service) SetBusinessMetrics(m *telemetry.StorefrontMetrics) {
	s.businessMetrics = m
}

// CreateSession resolves the requested items and asks the processor for exactly one session.
// Resolution and processor failures are ErrProcessor wrapping the cause.
func (s *Service) CreateSession(ctx context.Context, req checkout.Request) (*checkout.Session, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "create_session",
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.ItemIDs)),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger)

	items, err := s.catalog.FindByIDs(ctx, req.ItemIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, checkout.ErrProcessor.Code)
		log.Error("Failed to resolve medicines", zap.Strings("medicine_ids", req.ItemIDs), zap.Error(err))
		return nil, checkout.ErrProcessor.Wrap(err)
	}

	params, err := checkout.NewSessionParams(req, items, s.config.Currency, s.config.SuccessURL, s.config.CancelURL)
	if err != nil {
		telemetry.RecordError(span, err)
		var de *shared.DomainError
		if errors.As(err, &de) {
			s.recordFailure(ctx, de.Code)
			return nil, err
		}
		s.recordFailure(ctx, checkout.ErrProcessor.Code)
		return nil, checkout.ErrProcessor.Wrap(err)
	}

	session, err := s.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordFailure(ctx, checkout.ErrProcessor.Code)
		log.Error("Payment processor rejected checkout session", zap.Error(err))
		return nil, checkout.ErrProcessor.Wrap(err)
	}

	var amount int64
	for _, li := range params.LineItems {
		amount += li.UnitAmount * li.Quantity
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, session.ID,
		telemetry.SpanAttrAmount, amount,
		telemetry.SpanAttrCurrency, s.config.Currency,
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordCheckoutSession(ctx, strings.ToLower(s.config.Currency), len(params.LineItems), amount)
	}

	log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Int("line_items", len(params.LineItems)),
		zap.Int64("amount_minor", amount),
	)

	s.publish(ctx, order.NewEvent(order.EventSessionCreated, session.ID, req.Email, req.ItemIDs))
	return session, nil
}

// Track rebuilds an order's status and items from the processor session
func (s *Service) Track(ctx context.Context, trackingID string) (*order.Tracking, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, order.ErrOrderNotFound
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "track",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, trackingID),
	)
	defer span.End()

	snapshot, err := s.processor.GetCheckoutSession(ctx, trackingID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, order.ErrOrderNotFound
		}
		telemetry.RecordError(span, err)
		logger.Enrich(ctx, s.logger).Error("Failed to fetch checkout session",
			zap.String("session_id", trackingID), zap.Error(err))
		return nil, ErrTrackingUnavailable.Wrap(err)
	}

	var index catalog.Index
	if ids := snapshot.ItemIDs(); len(ids) > 0 {
		items, err := s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, ErrTrackingUnavailable.Wrap(err)
		}
		index = catalog.NewIndex(items)
	}

	tracking := order.NewTracking(*snapshot, index)
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderState, string(tracking.Status))
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderStatus(ctx, string(tracking.Status))
	}
	return &tracking, nil
}

func (s *Service) recordFailure(ctx context.Context, reason string) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordCheckoutFailure(ctx, reason)
	}
}

// publish is best effort: a broker outage never fails a checkout
func (s *Service) publish(ctx context.Context, event order.Event) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, event)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordEventPublished(ctx, event.Type, err)
	}
	if err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to publish order event",
			zap.String("event_type", event.Type),
			zap.String("session_id", event.SessionID),
			zap.Error(err),
		)
	}
}
