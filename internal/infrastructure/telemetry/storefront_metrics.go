package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a nil meter is passed to a metrics constructor
var ErrMeterNil = errors.New("telemetry: meter is nil")

// AmountBuckets are histogram boundaries for checkout totals in minor units
var AmountBuckets = []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000}

// StorefrontMetrics holds the business instruments recorded by application services
type StorefrontMetrics struct {
	sessionsCreated *Counter
	sessionFailures *Counter
	checkoutAmount  *Histogram
	checkoutItems   *Histogram
	orderStatus     *Counter
	eventsPublished *Counter
	eventFailures   *Counter
	signUps         *Counter
	signIns         *Counter
	meter           metric.Meter
	logger          *zap.Logger
}

// NewStorefrontMetrics registers the storefront instruments on meter
func NewStorefrontMetrics(meter metric.Meter, logger *zap.Logger) (*StorefrontMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &StorefrontMetrics{meter: meter, logger: logger}

	var err error
	counters := []struct {
		dst        **Counter
		name, desc string
		unit       string
	}{
		{&m.sessionsCreated, "checkout_sessions_created_total", "Payment sessions created", "{session}"},
		{&m.sessionFailures, "checkout_session_failures_total", "Checkout requests that did not produce a session", "{request}"},
		{&m.orderStatus, "order_status_lookups_total", "Tracking lookups by resolved status", "{lookup}"},
		{&m.eventsPublished, "order_events_published_total", "Order events handed to the broker", "{event}"},
		{&m.eventFailures, "order_event_failures_total", "Order events the broker rejected", "{event}"},
		{&m.signUps, "identity_signups_total", "Accounts created", "{account}"},
		{&m.signIns, "identity_signins_total", "Sign-in attempts", "{attempt}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}

	if m.checkoutAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "checkout_amount_minor",
		Description: "Checkout totals in minor currency units",
		Unit:        "{minor_unit}",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.checkoutItems, err = NewHistogram(meter, HistogramOpts{
		Name:        "checkout_items",
		Description: "Line items per checkout session",
		Unit:        "{item}",
		Boundaries:  []float64{1, 2, 3, 5, 10, 20},
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckoutSession records a created payment session
func (m *StorefrontMetrics) RecordCheckoutSession(ctx context.Context, currency string, itemCount int, amountMinor int64) {
	m.sessionsCreated.Inc(ctx, AttrCurrency.String(currency))
	m.checkoutAmount.Record(ctx, float64(amountMinor), AttrCurrency.String(currency))
	m.checkoutItems.Record(ctx, float64(itemCount))
}

// RecordCheckoutFailure records a rejected checkout; reason is the error code
func (m *StorefrontMetrics) RecordCheckoutFailure(ctx context.Context, reason string) {
	m.sessionFailures.Inc(ctx, AttrReason.String(reason))
}

// RecordOrderStatus records a tracking lookup outcome
func (m *StorefrontMetrics) RecordOrderStatus(ctx context.Context, status string) {
	m.orderStatus.Inc(ctx, AttrOrderStatus.String(status))
}

// RecordEventPublished records a publish attempt for eventType
func (m *StorefrontMetrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if err != nil {
		m.eventFailures.Inc(ctx, AttrEventType.String(eventType))
		return
	}
	m.eventsPublished.Inc(ctx, AttrEventType.String(eventType))
}

// RecordSignUp records a created account
func (m *StorefrontMetrics) RecordSignUp(ctx context.Context, role string) {
	m.signUps.Inc(ctx, AttrUserRole.String(role))
}

// RecordSignIn records a sign-in attempt
func (m *StorefrontMetrics) RecordSignIn(ctx context.Context, role string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.signIns.Inc(ctx, AttrUserRole.String(role), AttrOutcome.String(outcome))
}

// ObserveCatalogSize registers an observable gauge reporting count at every collection.
// Errors from count are logged and the observation is skipped.
func (m *StorefrontMetrics) ObserveCatalogSize(count func(ctx context.Context) (int64, error)) error {
	_, err := m.meter.Int64ObservableGauge("catalog_items",
		metric.WithDescription("Items currently listed in the catalog"),
		metric.WithUnit("{item}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := count(ctx)
			if err != nil {
				m.logger.Warn("Failed to collect catalog size", zap.Error(err))
				return nil
			}
			o.Observe(n)
			return nil
		}),
	)
	return err
}
