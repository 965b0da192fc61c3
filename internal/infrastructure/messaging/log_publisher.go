package messaging

import (
	"context"

	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LogPublisher writes order events to the log. Used when Kafka is not configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("order_events")}
}

// Publish logs ev at info level; it never fails
func (p *LogPublisher) Publish(_ context.Context, ev order.Event) error {
	p.logger.Info("Order event",
		zap.String("event_type", ev.Type),
		zap.String("session_id", ev.SessionID),
		zap.String("status", string(ev.Status)),
		zap.Strings("medicine_ids", ev.ItemIDs),
		zap.Time("occurred_at", ev.OccurredAt))
	return nil
}

// Publisher is what the checkout services publish order events through
type Publisher interface {
	Publish(ctx context.Context, ev order.Event) error
}

// NewPublisher returns a Kafka publisher when brokers are configured, otherwise a LogPublisher.
// The close function flushes the Kafka writer.
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) (Publisher, func() error, error) {
	if !cfg.Enabled() {
		return NewLogPublisher(logger), func() error { return nil }, nil
	}
	p, err := NewKafkaPublisher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}
