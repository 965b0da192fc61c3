// Package messaging publishes order events to Kafka, or to the log when no brokers are configured.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/medico/backend/internal/domain/order"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// DefaultTopic receives order events when none is configured
const DefaultTopic = "medico.orders"

// HeaderEventType carries the event type so consumers can filter without decoding
const HeaderEventType = "event_type"

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("messaging: publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events as JSON, keyed by checkout session id
// so every event of one order lands on the same partition
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	closed atomic.Bool
}

// NewKafkaPublisher creates a publisher for cfg.Brokers
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("messaging: no kafka brokers configured")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafkaPublisher(w, topic, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, topic: topic, logger: logger.Named("kafka")}
}

// Publish writes one event and waits for the leader's ack
func (p *KafkaPublisher) Publish(ctx context.Context, ev order.Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("messaging: encode %s: %w", ev.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: data,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(ev.Type)},
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: &msg})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish order event",
			zap.String("topic", p.topic),
			zap.String("event_type", ev.Type),
			zap.String("session_id", ev.SessionID),
			zap.Error(err))
		return fmt.Errorf("messaging: publish %s: %w", ev.Type, err)
	}

	p.logger.Debug("Published order event",
		zap.String("topic", p.topic),
		zap.String("event_type", ev.Type),
		zap.String("session_id", ev.SessionID))
	return nil
}

// Close flushes pending writes. Publish fails afterwards.
func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// headerCarrier lets the OTel propagator write trace context into Kafka headers
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}
