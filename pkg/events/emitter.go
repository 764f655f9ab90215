// Package events emits store lifecycle events after successful writes
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	EventCustomerCreated    = "customer.created"
	EventProductCreated     = "product.created"
	EventFriendshipCreated  = "friendship.created"
	EventPurchaseRegistered = "purchase.registered"
)

// Envelope is the wire format of every store event
type Envelope struct {
	EventType  string `json:"event_type"`
	OccurredAt string `json:"occurred_at"`
	TraceID    string `json:"trace_id,omitempty"`
	Data       any    `json:"data"`
}

// Emitter publishes store events. Emission is best effort: the coordinator
// calls these after the stores have committed, and a publish failure is
// logged rather than surfaced.
type Emitter interface {
	CustomerCreated(ctx context.Context, customer *models.Customer)
	ProductCreated(ctx context.Context, product *models.Product)
	FriendshipCreated(ctx context.Context, customerID string, friendID string)
	PurchaseRegistered(ctx context.Context, purchase *models.Purchase)
}

// KafkaEmitter publishes store events to the configured topic
type KafkaEmitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewKafkaEmitter creates a new Kafka-backed emitter
func NewKafkaEmitter(producer *kafka.Producer, logger ectologger.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *KafkaEmitter) CustomerCreated(ctx context.Context, customer *models.Customer) {
	e.emit(ctx, EventCustomerCreated, customer.CustomerID, customer)
}

func (e *KafkaEmitter) ProductCreated(ctx context.Context, product *models.Product) {
	e.emit(ctx, EventProductCreated, strconv.FormatInt(product.ProductID, 10), product)
}

func (e *KafkaEmitter) FriendshipCreated(ctx context.Context, customerID string, friendID string) {
	e.emit(ctx, EventFriendshipCreated, customerID, map[string]string{
		"customer_id": customerID,
		"friend_id":   friendID,
	})
}

func (e *KafkaEmitter) PurchaseRegistered(ctx context.Context, purchase *models.Purchase) {
	e.emit(ctx, EventPurchaseRegistered, purchase.CustomerID, purchase)
}

func (e *KafkaEmitter) emit(ctx context.Context, eventType string, key string, data any) {
	envelope := Envelope{
		EventType:  eventType,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		TraceID:    tracing.GetTraceID(ctx),
		Data:       data,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("failed to encode event")
		return
	}

	headers := map[string]string{"event_type": eventType}
	if err := e.producer.Publish(ctx, key, headers, value); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("failed to publish event")
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// NoopEmitter discards all events. Used when Kafka is disabled.
type NoopEmitter struct{}

func (NoopEmitter) CustomerCreated(context.Context, *models.Customer)    {}
func (NoopEmitter) ProductCreated(context.Context, *models.Product)      {}
func (NoopEmitter) FriendshipCreated(context.Context, string, string)    {}
func (NoopEmitter) PurchaseRegistered(context.Context, *models.Purchase) {}
