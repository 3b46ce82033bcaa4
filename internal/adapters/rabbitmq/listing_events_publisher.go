package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"room-listing-service/internal/constants"
	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// publisher - то, что нужно адаптеру от rabbitmq_producer.Publisher
type publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// EventEnvelope - общий конверт для всех событий сервиса
type EventEnvelope struct {
	EventType    string      `json:"event_type"`
	EventVersion string      `json:"event_version"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Payload      interface{} `json:"payload"`
}

type ListingIngestedDTO struct {
	RoomID string   `json:"room_id"`
	Title  string   `json:"title"`
	Price  *float64 `json:"price"`
	Images int      `json:"images"`
}

type AssetsCollectedDTO struct {
	Deleted  []string `json:"deleted"`
	Failed   []string `json:"failed,omitempty"`
	Retained int      `json:"retained"`
}

// ListingEventsPublisher публикует доменные события в обменник сервиса
type ListingEventsPublisher struct {
	producer publisher
	now      func() time.Time
}

func NewListingEventsPublisher(producer publisher) (*ListingEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &ListingEventsPublisher{producer: producer, now: time.Now}, nil
}

func (p *ListingEventsPublisher) ListingIngested(ctx context.Context, listing domain.Listing) error {
	return p.publish(ctx, constants.RoutingKeyListingIngested, "ListingIngested", ListingIngestedDTO{
		RoomID: listing.ID.String(),
		Title:  listing.Title,
		Price:  listing.Price,
		Images: len(listing.Images),
	})
}

func (p *ListingEventsPublisher) AssetsCollected(ctx context.Context, report domain.CleanupReport) error {
	return p.publish(ctx, constants.RoutingKeyAssetsCollected, "AssetsCollected", AssetsCollectedDTO{
		Deleted:  report.Deleted,
		Failed:   report.Failed,
		Retained: report.Retained,
	})
}

func (p *ListingEventsPublisher) publish(ctx context.Context, routingKey, eventType string, payload interface{}) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ListingEventsPublisher",
		"routing_key": routingKey,
	})

	body, err := json.Marshal(EventEnvelope{
		EventType:    eventType,
		EventVersion: "1.0.0",
		OccurredAt:   p.now().UTC(),
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to encode %s: %w", eventType, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Type:         eventType,
		Headers:      make(amqp.Table),
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.producer.Publish(publishCtx, routingKey, msg); err != nil {
		logger.Error("Failed to publish event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s: %w", eventType, err)
	}
	logger.Debug("Event published", port.Fields{"event_type": eventType})
	return nil
}

// NoopListingEvents используется, когда RabbitMQ выключен
type NoopListingEvents struct{}

func (NoopListingEvents) ListingIngested(context.Context, domain.Listing) error       { return nil }
func (NoopListingEvents) AssetsCollected(context.Context, domain.CleanupReport) error { return nil }
