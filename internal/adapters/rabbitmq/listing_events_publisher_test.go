package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"room-listing-service/internal/constants"
	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPublish struct {
	routingKey string
	msg        amqp.Publishing
}

type fakeProducer struct {
	published []capturedPublish
	err       error
}

func (f *fakeProducer) Publish(_ context.Context, routingKey string, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, capturedPublish{routingKey: routingKey, msg: msg})
	return nil
}

var _ port.ListingEventsPort = (*ListingEventsPublisher)(nil)
var _ port.ListingEventsPort = NoopListingEvents{}

func TestListingEventsPublisher_ListingIngested(t *testing.T) {
	producer := &fakeProducer{}
	pub, err := NewListingEventsPublisher(producer)
	require.NoError(t, err)
	pub.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	price := 5.5
	require.NoError(t, pub.ListingIngested(ctx, domain.Listing{ID: domain.NewListingID(8), Title: "Phòng", Price: &price, Images: []string{"a.jpg"}}))

	require.Len(t, producer.published, 1)
	got := producer.published[0]
	assert.Equal(t, constants.RoutingKeyListingIngested, got.routingKey)
	assert.Equal(t, "trace-1", got.msg.Headers["x-trace-id"])
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var envelope struct {
		EventType string             `json:"event_type"`
		Payload   ListingIngestedDTO `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(got.msg.Body, &envelope))
	assert.Equal(t, "ListingIngested", envelope.EventType)
	assert.Equal(t, "8", envelope.Payload.RoomID)
	assert.Equal(t, 1, envelope.Payload.Images)
}

func TestListingEventsPublisher_PublishError(t *testing.T) {
	pub, err := NewListingEventsPublisher(&fakeProducer{err: errors.New("channel closed")})
	require.NoError(t, err)

	err = pub.AssetsCollected(context.Background(), domain.CleanupReport{Deleted: []string{"c.jpg"}})
	assert.ErrorContains(t, err, "channel closed")

	_, err = NewListingEventsPublisher(nil)
	assert.Error(t, err)
}

type recordingLogger struct {
	port.LoggerPort
	fields port.Fields
	err    error
}

func (r *recordingLogger) Error(_ string, err error, fields port.Fields) {
	r.err, r.fields = err, fields
}

func TestPkgLoggerBridge_ConvertsPairs(t *testing.T) {
	rec := &recordingLogger{}
	bridge := NewPkgLoggerBridge(rec)

	bridge.Error(errors.New("boom"), "msg", "exchange", "x", 42, "ignored", "dangling")
	assert.EqualError(t, rec.err, "boom")
	assert.Equal(t, port.Fields{"exchange": "x"}, rec.fields)
}
