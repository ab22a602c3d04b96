package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe("test_event", func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	require.NoError(t, bus.PublishJSON("test_event", map[string]string{"foo": "bar"}))
	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, "test_event", received.Type)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return errors.New("first failed") })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	err := bus.Publish(&Event{Type: "event"})
	assert.EqualError(t, err, "first failed")
	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("x", 1))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingEventPayload{BookingID: 123, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, "type", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, int64(123), decoded.BookingID)
}

func TestRegisterMetrics(t *testing.T) {
	bus := NewEventBus()
	logger := zerolog.Nop()
	RegisterMetrics(bus, &logger)

	assert.NoError(t, bus.PublishJSON(EventBookingConfirmed, BookingEventPayload{BookingID: 1, Status: "confirmed"}))
	assert.NoError(t, bus.PublishJSON(EventReviewCreated, ReviewEventPayload{ReviewID: 1}))
	assert.NoError(t, bus.PublishJSON(EventMessageSent, MessageEventPayload{SenderType: "tourist"}))

	assert.Error(t, bus.Publish(&Event{Type: EventMessageSent, Payload: []byte("{")}))
}
