package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
)

func TestSerializeNotification(t *testing.T) {
	triggered := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	n := domain.Notification{
		ReminderID:  "rem-1",
		Title:       "Groceries",
		Description: "Milk",
		Location:    "Market St",
		Latitude:    37.78,
		Longitude:   -122.41,
		TriggeredAt: triggered,
	}

	msg, err := serializeNotification(n)
	require.NoError(t, err)

	assert.Equal(t, []byte("rem-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"title":"Groceries"`)
	assert.Contains(t, string(msg.Value), `"location":"Market St"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "reminder_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("rem-1"), msg.Headers[0].Value)
	assert.Equal(t, "triggered_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(triggered.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestDecodeEvent(t *testing.T) {
	msg := kafkago.Message{
		Value: []byte(`{"geofence_ids":["rem-1","rem-2"],"transition":"enter"}`),
	}

	event, err := decodeEvent(msg)
	require.NoError(t, err)

	assert.Equal(t, []string{"rem-1", "rem-2"}, event.GeofenceIDs)
	assert.Equal(t, "enter", event.Transition)
	assert.Zero(t, event.ErrorCode)
}

func TestDecodeEvent_PlatformError(t *testing.T) {
	msg := kafkago.Message{
		Value: []byte(`{"geofence_ids":[],"error_code":1000}`),
	}

	event, err := decodeEvent(msg)
	require.NoError(t, err)

	assert.Equal(t, 1000, event.ErrorCode)
	assert.Empty(t, event.GeofenceIDs)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := decodeEvent(kafkago.Message{Value: []byte("not-json{{{")})

	assert.Error(t, err)
}
