//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/location-reminder-service/internal/adapter/kafka"
	"github.com/couchcryptid/location-reminder-service/internal/config"
	"github.com/couchcryptid/location-reminder-service/internal/domain"
	"github.com/couchcryptid/location-reminder-service/internal/observability"
	"github.com/couchcryptid/location-reminder-service/internal/repository"
	"github.com/couchcryptid/location-reminder-service/internal/transition"
)

const (
	testTransitionTopic   = "test-transitions"
	testNotificationTopic = "test-notifications"
)

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// readNotification reads a single message from the notification topic and
// deserializes it.
func readNotification(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.Notification, kafkago.Message) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from notification topic")

	var notification domain.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &notification), "unmarshal notification")
	return notification, msg
}

// TestNotifierPublish verifies the producer side alone: a notification
// round-trips through Kafka with its key and headers intact.
func TestNotifierPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testNotificationTopic)

	cfg := &config.Config{
		KafkaBrokers:           []string{broker},
		KafkaNotificationTopic: testNotificationTopic,
	}

	notifier := kafkaadapter.NewNotifier(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	reminder := domain.NewReminder("Pick up keys", "at the front desk", "Office", 37.42, -122.08)
	notification := domain.NotificationFor(reminder)

	require.NoError(t, notifier.Show(ctx, notification))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testNotificationTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, msg := readNotification(ctx, t, consumer)

	assert.Equal(t, reminder.ID, string(msg.Key))
	assert.Equal(t, reminder.ID, got.ReminderID)
	assert.Equal(t, "Pick up keys", got.Title)
	assert.Equal(t, "Office", got.Location)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, reminder.ID, headers["reminder_id"])
	_, err := time.Parse(time.RFC3339, headers["triggered_at"])
	assert.NoError(t, err, "triggered_at should be valid RFC3339")
}

// TestTransitionFlowEndToEnd wires Reader, Handler, and Notifier against
// real Kafka: an enter transition published on the transition topic
// produces a notification for the stored reminder on the sink topic.
func TestTransitionFlowEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTransitionTopic)
	createTopic(t, broker, testNotificationTopic)

	cfg := &config.Config{
		KafkaBrokers:           []string{broker},
		KafkaTransitionTopic:   testTransitionTopic,
		KafkaNotificationTopic: testNotificationTopic,
		KafkaGroupID:           fmt.Sprintf("test-flow-%d", time.Now().UnixNano()),
	}

	reminder := domain.NewReminder("Water plants", "", "Home", 40.0, -74.0)
	source := repository.NewFake(reminder)

	notifier := kafkaadapter.NewNotifier(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	metrics := observability.NewMetricsForTesting()
	handler := transition.NewHandler(source, notifier, 4, discardLogger(), metrics)

	reader := kafkaadapter.NewReader(cfg, handler, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- reader.Run(runCtx) }()

	// Publish an enter transition for the stored reminder, plus one
	// unknown id that must not block it.
	event := transition.Event{
		GeofenceIDs: []string{reminder.ID, "not-a-reminder"},
		Transition:  transition.TransitionEnter,
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testTransitionTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(reminder.ID),
		Value: payload,
	}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testNotificationTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, _ := readNotification(ctx, t, consumer)

	assert.Equal(t, reminder.ID, got.ReminderID)
	assert.Equal(t, "Water plants", got.Title)
	assert.Equal(t, "Home", got.Location)
	assert.Equal(t, 40.0, got.Latitude)
	assert.Equal(t, -74.0, got.Longitude)

	stop()
	require.NoError(t, <-errCh)
}
