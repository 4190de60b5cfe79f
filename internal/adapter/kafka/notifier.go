// Package kafka carries the service's event traffic: a consumer for the
// geofencing daemon's transition topic and a producer for the
// notification sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/location-reminder-service/internal/config"
	"github.com/couchcryptid/location-reminder-service/internal/domain"
)

// Notifier publishes reminder notifications to the sink topic. It
// implements transition.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification
// topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// Show serializes and publishes one notification, keyed by reminder id so
// repeated triggers for the same reminder stay in partition order.
func (n *Notifier) Show(ctx context.Context, notification domain.Notification) error {
	msg, err := serializeNotification(notification)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeNotification marshals a Notification into a Kafka message.
func serializeNotification(notification domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(notification.ReminderID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "reminder_id", Value: []byte(notification.ReminderID)},
			{Key: "triggered_at", Value: []byte(notification.TriggeredAt.Format(time.RFC3339))},
		},
	}, nil
}
