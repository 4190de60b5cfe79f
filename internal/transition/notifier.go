package transition

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
)

// LogNotifier writes notifications to the service log. It stands in for a
// real delivery channel when the Kafka notifier is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(_ context.Context, notification domain.Notification) error {
	n.logger.Info("reminder triggered",
		"reminder_id", notification.ReminderID,
		"title", notification.Title,
		"description", notification.Description,
		"location", notification.Location,
		"latitude", notification.Latitude,
		"longitude", notification.Longitude,
	)
	return nil
}
