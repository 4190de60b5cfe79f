// Package transition handles enter-transition events delivered by the
// external geofencing service. For every triggering geofence id it looks
// up the stored reminder and emits a user notification; per-id failures
// are reported and never stop the remaining ids.
package transition

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
	"github.com/couchcryptid/location-reminder-service/internal/observability"
)

// Transition names the boundary crossing reported by the daemon. Only
// enter transitions produce notifications.
const (
	TransitionEnter = "enter"
	TransitionExit  = "exit"
)

// Event is one delivery from the geofencing service: the geofence ids
// whose boundaries were crossed, or a non-zero error code when event
// delivery itself failed on the platform side.
type Event struct {
	GeofenceIDs []string `json:"geofence_ids"`
	Transition  string   `json:"transition"`
	ErrorCode   int      `json:"error_code,omitempty"`
}

// Platform error codes reported by the geofencing service, mirroring the
// daemon's status codes.
const (
	ErrCodeServiceUnavailable = 1000
	ErrCodeTooManyGeofences   = 1001
	ErrCodeTooManyConsumers   = 1002
)

// Notifier delivers a user-visible notification. Fire-and-forget from the
// handler's point of view: a delivery error is counted and logged, never
// propagated.
type Notifier interface {
	Show(ctx context.Context, n domain.Notification) error
}

// Handler resolves transition events to notifications. It performs no
// writes; the repository is read-only from here.
type Handler struct {
	source   domain.ReminderSource
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	workers  int
}

// NewHandler creates a Handler whose lookups fan out over at most workers
// goroutines. workers <= 0 means sequential.
func NewHandler(source domain.ReminderSource, notifier Notifier, workers int, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if workers <= 0 {
		workers = 1
	}
	return &Handler{
		source:   source,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		workers:  workers,
	}
}

// Handle processes one event. A platform error code is reported and the
// event dropped; there is nothing to retry on our side. Otherwise every
// triggering id is resolved independently: found reminders produce a
// notification, missing or unreadable ones are logged and skipped.
// Handle never returns an error for partial failure.
func (h *Handler) Handle(ctx context.Context, event Event) {
	h.metrics.TransitionEvents.Inc()
	start := time.Now()
	defer func() {
		h.metrics.HandlerDuration.Observe(time.Since(start).Seconds())
	}()

	if event.ErrorCode != 0 {
		h.metrics.TransitionErrors.Inc()
		h.logger.Error("geofencing event delivery failed",
			"error_code", event.ErrorCode,
			"error", describeErrorCode(event.ErrorCode),
		)
		return
	}

	if event.Transition != "" && event.Transition != TransitionEnter {
		h.logger.Debug("ignoring non-enter transition", "transition", event.Transition)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, id := range event.GeofenceIDs {
		g.Go(func() error {
			h.notifyOne(gctx, id)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
}

func (h *Handler) notifyOne(ctx context.Context, id string) {
	h.metrics.LookupsInFlight.Inc()
	defer h.metrics.LookupsInFlight.Dec()

	reminder, err := h.source.GetReminder(ctx, id)
	if err != nil {
		reason := "storage"
		var storeErr *domain.StoreError
		if errors.As(err, &storeErr) && storeErr.Code == domain.NotFoundCode {
			reason = "not_found"
		}
		h.metrics.LookupFailures.WithLabelValues(reason).Inc()
		h.logger.Error("reminder lookup failed",
			"geofence_id", id, "reason", reason, "error", err)
		return
	}

	if err := h.notifier.Show(ctx, domain.NotificationFor(reminder)); err != nil {
		h.metrics.NotifierPublishErr.Inc()
		h.logger.Error("notification delivery failed",
			"reminder_id", reminder.ID, "error", err)
		return
	}

	h.metrics.NotificationsSent.Inc()
	h.logger.Info("notification sent",
		"reminder_id", reminder.ID, "location", reminder.Location)
}

func describeErrorCode(code int) string {
	switch code {
	case ErrCodeServiceUnavailable:
		return "geofencing service is not available"
	case ErrCodeTooManyGeofences:
		return "too many geofences registered"
	case ErrCodeTooManyConsumers:
		return "too many event consumers registered"
	default:
		return "unknown geofencing error"
	}
}
