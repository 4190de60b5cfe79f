// Package geofence orchestrates the registration flow that turns a
// candidate reminder into an active, persisted geofenced reminder:
// validate, ensure permissions, ensure the location service is on,
// register the geofence with the external daemon, persist.
package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
	"github.com/couchcryptid/location-reminder-service/internal/observability"
)

// DefaultRadiusMeters is the circular geofence radius. It is a controller
// constant, not user-configurable per reminder.
const DefaultRadiusMeters = 100.0

// Capability is a host-environment permission the flow depends on.
type Capability string

const (
	CapabilityForegroundLocation Capability = "location.foreground"
	CapabilityBackgroundLocation Capability = "location.background"
)

// PermissionProvider answers and requests host permissions. Request
// suspends until the external prompt resolves, which can take arbitrarily
// long; implementations must honor ctx.
type PermissionProvider interface {
	Granted(ctx context.Context, c Capability) (bool, error)
	Request(ctx context.Context, caps []Capability) (map[Capability]bool, error)
}

// LocationService reports and requests the device positioning service.
type LocationService interface {
	Enabled(ctx context.Context) (bool, error)
	RequestEnable(ctx context.Context) (bool, error)
}

// RetryPrompter blocks until the user asks to retry the location-service
// check. The loop around it is intentionally unbounded; only ctx
// cancellation abandons the flow.
type RetryPrompter interface {
	AwaitRetry(ctx context.Context) error
}

// Geofencer registers and removes geofences with the external geofencing
// service. The geofence's external id is the reminder's id.
type Geofencer interface {
	Register(ctx context.Context, id string, lat, lon, radiusMeters float64, triggerOnEnter bool) error
	Unregister(ctx context.Context, id string) error
}

// FlowError is a failed registration attempt: the state it failed in plus
// a user-facing message.
type FlowError struct {
	State   State
	Message string
	Err     error
}

func (e *FlowError) Error() string { return e.Message }

func (e *FlowError) Unwrap() error { return e.Err }

// ErrPermissionDenied is surfaced when the user denies a location
// permission; the flow halts and the caller must resubmit.
var ErrPermissionDenied = errors.New("location permission not granted")

// Controller runs registration attempts. One Save call is single-flight
// for its candidate; concurrent Save calls for different candidates are
// independent and no lock is held while waiting on user-driven prompts.
type Controller struct {
	repo     domain.ReminderSource
	fencer   Geofencer
	perms    PermissionProvider
	location LocationService
	retry    RetryPrompter
	radius   float64
	logger   *slog.Logger
	metrics  *observability.Metrics
	watchers *watchers
}

// New wires a Controller. radiusMeters <= 0 falls back to
// DefaultRadiusMeters.
func New(
	repo domain.ReminderSource,
	fencer Geofencer,
	perms PermissionProvider,
	location LocationService,
	retry RetryPrompter,
	radiusMeters float64,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Controller {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return &Controller{
		repo:     repo,
		fencer:   fencer,
		perms:    perms,
		location: location,
		retry:    retry,
		radius:   radiusMeters,
		logger:   logger,
		metrics:  metrics,
		watchers: newWatchers(),
	}
}

// Watch subscribes to state changes for all registration attempts. The
// returned cancel function must be called to release the subscription.
func (c *Controller) Watch(buffer int) (<-chan StateChange, func()) {
	return c.watchers.subscribe(buffer)
}

// Save takes a candidate through the full registration sequence. It
// returns nil when the reminder is durable and its geofence active, a
// *domain.ValidationError for rejected input, and a *FlowError for every
// later failure. Nothing is persisted unless the persisting step is
// reached.
func (c *Controller) Save(ctx context.Context, candidate domain.Reminder) error {
	start := time.Now()

	err := c.run(ctx, candidate)

	outcome := string(StateDone)
	if err != nil {
		var flowErr *FlowError
		switch {
		case errors.As(err, &flowErr):
			outcome = "failed_" + string(flowErr.State)
		default:
			outcome = "failed_" + string(StateValidating)
		}
	}
	c.metrics.RegistrationAttempts.WithLabelValues(outcome).Inc()
	c.metrics.RegistrationDuration.Observe(time.Since(start).Seconds())

	return err
}

func (c *Controller) run(ctx context.Context, candidate domain.Reminder) error {
	// Validation runs before anything that could prompt the user.
	c.publish(candidate.ID, StateValidating, "")
	if err := candidate.Validate(); err != nil {
		c.logger.Warn("candidate rejected", "reminder_id", candidate.ID, "error", err)
		c.publish(candidate.ID, StateFailed, err.Error())
		return err
	}

	c.publish(candidate.ID, StateAwaitingPermission, "")
	if err := c.ensurePermissions(ctx); err != nil {
		return c.fail(candidate.ID, StateAwaitingPermission, err)
	}

	c.publish(candidate.ID, StateAwaitingLocationService, "")
	if err := c.ensureLocationService(ctx); err != nil {
		return c.fail(candidate.ID, StateAwaitingLocationService, err)
	}

	c.publish(candidate.ID, StateRegistering, "")
	err := c.fencer.Register(ctx, candidate.ID, candidate.Latitude, candidate.Longitude, c.radius, true)
	if err != nil {
		return c.fail(candidate.ID, StateRegistering, fmt.Errorf("register geofence: %w", err))
	}
	c.metrics.GeofencesRegistered.Inc()

	c.publish(candidate.ID, StatePersisting, "")
	if err := c.repo.SaveReminder(ctx, candidate); err != nil {
		// The geofence is live but the reminder is not durable; drop the
		// fence again so a transition can never reference a missing row.
		if unregErr := c.fencer.Unregister(context.WithoutCancel(ctx), candidate.ID); unregErr != nil {
			c.logger.Error("rollback unregister failed",
				"reminder_id", candidate.ID, "error", unregErr)
		}
		return c.fail(candidate.ID, StatePersisting, err)
	}

	c.logger.Info("reminder registered",
		"reminder_id", candidate.ID,
		"location", candidate.Location,
		"radius_m", c.radius,
	)
	c.publish(candidate.ID, StateDone, "")
	return nil
}

// ensurePermissions checks foreground and background location permission
// and requests whichever is missing, suspending until the prompt resolves.
func (c *Controller) ensurePermissions(ctx context.Context) error {
	required := []Capability{CapabilityForegroundLocation, CapabilityBackgroundLocation}

	missing := make([]Capability, 0, len(required))
	for _, capability := range required {
		granted, err := c.perms.Granted(ctx, capability)
		if err != nil {
			return fmt.Errorf("check %s: %w", capability, err)
		}
		if !granted {
			missing = append(missing, capability)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	results, err := c.perms.Request(ctx, missing)
	if err != nil {
		return fmt.Errorf("request permissions: %w", err)
	}
	for _, capability := range missing {
		if !results[capability] {
			c.logger.Warn("permission denied", "capability", capability)
			return ErrPermissionDenied
		}
	}
	return nil
}

// ensureLocationService loops until the positioning service is enabled or
// the attempt is abandoned. Each pass re-enters the same check: enabled?
// done; otherwise ask the service to resolve; if the user declines, park
// on the retry prompt. There is no retry cap.
func (c *Controller) ensureLocationService(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		enabled, err := c.location.Enabled(ctx)
		if err == nil && enabled {
			return nil
		}
		if err != nil {
			c.logger.Warn("location service check failed", "error", err)
		} else {
			resolved, reqErr := c.location.RequestEnable(ctx)
			if reqErr == nil && resolved {
				continue
			}
			if reqErr != nil {
				c.logger.Warn("location service resolution failed", "error", reqErr)
			}
		}

		if err := c.retry.AwaitRetry(ctx); err != nil {
			return err
		}
	}
}

func (c *Controller) fail(id string, state State, err error) error {
	c.logger.Warn("registration failed",
		"reminder_id", id, "state", string(state), "error", err)
	c.publish(id, StateFailed, err.Error())
	return &FlowError{State: state, Message: err.Error(), Err: err}
}

func (c *Controller) publish(id string, state State, reason string) {
	c.watchers.publish(StateChange{ReminderID: id, State: state, Reason: reason})
}
