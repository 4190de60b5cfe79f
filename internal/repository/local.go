// Package repository wraps the reminder store behind the
// domain.ReminderSource contract. It is the only component that touches
// the store directly, so the controller, the transition handler, and the
// HTTP layer all share one view of reminder state.
package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
	"github.com/couchcryptid/location-reminder-service/internal/store"
)

// Local is the SQLite-backed ReminderSource.
type Local struct {
	store  *store.Store
	logger *slog.Logger
}

// NewLocal creates the production repository over an open store.
func NewLocal(s *store.Store, logger *slog.Logger) *Local {
	return &Local{store: s, logger: logger}
}

// SaveReminder upserts the reminder. Failures propagate to the caller:
// the registration flow must not report success for a reminder that never
// reached disk.
func (l *Local) SaveReminder(ctx context.Context, r domain.Reminder) error {
	if err := l.store.Insert(ctx, r); err != nil {
		l.logger.Error("save reminder failed", "reminder_id", r.ID, "error", err)
		return &domain.StoreError{Message: err.Error()}
	}
	l.logger.Debug("reminder saved", "reminder_id", r.ID, "location", r.Location)
	return nil
}

// GetReminders returns the full current set.
func (l *Local) GetReminders(ctx context.Context) ([]domain.Reminder, error) {
	reminders, err := l.store.GetAll(ctx)
	if err != nil {
		return nil, &domain.StoreError{Message: err.Error()}
	}
	return reminders, nil
}

// GetReminder resolves one id, returning domain.ErrReminderNotFound for
// absent ids so callers can distinguish missing data from storage faults.
func (l *Local) GetReminder(ctx context.Context, id string) (domain.Reminder, error) {
	r, err := l.store.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Reminder{}, domain.ErrReminderNotFound
	}
	if err != nil {
		return domain.Reminder{}, &domain.StoreError{Message: err.Error()}
	}
	return r, nil
}

// DeleteReminder removes one reminder by id.
func (l *Local) DeleteReminder(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return &domain.StoreError{Message: err.Error()}
	}
	return nil
}

// DeleteAllReminders clears the table, used by tests and by explicit user
// request.
func (l *Local) DeleteAllReminders(ctx context.Context) error {
	if err := l.store.DeleteAll(ctx); err != nil {
		return &domain.StoreError{Message: err.Error()}
	}
	return nil
}

// CheckReadiness reports whether the backing store is reachable.
func (l *Local) CheckReadiness(ctx context.Context) error {
	return l.store.Ping(ctx)
}
