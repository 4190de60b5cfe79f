package domain

import "context"

// ReminderSource is the persistence choke point. Every component that
// reads or writes reminders goes through it, which keeps the controller,
// the transition handler, and the HTTP layer on one consistent view and
// lets tests substitute a fake.
//
// Reads return either a value or an error; when the error originates in
// storage it is a *StoreError (lookups for absent ids return
// ErrReminderNotFound).
type ReminderSource interface {
	SaveReminder(ctx context.Context, r Reminder) error
	GetReminders(ctx context.Context) ([]Reminder, error)
	GetReminder(ctx context.Context, id string) (Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	DeleteAllReminders(ctx context.Context) error
}
