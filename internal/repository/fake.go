package repository

import (
	"context"
	"sync"

	"github.com/couchcryptid/location-reminder-service/internal/domain"
)

// FaultMessage is the message carried by injected read failures.
const FaultMessage = "Error"

// Fake is an in-memory ReminderSource for tests. With fault injection
// active, every read returns a *domain.StoreError with the configured
// message and no value, which lets callers exercise their storage-failure
// paths without a broken database.
type Fake struct {
	mu        sync.Mutex
	reminders []domain.Reminder
	faultMsg  string
	injecting bool
}

// NewFake creates an empty fake source.
func NewFake(seed ...domain.Reminder) *Fake {
	return &Fake{reminders: append([]domain.Reminder(nil), seed...)}
}

// InjectFault makes every subsequent read fail with msg. An empty msg
// uses FaultMessage.
func (f *Fake) InjectFault(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg == "" {
		msg = FaultMessage
	}
	f.faultMsg = msg
	f.injecting = true
}

// ClearFault restores normal operation.
func (f *Fake) ClearFault() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.injecting = false
}

func (f *Fake) SaveReminder(_ context.Context, r domain.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reminders {
		if f.reminders[i].ID == r.ID {
			f.reminders[i] = r
			return nil
		}
	}
	f.reminders = append(f.reminders, r)
	return nil
}

func (f *Fake) GetReminders(_ context.Context) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.injecting {
		return nil, &domain.StoreError{Message: f.faultMsg}
	}
	return append([]domain.Reminder(nil), f.reminders...), nil
}

func (f *Fake) GetReminder(_ context.Context, id string) (domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.injecting {
		return domain.Reminder{}, &domain.StoreError{Message: f.faultMsg}
	}
	for _, r := range f.reminders {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reminder{}, domain.ErrReminderNotFound
}

func (f *Fake) DeleteReminder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reminders {
		if r.ID == id {
			f.reminders = append(f.reminders[:i], f.reminders[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *Fake) DeleteAllReminders(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = f.reminders[:0]
	return nil
}

// Len reports the number of stored reminders, bypassing fault injection.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reminders)
}
