package domain

import "time"

// Notification is the user-visible payload emitted when the device enters
// a reminder's geofence.
type Notification struct {
	ReminderID  string    `json:"reminder_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// NotificationFor builds the notification for a triggered reminder,
// stamping the trigger time from the package clock.
func NotificationFor(r Reminder) Notification {
	return Notification{
		ReminderID:  r.ID,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		TriggeredAt: clock.Now(),
	}
}
