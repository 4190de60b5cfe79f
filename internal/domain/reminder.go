package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is a location-tied note. Once registered, the geofence watching
// its coordinates carries the reminder's ID as its external id.
type Reminder struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"` // human-readable place label
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewReminder builds a candidate reminder with a freshly generated id and
// creation time. The candidate is not persisted until the registration
// flow completes.
func NewReminder(title, description, location string, lat, lon float64) Reminder {
	return Reminder{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Location:    location,
		Latitude:    lat,
		Longitude:   lon,
		CreatedAt:   clock.Now().UTC(),
	}
}

// Validate checks the candidate's user-entered fields. Cheap field checks
// run before anything that would prompt the user, so the messages here are
// surfaced without any permission dialog having appeared.
func (r Reminder) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	if r.Location == "" {
		return ErrLocationRequired
	}
	if !validCoordinates(r.Latitude, r.Longitude) {
		return ErrInvalidCoordinates
	}
	return nil
}

// validCoordinates reports whether lat/lon form a WGS-84 coordinate pair.
// The zero pair is rejected: it only ever appears when no place was picked.
func validCoordinates(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
