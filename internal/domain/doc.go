// Package domain models location-tied reminders and the contracts the
// rest of the service is built around.
//
// # Reminders
//
// A reminder couples a short title and optional description with a named
// place and its WGS-84 coordinates. The reminder's id doubles as the
// external id of the geofence registered for it, so an enter-transition
// event can be resolved back to the stored reminder with a single lookup.
//
// A reminder is only ever persisted after the full registration flow
// (validation, permissions, location service, geofence registration)
// has succeeded; until then it is a candidate held in memory.
//
// # Error conventions
//
// Validation failures are *ValidationError values with user-facing
// messages ("enter a title", "select a location"). Storage failures and
// missing rows surface as *StoreError values carrying a message and an
// HTTP-style code; repository reads return either a value or one of
// these, never both.
package domain
