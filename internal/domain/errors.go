package domain

// ValidationError reports a rejected candidate with a message suitable for
// showing to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrTitleRequired      = &ValidationError{Message: "enter a title"}
	ErrLocationRequired   = &ValidationError{Message: "select a location"}
	ErrInvalidCoordinates = &ValidationError{Message: "select a valid location on the map"}
)

// StoreError is the failure half of every repository read: a message plus
// an HTTP-style code. Code is 0 when the failure has no specific code.
type StoreError struct {
	Message string
	Code    int
}

func (e *StoreError) Error() string { return e.Message }

// NotFoundCode marks a lookup for an id with no stored reminder.
const NotFoundCode = 404

// ErrReminderNotFound is returned by repository lookups for absent ids.
var ErrReminderNotFound = &StoreError{Message: "Reminder not found", Code: NotFoundCode}
