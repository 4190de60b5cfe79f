package geofence

import "sync"

// State is one step of a registration attempt. States are ephemeral: they
// exist for the duration of a single Save call and are reported to
// watchers so a presentation layer can react to progress.
type State string

const (
	StateValidating              State = "validating"
	StateAwaitingPermission      State = "awaiting_permission"
	StateAwaitingLocationService State = "awaiting_location_service"
	StateRegistering             State = "registering"
	StatePersisting              State = "persisting"
	StateDone                    State = "done"
	StateFailed                  State = "failed"
)

// StateChange is delivered to watchers on every state transition. Reason
// is set only for StateFailed.
type StateChange struct {
	ReminderID string `json:"reminder_id"`
	State      State  `json:"state"`
	Reason     string `json:"reason,omitempty"`
}

// watchers is a small fan-out of state changes to subscribed channels.
// Sends never block: a subscriber that falls behind misses updates rather
// than stalling the registration flow.
type watchers struct {
	mu   sync.Mutex
	subs map[int]chan StateChange
	next int
}

func newWatchers() *watchers {
	return &watchers{subs: make(map[int]chan StateChange)}
}

// subscribe returns a buffered channel of state changes and a cancel
// function that closes it.
func (w *watchers) subscribe(buffer int) (<-chan StateChange, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.next
	w.next++
	ch := make(chan StateChange, buffer)
	w.subs[id] = ch

	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
}

func (w *watchers) publish(change StateChange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
