package geofence

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// IntervalPrompter retries the location-service check on a fixed
// interval. It stands in for an interactive prompt when the service
// runs headless.
type IntervalPrompter struct {
	interval time.Duration
	clock    clockwork.Clock
}

// NewIntervalPrompter creates a prompter that releases every interval.
// A nil clock uses the real clock.
func NewIntervalPrompter(interval time.Duration, clock clockwork.Clock) *IntervalPrompter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IntervalPrompter{interval: interval, clock: clock}
}

// AwaitRetry blocks until the interval elapses or ctx is cancelled.
func (p *IntervalPrompter) AwaitRetry(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.interval):
		return nil
	}
}
