package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// registration flow and the transition pipeline.
type Metrics struct {
	// Registration flow metrics.
	RegistrationAttempts *prometheus.CounterVec // label: outcome={done,failed_<state>}
	RegistrationDuration prometheus.Histogram
	GeofencesRegistered  prometheus.Counter

	// Transition handling metrics.
	TransitionEvents   prometheus.Counter
	TransitionErrors   prometheus.Counter     // platform-level event delivery failures
	NotificationsSent  prometheus.Counter
	LookupFailures     *prometheus.CounterVec // label: reason={not_found,storage}
	HandlerDuration    prometheus.Histogram
	LookupsInFlight    prometheus.Gauge
	NotifierPublishErr prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RegistrationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "registration_attempts_total",
			Help:      "Registration attempts by terminal outcome.",
		}, []string{"outcome"}),
		RegistrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "location_reminder",
			Name:      "registration_duration_seconds",
			Help:      "Duration of a registration attempt from validation to its terminal state.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
		}),
		GeofencesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "geofences_registered_total",
			Help:      "Geofences successfully registered with the location daemon.",
		}),
		TransitionEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "transition_events_total",
			Help:      "Enter-transition events received from the location daemon.",
		}),
		TransitionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "transition_errors_total",
			Help:      "Transition events that reported a platform delivery error.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "notifications_sent_total",
			Help:      "User notifications emitted for triggered reminders.",
		}),
		LookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "lookup_failures_total",
			Help:      "Reminder lookups that failed during transition handling, by reason.",
		}, []string{"reason"}),
		HandlerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "location_reminder",
			Name:      "handler_duration_seconds",
			Help:      "Duration of handling one transition event, all lookups included.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		LookupsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "location_reminder",
			Name:      "lookups_in_flight",
			Help:      "Reminder lookups currently running in the transition worker pool.",
		}),
		NotifierPublishErr: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "location_reminder",
			Name:      "notifier_publish_errors_total",
			Help:      "Notification publishes that failed.",
		}),
	}

	prometheus.MustRegister(
		m.RegistrationAttempts,
		m.RegistrationDuration,
		m.GeofencesRegistered,
		m.TransitionEvents,
		m.TransitionErrors,
		m.NotificationsSent,
		m.LookupFailures,
		m.HandlerDuration,
		m.LookupsInFlight,
		m.NotifierPublishErr,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RegistrationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "location_reminder", Name: "registration_attempts_total"}, []string{"outcome"}),
		RegistrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "location_reminder", Name: "registration_duration_seconds"}),
		GeofencesRegistered:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location_reminder", Name: "geofences_registered_total"}),
		TransitionEvents:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location_reminder", Name: "transition_events_total"}),
		TransitionErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location_reminder", Name: "transition_errors_total"}),
		NotificationsSent:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location_reminder", Name: "notifications_sent_total"}),
		LookupFailures:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "location_reminder", Name: "lookup_failures_total"}, []string{"reason"}),
		HandlerDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "location_reminder", Name: "handler_duration_seconds"}),
		LookupsInFlight:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "location_reminder", Name: "lookups_in_flight"}),
		NotifierPublishErr:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "location_reminder", Name: "notifier_publish_errors_total"}),
	}
}
