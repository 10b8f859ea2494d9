package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "txpress"

// Metrics holds the Prometheus collectors of the API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	JourneysStarted        prometheus.Counter
	JourneyStartConflicts  prometheus.Counter
	JourneysCancelled      prometheus.Counter
	JourneysClosed         prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	Logins                 *prometheus.CounterVec
	Searches               prometheus.Counter
	Selections             prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JourneysStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_started_total",
			Help:      "Journeys started by taxis.",
		}),
		JourneyStartConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journey_start_conflicts_total",
			Help:      "Start attempts rejected because the taxi already had a journey in progress.",
		}),
		JourneysCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_cancelled_total",
			Help:      "Journeys cancelled before any seat was reserved.",
		}),
		JourneysClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journeys_closed_total",
			Help:      "Journeys closed by their taxi.",
		}),
		RegistrationsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_completed_total",
			Help:      "Taxis registered together with their owner.",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Searches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches created.",
		}),
		Selections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Taxi selections stored on a search.",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncJourneyStarted() {
	if m != nil {
		m.JourneysStarted.Inc()
	}
}

func (m *Metrics) IncJourneyStartConflict() {
	if m != nil {
		m.JourneyStartConflicts.Inc()
	}
}

func (m *Metrics) IncJourneyCancelled() {
	if m != nil {
		m.JourneysCancelled.Inc()
	}
}

func (m *Metrics) IncJourneyClosed() {
	if m != nil {
		m.JourneysClosed.Inc()
	}
}

func (m *Metrics) IncRegistrationCompleted() {
	if m != nil {
		m.RegistrationsCompleted.Inc()
	}
}

// IncLogin records a login attempt; outcome is "success" or "failure".
func (m *Metrics) IncLogin(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncSearch() {
	if m != nil {
		m.Searches.Inc()
	}
}

func (m *Metrics) IncSelection() {
	if m != nil {
		m.Selections.Inc()
	}
}

// ObserveHTTP records one served request. route is the router pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
