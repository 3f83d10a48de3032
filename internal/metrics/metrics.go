package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studybuddy/internal/asynctask"
	"studybuddy/internal/quiz"
)

const namespace = "studybuddy"

// Metrics holds Prometheus metrics for the service. It also observes quiz
// session lifecycle events.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	SessionsActive   prometheus.Gauge
	QuizzesCompleted *prometheus.CounterVec
	QuizScore        prometheus.Histogram
	TasksResolved    *prometheus.CounterVec
	ContactOutcomes  *prometheus.CounterVec
}

// NewMetrics registers every collector on registry; nil creates a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of requests currently being processed",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quiz",
			Name:      "sessions_active",
			Help:      "Quiz sessions started but not yet completed or abandoned",
		}),
		QuizzesCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "quiz",
				Name:      "completed_total",
				Help:      "Completed quiz sessions by grade",
			},
			[]string{"grade"},
		),
		QuizScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quiz",
			Name:      "score_percent",
			Help:      "Distribution of quiz scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		TasksResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "study",
				Name:      "tasks_resolved_total",
				Help:      "Simulated background tasks by kind and final status",
			},
			[]string{"kind", "status"},
		),
		ContactOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "contact",
				Name:      "submissions_total",
				Help:      "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionStarted(quiz.Snapshot) {
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionCompleted(result quiz.Result) {
	m.SessionsActive.Dec()
	m.QuizzesCompleted.WithLabelValues(result.Grade).Inc()
	m.QuizScore.Observe(float64(result.Score))
}

func (m *Metrics) SessionAbandoned(quiz.Snapshot) {
	m.SessionsActive.Dec()
}

func (m *Metrics) ContactOutcome(outcome string) {
	m.ContactOutcomes.WithLabelValues(outcome).Inc()
}

// WatchTasks counts resolved tasks from a runner event stream until it closes.
// Run it in its own goroutine.
func WatchTasks[I, O any](m *Metrics, kind string, events <-chan asynctask.Event[I, O]) {
	for event := range events {
		if event.Task.Status == asynctask.StatusPending {
			continue
		}
		m.TasksResolved.WithLabelValues(kind, string(event.Task.Status)).Inc()
	}
}
