package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Social engagement
	PostsCreated   prometheus.Counter
	ReactionsTotal *prometheus.CounterVec
	FollowsTotal   *prometheus.CounterVec

	// Notifications
	NotificationsCreated    *prometheus.CounterVec
	NotificationWriteErrors *prometheus.CounterVec
	PushDeliveries          *prometheus.CounterVec

	// Triggers and moderation
	TriggerDuration *prometheus.HistogramVec
	TriggerFailures *prometheus.CounterVec
	PostsModerated  prometheus.Counter

	// Media
	UploadsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all metrics on the default registry
func Initialize() *Metrics {
	once.Do(func() {
		instance = New(prometheus.DefaultRegisterer)
	})
	return instance
}

// New creates all metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		PostsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total posts created",
		}),
		ReactionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactions_total",
				Help: "Reaction toggles by kind and resulting state",
			},
			[]string{"kind", "state"},
		),
		FollowsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "follows_total",
				Help: "Follow graph changes",
			},
			[]string{"action"},
		),
		NotificationsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_created_total",
				Help: "Notification messages written",
			},
			[]string{"type"},
		),
		NotificationWriteErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_write_errors_total",
				Help: "Notification messages that failed to write",
			},
			[]string{"type"},
		),
		PushDeliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "push_deliveries_total",
				Help: "Push messages by outcome",
			},
			[]string{"status"},
		),
		TriggerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trigger_duration_seconds",
				Help:    "Event trigger handling time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		TriggerFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigger_failures_total",
				Help: "Event trigger invocations that returned an error",
			},
			[]string{"trigger"},
		),
		PostsModerated: f.NewCounter(prometheus.CounterOpts{
			Name: "posts_moderated_total",
			Help: "Posts rewritten by the moderation filter",
		}),
		UploadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_uploads_total",
				Help: "Image uploads by outcome",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) PostCreated() {
	if m == nil {
		return
	}
	m.PostsCreated.Inc()
}

// ReactionToggled records a toggle; active reports whether kind is now set for the user
func (m *Metrics) ReactionToggled(kind string, active bool) {
	if m == nil {
		return
	}
	state := "removed"
	if active {
		state = "added"
	}
	m.ReactionsTotal.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) FollowChanged(action string) {
	if m == nil {
		return
	}
	m.FollowsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) NotificationWritten(notificationType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.NotificationWriteErrors.WithLabelValues(notificationType).Inc()
		return
	}
	m.NotificationsCreated.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) PushDelivered(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PushDeliveries.WithLabelValues(status).Add(float64(n))
}

// ObserveTrigger records how long a trigger ran and whether it failed
func (m *Metrics) ObserveTrigger(trigger string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.TriggerDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	if err != nil {
		m.TriggerFailures.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) PostModerated() {
	if m == nil {
		return
	}
	m.PostsModerated.Inc()
}

func (m *Metrics) UploadFinished(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.UploadsTotal.WithLabelValues(status).Inc()
}

// Middleware records request counts and latency by route pattern
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
