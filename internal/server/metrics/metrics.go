// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	LoginTotal        *prometheus.CounterVec
	RegistrationTotal *prometheus.CounterVec
	LockoutsTotal     *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credauth_login_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RegistrationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credauth_registration_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		LockoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credauth_lockouts_total",
				Help: "Credentials locked after repeated failures",
			},
			[]string{"role"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credauth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credauth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.LoginTotal,
		m.RegistrationTotal,
		m.LockoutsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

func (m *Metrics) Login(outcome string) {
	m.LoginTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration(outcome string) {
	m.RegistrationTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Lockout(role models.Role) {
	m.LockoutsTotal.WithLabelValues(role.String()).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(registry prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
