// Package metrics holds the Prometheus collectors of the service and the
// Fiber middleware that records HTTP traffic.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booknest/internal/apperr"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booknest_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booknest_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	LibraryToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booknest_library_toggles_total",
			Help: "Library flag toggles by flag and resulting value",
		},
		[]string{"flag", "value"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booknest_catalog_requests_total",
			Help: "Outbound catalog requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CatalogBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "booknest_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booknest_events_published_total",
			Help: "Domain events handed to the broker by routing key and outcome",
		},
		[]string{"routing_key", "outcome"},
	)
)

// RecordToggle counts one library toggle.
func RecordToggle(flag string, value bool) {
	LibraryToggles.WithLabelValues(flag, strconv.FormatBool(value)).Inc()
}

// Middleware records request count and latency. The route label is the
// matched route pattern so path parameters do not explode cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.HTTPStatus(apperr.KindOf(err))
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
