// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadcatcher_leads_captured_total",
		Help: "Leads created through the public intake endpoint.",
	})

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadcatcher_submissions_rejected_total",
			Help: "Public submissions that did not create a lead, by reason.",
		},
		[]string{"reason"},
	)

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leadcatcher_realtime_clients",
		Help: "Currently connected realtime subscribers.",
	})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadcatcher_realtime_dropped_total",
		Help: "Realtime events dropped because a subscriber was too slow.",
	})

	httpStatusCounters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadcatcher_http_status",
			Help: "Count of responses by http status.",
		},
		[]string{"status"},
	)
)

// Rejection reasons for SubmissionsRejected.
const (
	ReasonHoneypot    = "honeypot"
	ReasonRateLimited = "rate_limited"
	ReasonUnknownForm = "unknown_widget"
	ReasonInvalid     = "invalid"
)

// RecordHTTPStats counts response statuses. Websocket upgrades are skipped.
func RecordHTTPStats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Get(fiber.HeaderUpgrade) != "" {
			return err
		}
		httpStatusCounters.WithLabelValues(strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	}
}
