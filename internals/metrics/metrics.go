package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BookingAdmissions counts admission attempts by mode and outcome
	// (outcome is "admitted" or an admission error code).
	BookingAdmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studioku",
		Subsystem: "booking",
		Name:      "admissions_total",
		Help:      "Booking admission attempts by mode and outcome.",
	}, []string{"mode", "outcome"})

	AdmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "studioku",
		Subsystem: "booking",
		Name:      "admission_duration_seconds",
		Help:      "Time spent inside a single admission, transaction included.",
		Buckets:   prometheus.DefBuckets,
	})

	BulkBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studioku",
		Subsystem: "booking",
		Name:      "bulk_batches_total",
		Help:      "Bulk booking batches by final status.",
	}, []string{"status"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studioku",
		Subsystem: "booking",
		Name:      "transitions_total",
		Help:      "Cancellations, reschedules and attendance updates.",
	}, []string{"action"})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studioku",
		Subsystem: "notifications",
		Name:      "published_total",
		Help:      "Notification events by type and result.",
	}, []string{"type", "result"})
)

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
