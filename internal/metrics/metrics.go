package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metro_booking_requests_total",
			Help: "Booking requests by outcome",
		},
		[]string{"result"},
	)

	seatsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metro_seats_booked_total",
			Help: "Seats booked by successful requests",
		},
	)

	bookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metro_booking_duration_seconds",
			Help:    "Time spent in the booking transaction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"result"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metro_cancellations_total",
			Help: "Cancellation requests by outcome",
		},
		[]string{"result"},
	)

	selectionToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metro_selection_toggles_total",
			Help: "Selection toggles by action",
		},
		[]string{"action"},
	)
)

const ResultSuccess = "success"

// Toggle actions.
const (
	ToggleAdded    = "added"
	ToggleRemoved  = "removed"
	ToggleRejected = "rejected"
)

func ObserveBooking(result string, seats int, elapsed time.Duration) {
	bookingRequests.WithLabelValues(result).Inc()
	bookingDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	if result == ResultSuccess {
		seatsBooked.Add(float64(seats))
	}
}

func ObserveCancellation(result string) {
	cancellations.WithLabelValues(result).Inc()
}

func ObserveToggle(action string) {
	selectionToggles.WithLabelValues(action).Inc()
}
