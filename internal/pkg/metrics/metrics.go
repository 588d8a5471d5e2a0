package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters. One instance per process,
// provided through fx.
type Metrics struct {
	Registry *prometheus.Registry

	BookingsCreated    prometheus.Counter
	BookingConflicts   prometheus.Counter
	BookingTransitions *prometheus.CounterVec
	ChangeEventsSent   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rideyard_bookings_created_total",
			Help: "Bookings successfully created.",
		}),
		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "rideyard_booking_conflicts_total",
			Help: "Booking creates rejected because the dates overlap an existing booking.",
		}),
		BookingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rideyard_booking_transitions_total",
			Help: "Booking lifecycle transitions applied, by target status.",
		}, []string{"to"}),
		ChangeEventsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "rideyard_change_events_sent_total",
			Help: "Change-feed events fanned out to connected clients.",
		}),
	}
}
