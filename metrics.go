package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gregoryjjb/cyclist/cyclic"
)

// Metrics holds the daemon's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Operations    *prometheus.CounterVec
	Faults        *prometheus.CounterVec
	Capacity      *prometheus.GaugeVec
	Size          *prometheus.GaugeVec
	EventsDropped prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cyclist",
				Subsystem: "buffer",
				Name:      "operations_total",
				Help:      "Successful buffer operations",
			},
			[]string{"op"},
		),

		Faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cyclist",
				Subsystem: "buffer",
				Name:      "faults_total",
				Help:      "Failed buffer operations by fault kind",
			},
			[]string{"op", "kind"},
		),

		Capacity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cyclist",
				Subsystem: "buffer",
				Name:      "capacity",
				Help:      "Allocated slots per buffer",
			},
			[]string{"buffer"},
		),

		Size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cyclist",
				Subsystem: "buffer",
				Name:      "size",
				Help:      "Elements held per buffer",
			},
			[]string{"buffer"},
		),

		EventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cyclist",
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Events not delivered because a subscriber was too slow",
			},
		),
	}

	m.registry.MustRegister(m.Operations, m.Faults, m.Capacity, m.Size, m.EventsDropped)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(op string, stats BufferStats) {
	m.Operations.WithLabelValues(op).Inc()
	m.Capacity.WithLabelValues(stats.Name).Set(float64(stats.Capacity))
	m.Size.WithLabelValues(stats.Name).Set(float64(stats.Size))
}

func (m *Metrics) fault(op string, err error) {
	m.Faults.WithLabelValues(op, faultKind(err)).Inc()
}

func (m *Metrics) forget(buffer string) {
	m.Capacity.DeleteLabelValues(buffer)
	m.Size.DeleteLabelValues(buffer)
}

func faultKind(err error) string {
	switch {
	case errors.Is(err, cyclic.ErrUsage):
		return "usage"
	case errors.Is(err, cyclic.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, cyclic.ErrCapacity):
		return "capacity"
	case errors.Is(err, cyclic.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotExist):
		return "not_exist"
	case errors.Is(err, ErrExists):
		return "exists"
	case errors.Is(err, ErrLimit):
		return "limit"
	default:
		return "other"
	}
}
