// internal/app/system/metrics/metrics.go
//
// Package metrics exposes Prometheus instruments for the desk. All methods
// are safe on a nil *Metrics so tests can pass nil.
package metrics

import (
	"net/http"

	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roomdesk"

// Metrics groups the desk's collectors.
type Metrics struct {
	registry *prometheus.Registry

	assignments prometheus.Counter
	bulkUpdates *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	closures    prometheus.Counter
	polls       *prometheus.CounterVec
	rooms       *prometheus.GaugeVec
}

// New registers the desk collectors plus Go and process collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Rooms assigned by agents.",
		}),
		bulkUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_updates_total",
			Help:      "Bulk updates applied, by field.",
		}, []string{"field"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Room CSV uploads, by outcome.",
		}, []string{"outcome"}),
		closures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closures_total",
			Help:      "Daily closures recorded.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Background poll ticks, by result (reloaded, unchanged, error).",
		}, []string{"result"}),
		rooms: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms in the live set, by type and state.",
		}, []string{"type", "state"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.assignments, m.bulkUpdates, m.uploads, m.closures, m.polls, m.rooms,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Assigned() {
	if m != nil {
		m.assignments.Inc()
	}
}

func (m *Metrics) BulkUpdated(field string) {
	if m != nil {
		m.bulkUpdates.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) Uploaded(ok bool) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !ok {
		outcome = "rejected"
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Closed() {
	if m != nil {
		m.closures.Inc()
	}
}

// Poll results.
const (
	PollReloaded  = "reloaded"
	PollUnchanged = "unchanged"
	PollError     = "error"
)

func (m *Metrics) Polled(result string) {
	if m != nil {
		m.polls.WithLabelValues(result).Inc()
	}
}

// ObserveRooms resets the room gauges from the live set.
func (m *Metrics) ObserveRooms(rooms []models.Room) {
	if m == nil {
		return
	}
	m.rooms.Reset()
	for _, r := range rooms {
		state := "available"
		switch {
		case r.IsOccupied:
			state = "occupied"
		case !r.Graded():
			state = "ungraded"
		}
		m.rooms.WithLabelValues(r.Type, state).Inc()
	}
}
