// Package metrics exports mesh generation progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soypat/sdfmesh/meshgen"
)

const namespace = "sdfmesh"

// Compile-time interface check.
var _ meshgen.Observer = (*Metrics)(nil)

// Metrics records generator phases. It implements meshgen.Observer.
type Metrics struct {
	PhaseDuration *prometheus.HistogramVec
	PhasesTotal   *prometheus.CounterVec
	Cells         prometheus.Gauge
	Vertices      prometheus.Gauge
	Triangles     prometheus.Gauge
	Splits        prometheus.Gauge
}

// New creates the generator metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each mesh generation phase",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}, []string{"phase"}),
		PhasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "phases_total",
			Help:      "Total completed mesh generation phases",
		}, []string{"phase"}),
		Cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "octree",
			Name:      "cells",
			Help:      "Octree cells created by the last subdivision",
		}),
		Vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "vertices",
			Help:      "Mesh vertices after the last completed phase",
		}),
		Triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "triangles",
			Help:      "Mesh triangles after the last completed phase",
		}),
		Splits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "refine_splits",
			Help:      "Edge splits performed by the last refinement",
		}),
	}
	for _, c := range []prometheus.Collector{m.PhaseDuration, m.PhasesTotal, m.Cells, m.Vertices, m.Triangles, m.Splits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePhase records a completed phase.
func (m *Metrics) ObservePhase(p meshgen.Progress) {
	name := p.Phase.String()
	m.PhaseDuration.WithLabelValues(name).Observe(p.Elapsed.Seconds())
	m.PhasesTotal.WithLabelValues(name).Inc()
	m.Cells.Set(float64(p.Cells))
	m.Vertices.Set(float64(p.Vertices))
	m.Triangles.Set(float64(p.Triangles))
	m.Splits.Set(float64(p.Splits))
}

// WriteTextfile writes all metrics gathered by g to path in the text
// exposition format, for node exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
