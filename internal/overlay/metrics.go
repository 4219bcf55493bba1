package overlay

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds one simulation run's counters, registered against a
// registry of its own so two simulations (for instance, two tests running
// in the same process) never collide trying to register the same metric
// name twice against prometheus's default global registry.
type Metrics struct {
	registry *prometheus.Registry

	DialsAttempted *prometheus.CounterVec
	GossipSent     prometheus.Counter
	TicksRun       prometheus.Counter
}

// NewMetrics builds a fresh, independent metrics registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		DialsAttempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overlay_dials_attempted_total",
			Help: "Dials scheduled on the simulated fabric, by the outcome drawn for them.",
		}, []string{"outcome"}),
		GossipSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_gossip_sent_total",
			Help: "PeerList messages sent by any node.",
		}),
		TicksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overlay_ticks_run_total",
			Help: "Ticks executed by this simulation.",
		}),
	}

	registry.MustRegister(m.DialsAttempted, m.GossipSent, m.TicksRun)
	return m
}

// Registry exposes the underlying registry, e.g. for a metrics HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
