package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics tracks live connections and the fate of relayed events.
type RelayMetrics struct {
	connections prometheus.Gauge
	events      *prometheus.CounterVec
}

const (
	RelayOutcomeDelivered = "delivered"
	RelayOutcomeOffline   = "offline"
	RelayOutcomeDropped   = "dropped"
)

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "estatehub_relay_connections",
		Help: "Open realtime connections.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estatehub_relay_events_total",
		Help: "Realtime events by type and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(connections, events)
	return &RelayMetrics{connections: connections, events: events}
}

func (r *RelayMetrics) ConnOpened() {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Inc()
}

func (r *RelayMetrics) ConnClosed() {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Dec()
}

// Event records what happened to one outbound event.
func (r *RelayMetrics) Event(event, outcome string) {
	if r == nil || r.events == nil {
		return
	}
	r.events.WithLabelValues(normalizeLabel(event), outcome).Inc()
}
