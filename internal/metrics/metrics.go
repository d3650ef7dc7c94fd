// Package metrics exposes engine counters in Prometheus format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the engine's metrics behind nil-safe methods, so the
// engine can run without metrics wired at all.
type Collector struct {
	registry *prometheus.Registry

	packetsDiverted prometheus.Counter
	decoysInjected  prometheus.Counter
	recvErrors      prometheus.Counter
	sendErrors      prometheus.Counter
	sessionsActive  prometheus.Gauge
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		packetsDiverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "happycat", Subsystem: "dpi",
			Name: "packets_diverted_total",
			Help: "Packets delivered to the engine by the diversion driver.",
		}),
		decoysInjected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "happycat", Subsystem: "dpi",
			Name: "decoys_injected_total",
			Help: "Phantom decoy packets injected ahead of new flows.",
		}),
		recvErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "happycat", Subsystem: "dpi",
			Name: "recv_errors_total",
			Help: "Transient driver receive failures.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "happycat", Subsystem: "dpi",
			Name: "send_errors_total",
			Help: "Driver send failures (decoy or genuine).",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "happycat", Subsystem: "dpi",
			Name: "sessions_active",
			Help: "Flows currently tracked by the session table.",
		}),
	}
	c.registry.MustRegister(
		c.packetsDiverted,
		c.decoysInjected,
		c.recvErrors,
		c.sendErrors,
		c.sessionsActive,
	)
	return c
}

// Registry returns the collector's private registry for serving.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// PacketDiverted records one packet handed to the engine.
func (c *Collector) PacketDiverted() {
	if c != nil {
		c.packetsDiverted.Inc()
	}
}

// DecoyInjected records one successfully sent decoy.
func (c *Collector) DecoyInjected() {
	if c != nil {
		c.decoysInjected.Inc()
	}
}

// RecvError records a transient driver receive failure.
func (c *Collector) RecvError() {
	if c != nil {
		c.recvErrors.Inc()
	}
}

// SendError records a driver send failure.
func (c *Collector) SendError() {
	if c != nil {
		c.sendErrors.Inc()
	}
}

// SetSessionsActive records the current session-table size.
func (c *Collector) SetSessionsActive(n int) {
	if c != nil {
		c.sessionsActive.Set(float64(n))
	}
}
