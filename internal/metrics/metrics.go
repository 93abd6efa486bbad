// Package metrics wires the counters and gauges spec §7's error taxonomy
// and §4.5's bandwidth accounting call for into Prometheus, following the
// functional-options registration pattern vango-go-vango's middleware
// uses for its own metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config controls metric name/namespace and which registry metrics
// register against.
type Config struct {
	Namespace string
	Registry  prometheus.Registerer
}

// Option configures a Config.
type Option func(*Config)

// WithNamespace sets the Prometheus metric namespace prefix.
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithRegistry overrides the registry metrics are registered against,
// defaulting to prometheus.DefaultRegisterer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = r }
}

func defaultConfig() Config {
	return Config{Namespace: "deltasnap", Registry: prometheus.DefaultRegisterer}
}

// Collector holds every metric a session's sender/receiver tick updates.
type Collector struct {
	PacketsSent           prometheus.Counter
	PacketsDropped        *prometheus.CounterVec
	PacketsAcked          prometheus.Counter
	ProtocolViolations    prometheus.Counter
	WindowOccupancy       prometheus.Gauge
	SequenceBufferOccupancy prometheus.Gauge
	BandwidthBytesPerSec  prometheus.Gauge
}

// New builds a Collector, applying opts over the default namespace and
// registry.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_sent_total",
			Help:      "Total DeltaSnapshotPacket sends, including those the simulator drops.",
		}),
		PacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_dropped_total",
			Help:      "Packets dropped by a receiver session, labeled by reason (missing_base, malformed).",
		}, []string{"reason"}),
		PacketsAcked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_acked_total",
			Help:      "Ack packets processed by a sender session.",
		}),
		ProtocolViolations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "protocol_violations_total",
			Help:      "Packets rejected by a range failure or invalid enum on a mandatory field.",
		}),
		WindowOccupancy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "sliding_window_occupancy",
			Help:      "Unacked sequences currently outstanding in the sender's sliding window.",
		}),
		SequenceBufferOccupancy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "sequence_buffer_occupancy",
			Help:      "Live entries in the receiver's sequence buffer.",
		}),
		BandwidthBytesPerSec: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "bandwidth_bytes_per_second",
			Help:      "Rolling-window bandwidth excluding ack traffic.",
		}),
	}
}
