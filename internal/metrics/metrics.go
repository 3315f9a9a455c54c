// Package metrics exposes Prometheus counters for the ambilight server.
//
// All methods are safe to call on a nil *Metrics, so components can take an
// optional collector without guarding every call.
package metrics

import (
	"time"

	"github.com/oxabz/my-ambilight/internal/leds"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "ambilight").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry receives the metrics. Default: a fresh registry with the Go
	// and process collectors.
	Registry *prometheus.Registry
}

// Metrics holds the server's Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	datagrams         *prometheus.CounterVec
	decodeErrors      *prometheus.CounterVec
	droppedWrites     *prometheus.CounterVec
	framesTransmitted prometheus.Counter
	transmitErrors    prometheus.Counter
	transmitDuration  prometheus.Histogram
	activeDevice      prometheus.Gauge
}

// New registers the server metrics.
func New(config Config) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "ambilight"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
		config.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(config.Registry)

	m := &Metrics{
		registry: config.Registry,

		datagrams: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "datagrams_total",
			Help:        "Client datagrams decoded, by instruction",
			ConstLabels: config.ConstLabels,
		}, []string{"instruction"}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "decode_errors_total",
			Help:        "Datagrams that failed to decode, by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		droppedWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "dropped_writes_total",
			Help:        "Pixel writes ignored because the sender was not the active device",
			ConstLabels: config.ConstLabels,
		}, []string{"instruction"}),

		framesTransmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "frames_transmitted_total",
			Help:        "Frames pushed to the strip",
			ConstLabels: config.ConstLabels,
		}),

		transmitErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "transmit_errors_total",
			Help:        "Frames the transmitter failed to send",
			ConstLabels: config.ConstLabels,
		}),

		transmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "transmit_duration_seconds",
			Help:        "Time spent inside the transmitter per frame",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		activeDevice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "active_device",
			Help:        "Device currently allowed to write pixels, -1 when none",
			ConstLabels: config.ConstLabels,
		}),
	}
	m.activeDevice.Set(-1)
	return m
}

// Gatherer returns the registry for serving /metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// DatagramDecoded counts a successfully decoded client message.
func (m *Metrics) DatagramDecoded(instruction string) {
	if m == nil {
		return
	}
	m.datagrams.WithLabelValues(instruction).Inc()
}

// DecodeFailed counts a datagram that could not be decoded.
func (m *Metrics) DecodeFailed(reason string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(reason).Inc()
}

// WriteDropped counts a pixel write from an inactive device.
func (m *Metrics) WriteDropped(instruction string) {
	if m == nil {
		return
	}
	m.droppedWrites.WithLabelValues(instruction).Inc()
}

// SetActiveDevice records the device that now owns the strip.
func (m *Metrics) SetActiveDevice(id int) {
	if m == nil {
		return
	}
	m.activeDevice.Set(float64(id))
}

// FrameTransmitted implements leds.Observer
func (m *Metrics) FrameTransmitted(_ []byte, _ *leds.Frame, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.transmitDuration.Observe(took.Seconds())
	if err != nil {
		m.transmitErrors.Inc()
		return
	}
	m.framesTransmitted.Inc()
}

var _ leds.Observer = (*Metrics)(nil)
