// ABOUTME: Prometheus counters and gauges for the live telemetry client
// ABOUTME: Nil-safe recording methods so instrumentation is optional

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/symbios-live/internal/live"
)

const namespace = "symbios_live"

// Frame outcomes.
const (
	FrameAccepted  = "accepted"
	FrameIgnored   = "ignored"
	FrameMalformed = "malformed"
)

// Reconnect kinds.
const (
	ReconnectAuto   = "auto"
	ReconnectManual = "manual"
)

// Command outcomes.
const (
	CommandSent    = "sent"
	CommandDropped = "dropped"
	CommandFailed  = "failed"
)

var allPhases = []live.Phase{
	live.PhaseIdle,
	live.PhaseConnecting,
	live.PhaseOpen,
	live.PhaseClosed,
	live.PhaseFailed,
}

// Collector groups the client's instruments.
type Collector struct {
	registry   *prometheus.Registry
	frames     *prometheus.CounterVec
	reconnects *prometheus.CounterVec
	commands   *prometheus.CounterVec
	exhausted  prometheus.Counter
	phase      *prometheus.GaugeVec
	lastStep   prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Inbound frames by decode outcome.",
		}, []string{"outcome"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect attempts by trigger.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Outbound commands by action and outcome.",
		}, []string{"action", "outcome"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_exhausted_total",
			Help:      "Times automatic reconnection gave up.",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_phase",
			Help:      "1 for the current connection phase, 0 otherwise.",
		}, []string{"phase"}),
		lastStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_step",
			Help:      "Step index of the most recently folded event.",
		}),
	}

	c.registry.MustRegister(c.frames, c.reconnects, c.commands, c.exhausted, c.phase, c.lastStep)
	c.SetPhase(live.PhaseIdle)
	return c
}

// Frame records the outcome of decoding one inbound frame.
func (c *Collector) Frame(outcome string) {
	if c == nil {
		return
	}
	c.frames.WithLabelValues(outcome).Inc()
}

// Reconnect records a reconnect attempt of the given kind.
func (c *Collector) Reconnect(kind string) {
	if c == nil {
		return
	}
	c.reconnects.WithLabelValues(kind).Inc()
}

// Exhausted records that automatic reconnection stopped.
func (c *Collector) Exhausted() {
	if c == nil {
		return
	}
	c.exhausted.Inc()
}

// Command records an outbound command outcome.
func (c *Collector) Command(action, outcome string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(action, outcome).Inc()
}

// SetPhase marks p as the current phase.
func (c *Collector) SetPhase(p live.Phase) {
	if c == nil {
		return
	}
	for _, other := range allPhases {
		v := 0.0
		if other == p {
			v = 1
		}
		c.phase.WithLabelValues(other.String()).Set(v)
	}
}

// SetStep records the latest folded step index.
func (c *Collector) SetStep(step int) {
	if c == nil {
		return
	}
	c.lastStep.Set(float64(step))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
