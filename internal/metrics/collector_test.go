// ABOUTME: Tests for the Prometheus collector
// ABOUTME: Verifies counter labels, phase gauge exclusivity, nil safety, and the scrape handler

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/symbios-live/internal/live"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.Frame(FrameAccepted)
	c.Frame(FrameAccepted)
	c.Frame(FrameMalformed)
	c.Reconnect(ReconnectAuto)
	c.Command("pause", CommandSent)
	c.Command("play", CommandDropped)
	c.Exhausted()
	c.SetStep(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.frames.WithLabelValues(FrameAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.frames.WithLabelValues(FrameMalformed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.frames.WithLabelValues(FrameIgnored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconnects.WithLabelValues(ReconnectAuto)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("pause", CommandSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("play", CommandDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exhausted))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.lastStep))
}

func TestCollector_PhaseGaugeIsExclusive(t *testing.T) {
	c := New()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phase.WithLabelValues("idle")))

	c.SetPhase(live.PhaseOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.phase.WithLabelValues("open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.phase.WithLabelValues("idle")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.phase.WithLabelValues("failed")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Frame(FrameAccepted)
		c.Reconnect(ReconnectManual)
		c.Command("play", CommandSent)
		c.Exhausted()
		c.SetPhase(live.PhaseOpen)
		c.SetStep(1)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Frame(FrameIgnored)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `symbios_live_frames_total{outcome="ignored"} 1`)
	assert.Contains(t, string(body), `symbios_live_connection_phase{phase="idle"} 1`)
}
