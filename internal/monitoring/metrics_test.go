package monitoring

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestXRMetrics_NilReceiver(t *testing.T) {
	var m *XRMetrics
	// None of these may panic.
	m.FrameTicked(true)
	m.PlaneEvent("added")
	m.SlotSaturated()
	m.SessionStarted(nil)
	m.SessionEnded()
}

func TestXRMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewXRMetrics(reg)

	m.FrameTicked(true)
	m.FrameTicked(false)
	m.FrameTicked(false)
	m.PlaneEvent("added")
	m.PlaneEvent("added")
	m.PlaneEvent("removed")
	m.SlotSaturated()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.poselessFrames))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.planeEvents.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.planeEvents.WithLabelValues("removed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotSaturation))
}

func TestXRMetrics_PresentingGauge(t *testing.T) {
	m := NewXRMetrics(nil)

	m.SessionStarted(errors.New("no reference space"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.presenting))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionStarts.WithLabelValues("failed")))

	m.SessionStarted(nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.presenting))

	m.SessionEnded()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.presenting))
}
