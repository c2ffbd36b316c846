package monitoring

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "xrsession"

// XRMetrics counts per-frame and per-session activity. All methods are safe
// to call on a nil receiver so components can run without metrics attached.
type XRMetrics struct {
	frames         prometheus.Counter
	poselessFrames prometheus.Counter
	planeEvents    *prometheus.CounterVec
	slotSaturation prometheus.Counter
	sessionStarts  *prometheus.CounterVec
	presenting     prometheus.Gauge
}

// NewXRMetrics creates the collectors and registers them with reg. A nil
// registerer leaves the collectors unregistered, which is what tests want.
func NewXRMetrics(reg prometheus.Registerer) *XRMetrics {
	m := &XRMetrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Frames delivered by the host while presenting.",
		}),
		poselessFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "poseless_frames_total",
			Help:      "Frames with no viewer pose (tracking lost).",
		}),
		planeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "plane_events_total",
			Help:      "Detected-plane change events by kind.",
		}, []string{"kind"}),
		slotSaturation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "controller_slot_saturation_total",
			Help:      "Input sources ignored because every controller slot was bound.",
		}),
		sessionStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_starts_total",
			Help:      "Session start attempts by result.",
		}, []string{"result"}),
		presenting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "presenting",
			Help:      "1 while a session is presenting.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.frames, m.poselessFrames, m.planeEvents,
			m.slotSaturation, m.sessionStarts, m.presenting)
	}
	return m
}

func (m *XRMetrics) FrameTicked(hasPose bool) {
	if m == nil {
		return
	}
	m.frames.Inc()
	if !hasPose {
		m.poselessFrames.Inc()
	}
}

func (m *XRMetrics) PlaneEvent(kind string) {
	if m == nil {
		return
	}
	m.planeEvents.WithLabelValues(kind).Inc()
}

func (m *XRMetrics) SlotSaturated() {
	if m == nil {
		return
	}
	m.slotSaturation.Inc()
}

// SessionStarted records a start attempt. err == nil counts as success and
// raises the presenting gauge.
func (m *XRMetrics) SessionStarted(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sessionStarts.WithLabelValues("failed").Inc()
		return
	}
	m.sessionStarts.WithLabelValues("ok").Inc()
	m.presenting.Set(1)
}

func (m *XRMetrics) SessionEnded() {
	if m == nil {
		return
	}
	m.presenting.Set(0)
}
