package xr

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/config"
	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr/controller"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/simhost"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

func TestStartSessionEmulated(t *testing.T) {
	muteLogs(t)
	backend := simhost.NewBackend(false)
	m := NewManager(backend, nil, nil)
	events := recordEvents(m, EventSessionStart, EventSessionEnd)
	s := simhost.NewSession(false)

	require.NoError(t, m.StartSession(context.Background(), s))

	assert.Equal(t, StatePresenting, m.State())
	assert.True(t, m.IsPresenting())
	assert.Equal(t, host.Session(s), m.Session())
	assert.Equal(t, "local-floor", m.ReferenceSpace().Type())
	assert.Nil(t, m.Binding())
	assert.True(t, backend.Attrs.XRCompatible)

	bl, ok := m.BaseLayer().(*simhost.BaseLayer)
	require.True(t, ok, "emulated mode presents through a base layer")
	assert.Equal(t, host.CompositionLayer(bl), s.RenderState().BaseLayer)
	assert.True(t, s.LastBaseLayerInit.Antialias)
	assert.Equal(t, 1.0, s.LastBaseLayerInit.FramebufferScaleFactor)

	rt := m.RenderTarget()
	require.NotNil(t, rt)
	assert.True(t, rt.IsXR)
	assert.Equal(t, bl.FramebufferWidth(), rt.Width)
	assert.Equal(t, bl.FramebufferHeight(), rt.Height)

	fov, ok := m.Foveation()
	assert.True(t, ok)
	assert.Equal(t, 1.0, fov)

	assert.Equal(t, 1, s.PendingFrames(), "animation loop requested a frame")
	assert.Equal(t, 1, s.Subscribers())
	assert.Equal(t, []string{EventSessionStart}, *events)
}

func TestStartSessionNative(t *testing.T) {
	muteLogs(t)
	backend := simhost.NewBackend(true)
	backend.Attrs.Stencil = true
	m := NewManager(backend, nil, nil)

	// A layer created before the session moves to the compositor.
	proxy, err := m.CreateQuadLayer(1, 1, r3.Vec{Z: -1}, xrmath.IdentityQuat(), 256, 256, func() {})
	require.NoError(t, err)
	require.False(t, proxy.Material.ContributesNothing())

	s := simhost.NewSession(true)
	require.NoError(t, m.StartSession(context.Background(), s))

	proj := s.Binding().Projection()
	require.NotNil(t, proj)
	assert.Equal(t, host.CompositionLayer(proj), m.BaseLayer())
	assert.Equal(t, host.Binding(s.Binding()), m.Binding())
	assert.Equal(t, host.FormatRGBA8, proj.Init.ColorFormat)
	assert.Equal(t, host.FormatDepth24Stencil8, proj.Init.DepthFormat)

	layer := m.Layers()[0]
	require.NotNil(t, layer.Native())
	assert.True(t, proxy.Material.ContributesNothing())

	want := []host.CompositionLayer{layer.Native(), proj}
	assert.Equal(t, want, s.RenderState().Layers, "overlays first, projection layer last")

	rt := m.RenderTarget()
	assert.Equal(t, 4, rt.Options.Samples)
	assert.Equal(t, host.FormatDepthStencil, rt.Options.DepthFormat)
	assert.Equal(t, host.TypeUnsignedInt248, rt.Options.DepthType)
	assert.Equal(t, proj.Width, rt.Width)

	fov, ok := m.Foveation()
	assert.True(t, ok)
	assert.Equal(t, 1.0, fov)
	assert.Equal(t, "native", m.Status().Mode)
}

func TestStartSessionLayerHostOnEmulatedBackend(t *testing.T) {
	muteLogs(t)
	backend := simhost.NewBackend(false)
	backend.Attrs.Antialias = false
	m := NewManager(backend, nil, nil)
	s := simhost.NewSession(true)

	require.NoError(t, m.StartSession(context.Background(), s))
	_, ok := m.BaseLayer().(*simhost.BaseLayer)
	assert.True(t, ok)
	assert.True(t, s.LastBaseLayerInit.Antialias, "layer-capable hosts always get antialiasing")
}

func TestStartSessionSetupFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*simhost.Backend, *simhost.Session)
		stage SetupStage
	}{
		{"compatibility", func(b *simhost.Backend, _ *simhost.Session) { b.CompatErr = boom }, StageCompatibility},
		{"reference space", func(_ *simhost.Backend, s *simhost.Session) { s.RefSpaceErr = boom }, StageReferenceSpace},
		{"base layer", func(_ *simhost.Backend, s *simhost.Session) { s.BaseLayerErr = boom }, StageSurface},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			muteLogs(t)
			reg := prometheus.NewRegistry()
			backend := simhost.NewBackend(false)
			m := NewManager(backend, nil, monitoring.NewXRMetrics(reg))
			events := recordEvents(m, EventSessionStart, EventSessionEnd)
			s := simhost.NewSession(false)
			tt.setup(backend, s)

			err := m.StartSession(context.Background(), s)

			var serr *SessionSetupError
			require.True(t, errors.As(err, &serr), "expected SessionSetupError, got %v", err)
			assert.Equal(t, tt.stage, serr.Stage)
			assert.ErrorIs(t, err, boom)

			assert.Equal(t, StateIdle, m.State())
			assert.Nil(t, m.Session())
			assert.Nil(t, m.BaseLayer())
			assert.Equal(t, 0, s.Subscribers(), "no subscription may survive a failed start")
			assert.Equal(t, 0, s.PendingFrames())
			assert.Empty(t, *events)
		})
	}
}

func TestStartSessionNativeFailureRollsBackLayers(t *testing.T) {
	muteLogs(t)
	m := NewManager(simhost.NewBackend(true), nil, nil)
	_, err := m.CreateCylinderLayer(1, 1, 1, r3.Vec{}, xrmath.IdentityQuat(), 64, 64, func() {})
	require.NoError(t, err)
	proxy, err := m.CreateQuadLayer(1, 1, r3.Vec{}, xrmath.IdentityQuat(), 64, 64, func() {})
	require.NoError(t, err)

	s := simhost.NewSession(true)
	s.Binding().FailQuad = errors.New("compositor full")

	err = m.StartSession(context.Background(), s)
	var serr *SessionSetupError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageSurface, serr.Stage)
	for _, l := range m.Layers() {
		assert.Nil(t, l.Native())
	}
	assert.False(t, proxy.Material.ContributesNothing())
	assert.Equal(t, StateIdle, m.State())
}

func TestStartSessionNilReleasesAndRestores(t *testing.T) {
	muteLogs(t)
	backend := simhost.NewBackend(false)
	m := NewManager(backend, nil, nil)

	initial := host.NewRenderTarget(640, 480, host.RenderTargetOptions{})
	backend.SetRenderTarget(initial)

	c0, c1 := m.ControllerHandle(0), m.ControllerHandle(1)
	var disconnected []string
	for _, c := range []*controller.Controller{c0, c1} {
		c.AddEventListener(controller.EventDisconnected, func(ev event.Event) {
			disconnected = append(disconnected, ev.Data.(*simhost.InputSource).Name)
		})
	}
	events := recordEvents(m, EventSessionStart, EventSessionEnd)

	s := simhost.NewSession(false)
	require.NoError(t, m.StartSession(context.Background(), s))
	left := simhost.NewController("left", host.HandednessLeft)
	right := simhost.NewController("right", host.HandednessRight)
	s.Connect(left, right)
	require.Equal(t, host.InputSource(left), m.slots.Source(0))
	require.Equal(t, host.InputSource(right), m.slots.Source(1))

	// The session renders into its own target while presenting.
	s.Tick(16, stereoFrame())
	require.NotSame(t, initial, backend.RenderTarget())

	require.NoError(t, m.StartSession(context.Background(), nil))

	assert.Nil(t, m.slots.Source(0))
	assert.Nil(t, m.slots.Source(1))
	assert.Same(t, initial, backend.RenderTarget())
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 0, s.Subscribers())
	assert.Equal(t, 0, s.PendingFrames())
	if diff := cmp.Diff([]string{"left", "right"}, disconnected); diff != "" {
		t.Errorf("disconnects mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{EventSessionStart, EventSessionEnd}, *events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestHostEndEndsSession(t *testing.T) {
	m, _, s := startNative(t)
	proxy, err := m.CreateQuadLayer(1, 1, r3.Vec{}, xrmath.IdentityQuat(), 64, 64, func() {})
	require.NoError(t, err)
	native := m.Layers()[0].Native().(*simhost.NativeLayer)
	events := recordEvents(m, EventSessionEnd)

	s.End()

	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Session())
	assert.Nil(t, m.BaseLayer())
	assert.Nil(t, m.Binding())
	assert.True(t, native.Destroyed)
	assert.False(t, proxy.Material.ContributesNothing())
	assert.Equal(t, 0, s.PendingFrames(), "animation loop stopped")
	assert.Equal(t, []string{EventSessionEnd}, *events)

	_, ok := m.Foveation()
	assert.False(t, ok)
}

func TestEndSessionLogsLayerReleaseFailure(t *testing.T) {
	m, _, s := startNative(t)
	lines := muteLogs(t)
	s.Binding().NextDestroyErr = errors.New("gone")
	_, err := m.CreateQuadLayer(1, 1, r3.Vec{}, xrmath.IdentityQuat(), 64, 64, func() {})
	require.NoError(t, err)

	m.EndSession()

	assert.Equal(t, StateIdle, m.State(), "teardown completes despite release errors")
	assert.Contains(t, *lines, "xr: releasing overlay layers: %v")
}

func TestStartSessionReplacesActive(t *testing.T) {
	m, _, first := startEmulated(t)
	events := recordEvents(m, EventSessionStart, EventSessionEnd)

	second := simhost.NewSession(false)
	require.NoError(t, m.StartSession(context.Background(), second))

	assert.Equal(t, host.Session(second), m.Session())
	assert.Equal(t, 0, first.Subscribers())
	assert.Equal(t, 0, first.PendingFrames())
	assert.Equal(t, []string{EventSessionEnd, EventSessionStart}, *events)
}

func TestSettingsWhilePresentingApplyNextSession(t *testing.T) {
	m, _, s := startEmulated(t)
	lines := muteLogs(t)

	m.SetReferenceSpaceType("bounded-floor")
	m.SetFramebufferScaleFactor(0.5)

	require.Len(t, *lines, 2)
	assert.Contains(t, (*lines)[0], "WARN: ")
	assert.Equal(t, "local-floor", m.ReferenceSpace().Type(), "active space is unchanged")

	s.End()
	next := simhost.NewSession(false)
	require.NoError(t, m.StartSession(context.Background(), next))
	assert.Equal(t, "bounded-floor", m.ReferenceSpace().Type())
	assert.Equal(t, 0.5, next.LastBaseLayerInit.FramebufferScaleFactor)
}

func TestSettingsWhileIdleDoNotWarn(t *testing.T) {
	lines := muteLogs(t)
	m := NewManager(simhost.NewBackend(false), nil, nil)
	m.SetReferenceSpaceType("local")
	m.SetFramebufferScaleFactor(2)
	assert.Empty(t, *lines)
	assert.Equal(t, "local", m.ReferenceSpaceType())
	assert.Equal(t, 2.0, m.FramebufferScaleFactor())
}

func TestCustomReferenceSpace(t *testing.T) {
	m, _, s := startEmulated(t)
	custom := &simhost.ReferenceSpace{SpaceType: "custom"}
	m.SetReferenceSpace(custom)
	assert.Equal(t, host.ReferenceSpace(custom), m.ReferenceSpace())

	// Cleared by the next start.
	s.End()
	require.NoError(t, m.StartSession(context.Background(), simhost.NewSession(false)))
	assert.Equal(t, "local-floor", m.ReferenceSpace().Type())
}

func TestConfigDefaultsApplied(t *testing.T) {
	muteLogs(t)
	cfg := config.EmptyXRConfig()
	space, fov := "local", 0.25
	cfg.ReferenceSpaceType = &space
	cfg.Foveation = &fov

	m := NewManager(simhost.NewBackend(true), cfg, nil)
	s := simhost.NewSession(true)
	require.NoError(t, m.StartSession(context.Background(), s))

	assert.Equal(t, "local", m.ReferenceSpace().Type())
	got, ok := m.Foveation()
	assert.True(t, ok)
	assert.Equal(t, 0.25, got)
}

func TestSetFoveationClamps(t *testing.T) {
	m, _, _ := startNative(t)
	m.SetFoveation(3)
	got, _ := m.Foveation()
	assert.Equal(t, 1.0, got)
	m.SetFoveation(-1)
	got, _ = m.Foveation()
	assert.Equal(t, 0.0, got)
}

func TestDiscreteInputRouting(t *testing.T) {
	m, _, s := startEmulated(t)
	var got []string
	m.ControllerHandle(0).AddEventListener("selectstart", func(ev event.Event) { got = append(got, ev.Type) })
	m.ControllerHandle(0).AddEventListener("selectend", func(ev event.Event) { got = append(got, ev.Type) })

	src := simhost.NewController("right", host.HandednessRight)
	s.Connect(src)
	s.Input(host.EventSelectStart, src)
	s.Input(host.EventSelectEnd, src)

	// A source without a slot is dropped.
	s.Input(host.EventSelectStart, simhost.NewController("stray", host.HandednessLeft))

	assert.Equal(t, []string{"selectstart", "selectend"}, got)
}

// reentrantBackend starts a second session while the first is negotiating.
type reentrantBackend struct {
	*simhost.Backend
	m   *Manager
	err error
}

func (b *reentrantBackend) MakeXRCompatible(ctx context.Context) error {
	b.err = b.m.StartSession(ctx, simhost.NewSession(false))
	return b.Backend.MakeXRCompatible(ctx)
}

func TestStartSessionWhileStarting(t *testing.T) {
	muteLogs(t)
	backend := &reentrantBackend{Backend: simhost.NewBackend(false)}
	m := NewManager(backend, nil, nil)
	backend.m = m

	require.NoError(t, m.StartSession(context.Background(), simhost.NewSession(false)))
	assert.ErrorIs(t, backend.err, ErrSessionStarting)
	assert.Equal(t, StatePresenting, m.State())
}

// endingBackend has the host end s while the context is being upgraded.
type endingBackend struct {
	*simhost.Backend
	s *simhost.Session
}

func (b *endingBackend) MakeXRCompatible(ctx context.Context) error {
	b.s.End()
	return b.Backend.MakeXRCompatible(ctx)
}

// endingSession ends itself while its reference space is requested.
type endingSession struct {
	*simhost.Session
}

func (s *endingSession) RequestReferenceSpace(ctx context.Context, spaceType string) (host.ReferenceSpace, error) {
	s.End()
	return s.Session.RequestReferenceSpace(ctx, spaceType)
}

func TestHostEndDuringSetupAbortsStart(t *testing.T) {
	tests := []struct {
		name  string
		stage SetupStage
		setup func() (*Manager, *simhost.Session, host.Session)
	}{
		{
			name:  "while upgrading context",
			stage: StageCompatibility,
			setup: func() (*Manager, *simhost.Session, host.Session) {
				s := simhost.NewSession(false)
				m := NewManager(&endingBackend{Backend: simhost.NewBackend(false), s: s}, nil, nil)
				return m, s, s
			},
		},
		{
			name:  "while requesting reference space",
			stage: StageReferenceSpace,
			setup: func() (*Manager, *simhost.Session, host.Session) {
				s := &endingSession{Session: simhost.NewSession(true)}
				m := NewManager(simhost.NewBackend(true), nil, nil)
				return m, s.Session, s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			muteLogs(t)
			m, sim, s := tt.setup()
			m.SetAnimationLoop(func(float64, host.Frame) {})
			events := recordEvents(m, EventSessionStart, EventSessionEnd)

			err := m.StartSession(context.Background(), s)

			var serr *SessionSetupError
			require.True(t, errors.As(err, &serr), "expected SessionSetupError, got %v", err)
			assert.Equal(t, tt.stage, serr.Stage)
			assert.ErrorIs(t, err, ErrSessionEnded)
			assert.Equal(t, StateIdle, m.State())
			assert.Nil(t, m.Session())
			assert.Empty(t, *events)
			assert.Equal(t, 0, sim.Subscribers())
			assert.Equal(t, 0, sim.PendingFrames())
		})
	}
}
