package xr

import (
	"context"
	"fmt"

	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/layers"
)

// StartSession begins presenting s. A nil s ends the active session, if
// any; a non-nil s replaces the active session after ending it.
//
// On failure a *SessionSetupError is returned and the manager is Idle with
// nothing left subscribed or bound.
func (m *Manager) StartSession(ctx context.Context, s host.Session) error {
	if m.state == StateStarting {
		return ErrSessionStarting
	}
	if m.sc != nil {
		m.endSession()
	}
	if s == nil {
		return nil
	}

	err := m.startSession(ctx, s)
	m.metrics.SessionStarted(err)
	return err
}

// EndSession ends the active session as if the host had ended it.
func (m *Manager) EndSession() {
	if m.sc != nil && m.state == StatePresenting {
		m.endSession()
	}
}

func (m *Manager) startSession(ctx context.Context, s host.Session) error {
	m.state = StateStarting
	sc := &sessionContext{
		session:       s,
		initialTarget: m.backend.RenderTarget(),
	}
	m.sc = sc
	sc.unsubscribe = s.Subscribe(m.onSessionEvent)
	m.publishStatus()

	fail := func(stage SetupStage, err error) error {
		m.rollback()
		serr := &SessionSetupError{Stage: stage, Err: err}
		monitoring.Logf("xr: %v", serr)
		return serr
	}

	if !m.backend.ContextAttributes().XRCompatible {
		if err := m.backend.MakeXRCompatible(ctx); err != nil {
			return fail(StageCompatibility, err)
		}
		if sc.ended {
			return fail(StageCompatibility, ErrSessionEnded)
		}
	}

	m.customRefSpace = nil
	ref, err := s.RequestReferenceSpace(ctx, m.refSpaceType)
	if err != nil {
		return fail(StageReferenceSpace, fmt.Errorf("request %q: %w", m.refSpaceType, err))
	}
	if sc.ended {
		return fail(StageReferenceSpace, ErrSessionEnded)
	}
	sc.referenceSpace = ref

	if !s.SupportsLayers() || !m.backend.SupportsNativeLayers() {
		err = m.setupEmulated(sc)
	} else {
		err = m.setupNative(sc)
	}
	if err != nil {
		return fail(StageSurface, err)
	}

	sc.target.IsXR = true
	m.SetFoveation(m.cfg.GetFoveation())

	m.anim.setContext(s)
	m.anim.start()

	m.state = StatePresenting
	m.publishStatus()
	monitoring.Logf("xr: session started (%s, %s)", m.mode(), m.refSpaceType)
	m.events.Dispatch(event.Event{Type: EventSessionStart})
	return nil
}

// setupEmulated presents through a single base layer; overlays stay on
// their proxy meshes.
func (m *Manager) setupEmulated(sc *sessionContext) error {
	attrs := m.backend.ContextAttributes()
	init := host.BaseLayerInit{
		Antialias:              attrs.Antialias,
		Alpha:                  attrs.Alpha,
		Depth:                  attrs.Depth,
		Stencil:                attrs.Stencil,
		FramebufferScaleFactor: m.framebufferScale,
	}
	if sc.session.SupportsLayers() {
		// Layer-capable host on a backend that cannot use them.
		init.Antialias = true
	}

	bl, err := sc.session.NewBaseLayer(init)
	if err != nil {
		return fmt.Errorf("create base layer: %w", err)
	}
	sc.baseLayer = bl
	sc.session.UpdateRenderState(host.RenderStateInit{BaseLayer: bl})

	sc.target = host.NewRenderTarget(bl.FramebufferWidth(), bl.FramebufferHeight(), host.RenderTargetOptions{
		Format:        host.FormatRGBA,
		Type:          host.TypeUnsignedByte,
		Encoding:      m.backend.OutputEncoding(),
		StencilBuffer: attrs.Stencil,
	})
	return nil
}

// setupNative presents through a projection layer and moves every overlay
// onto its own compositor layer.
func (m *Manager) setupNative(sc *sessionContext) error {
	attrs := m.backend.ContextAttributes()

	var layerDepth, depthFormat host.TextureFormat
	var depthType host.DataType
	if attrs.Depth {
		layerDepth, depthFormat, depthType = host.FormatDepth24, host.FormatDepth, host.TypeUnsignedInt
		if attrs.Stencil {
			layerDepth, depthFormat, depthType = host.FormatDepth24Stencil8, host.FormatDepthStencil, host.TypeUnsignedInt248
		}
	}

	binding, err := sc.session.NewBinding()
	if err != nil {
		return fmt.Errorf("create layer binding: %w", err)
	}
	proj, err := binding.CreateProjectionLayer(host.ProjectionLayerInit{
		ColorFormat: host.FormatRGBA8,
		DepthFormat: layerDepth,
		ScaleFactor: m.framebufferScale,
	})
	if err != nil {
		return fmt.Errorf("create projection layer: %w", err)
	}

	samples := 0
	if attrs.Antialias {
		samples = 4
	}
	target := host.NewRenderTarget(proj.TextureWidth(), proj.TextureHeight(), host.RenderTargetOptions{
		Format:        host.FormatRGBA,
		Type:          host.TypeUnsignedByte,
		DepthFormat:   depthFormat,
		DepthType:     depthType,
		StencilBuffer: attrs.Stencil,
		Encoding:      m.backend.OutputEncoding(),
		Samples:       samples,
	})
	target.IgnoreDepthValues = proj.IgnoreDepthValues()

	overlays, err := m.layers.Activate(layers.NativeContext{
		Session: sc.session,
		Binding: binding,
		Space:   sc.referenceSpace,
	})
	if err != nil {
		return err
	}

	// Overlays first, projection layer last.
	sc.session.UpdateRenderState(host.RenderStateInit{Layers: append(overlays, proj)})

	sc.binding = binding
	sc.projLayer = proj
	sc.target = target
	return nil
}

// rollback undoes a partial start.
func (m *Manager) rollback() {
	if m.sc != nil && m.sc.unsubscribe != nil {
		m.sc.unsubscribe()
	}
	if m.layers.Native() {
		if err := m.layers.Deactivate(); err != nil {
			monitoring.Logf("xr: releasing overlay layers: %v", err)
		}
	}
	m.sc = nil
	m.state = StateIdle
	m.publishStatus()
}

// endSession tears the active session down. It completes before the
// animation loop is stopped, so no later tick sees a partial session.
func (m *Manager) endSession() {
	sc := m.sc
	if sc == nil {
		return
	}

	sc.unsubscribe()
	m.slots.ReleaseAll()
	m.backend.SetRenderTarget(sc.initialTarget)
	m.sc = nil

	if err := m.layers.Deactivate(); err != nil {
		monitoring.Logf("xr: releasing overlay layers: %v", err)
	}
	m.planes.Reset()
	m.frame = nil

	m.anim.stop()
	m.state = StateIdle
	m.metrics.SessionEnded()
	m.publishStatus()
	monitoring.Logf("xr: session ended")
	m.events.Dispatch(event.Event{Type: EventSessionEnd})
}

func (m *Manager) onSessionEvent(ev host.SessionEvent) {
	switch {
	case ev.Type == host.EventEnd:
		// A session that never presented has nothing to tear down yet;
		// startSession sees the flag and rolls back.
		if m.state == StateStarting {
			if m.sc != nil {
				m.sc.ended = true
			}
			return
		}
		m.endSession()
	case ev.Type == host.EventInputSourcesChange:
		m.slots.HandleSourcesChange(ev.Added, ev.Removed)
		m.publishStatus()
	case ev.Type.IsInputEvent():
		m.slots.Dispatch(ev)
	}
}

func (m *Manager) mode() string {
	switch {
	case m.sc == nil:
		return ""
	case m.sc.native():
		return "native"
	default:
		return "emulated"
	}
}
