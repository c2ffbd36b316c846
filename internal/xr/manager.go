package xr

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/config"
	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr/controller"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/layers"
	"github.com/banshee-data/xrsession/internal/xr/planes"
	"github.com/banshee-data/xrsession/internal/xr/scene"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StatePresenting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePresenting:
		return "presenting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notification types dispatched by the Manager.
const (
	EventSessionStart   = "sessionstart"
	EventSessionEnd     = "sessionend"
	EventPlanesDetected = "planesdetected"
	EventPlaneAdded     = "planeadded"
	EventPlaneRemoved   = "planeremoved"
	EventPlaneChanged   = "planechanged"
)

// FrameFunc is the application's per-frame callback. frame is nil on the
// 2D path (Render2DFrame).
type FrameFunc func(t float64, frame host.Frame)

// sessionContext is everything that lives exactly as long as one session.
type sessionContext struct {
	session        host.Session
	unsubscribe    func()
	referenceSpace host.ReferenceSpace

	// initialTarget is the render target bound before the session started.
	initialTarget *host.RenderTarget
	// target is the shared render target every session frame draws into.
	target *host.RenderTarget

	// Exactly one of baseLayer (emulated) and projLayer (native) is set
	// once setup completes.
	baseLayer host.BaseLayer
	projLayer host.ProjectionLayer
	binding   host.Binding

	// Last depth range pushed to the host.
	depthPushed         bool
	depthNear, depthFar float64

	// ended is set when the host ends the session before it presents.
	ended bool
}

func (sc *sessionContext) native() bool { return sc.projLayer != nil }

// Manager connects one host session at a time to the application's scene.
type Manager struct {
	backend host.Backend
	cfg     *config.XRConfig
	metrics *monitoring.XRMetrics
	events  *event.Dispatcher

	// Enabled routes rendering through the XR camera while presenting.
	Enabled bool
	// CameraAutoUpdate makes CameraFor call UpdateCamera.
	CameraAutoUpdate bool

	state            State
	sc               *sessionContext
	refSpaceType     string
	framebufferScale float64
	customRefSpace   host.ReferenceSpace

	camera *scene.ArrayCamera
	eyes   []*scene.Camera
	slots  *controller.Slots
	layers *layers.Manager
	planes *planes.Tracker

	anim         animation
	onFrame      FrameFunc
	frame        host.Frame
	drawingLayer bool

	statusMu sync.Mutex
	status   Status
}

// NewManager returns an idle manager. cfg may be nil for defaults and
// metrics may be nil.
func NewManager(backend host.Backend, cfg *config.XRConfig, metrics *monitoring.XRMetrics) *Manager {
	if cfg == nil {
		cfg = config.EmptyXRConfig()
	}
	m := &Manager{
		backend:          backend,
		cfg:              cfg,
		metrics:          metrics,
		events:           event.NewDispatcher(),
		CameraAutoUpdate: cfg.GetCameraAutoUpdate(),
		refSpaceType:     cfg.GetReferenceSpaceType(),
		framebufferScale: cfg.GetFramebufferScaleFactor(),
		camera:           scene.NewArrayCamera("xr"),
		slots:            controller.NewSlots(metrics),
		layers:           layers.NewManager(backend, cfg.GetOverlaySamples()),
		planes:           planes.NewTracker(),
	}
	m.camera.EnableLayer(1)
	m.camera.EnableLayer(2)
	// Left and right eyes draw layers 1 and 2 respectively.
	m.eye(0).EnableLayer(1)
	m.eye(1).EnableLayer(2)
	m.anim.setLoop(m.onAnimationFrame)
	m.publishStatus()
	return m
}

// eye returns the persistent camera for view index i.
func (m *Manager) eye(i int) *scene.Camera {
	for len(m.eyes) <= i {
		n := len(m.eyes)
		c := scene.NewCamera(fmt.Sprintf("eye-%d", n))
		c.MatrixAutoUpdate = false
		if n >= 2 {
			c.EnableLayer(n)
		}
		m.eyes = append(m.eyes, c)
	}
	return m.eyes[i]
}

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// IsPresenting reports whether a session is active.
func (m *Manager) IsPresenting() bool { return m.state == StatePresenting }

// Session returns the active session, or nil.
func (m *Manager) Session() host.Session {
	if m.sc == nil {
		return nil
	}
	return m.sc.session
}

// ReferenceSpace returns the custom reference space if one was set, or the
// negotiated one.
func (m *Manager) ReferenceSpace() host.ReferenceSpace {
	if m.customRefSpace != nil {
		return m.customRefSpace
	}
	if m.sc == nil {
		return nil
	}
	return m.sc.referenceSpace
}

// SetReferenceSpace overrides the space poses are expressed in. It is
// cleared when the next session starts.
func (m *Manager) SetReferenceSpace(space host.ReferenceSpace) { m.customRefSpace = space }

// ReferenceSpaceType is the type requested at the next session start.
func (m *Manager) ReferenceSpaceType() string { return m.refSpaceType }

// SetReferenceSpaceType sets the type negotiated at the next session start.
// While presenting the value is stored but the active space is unchanged.
func (m *Manager) SetReferenceSpaceType(t string) {
	m.refSpaceType = t
	if m.IsPresenting() {
		monitoring.Warnf("xr: cannot change reference space type while presenting; %q applies to the next session", t)
	}
}

// FramebufferScaleFactor is the scale applied at the next session start.
func (m *Manager) FramebufferScaleFactor() float64 { return m.framebufferScale }

// SetFramebufferScaleFactor sets the framebuffer scale for the next session.
func (m *Manager) SetFramebufferScaleFactor(f float64) {
	m.framebufferScale = f
	if m.IsPresenting() {
		monitoring.Warnf("xr: cannot change framebuffer scale while presenting; %g applies to the next session", f)
	}
}

// BaseLayer returns the projection layer in native mode, the base layer in
// emulated mode, or nil.
func (m *Manager) BaseLayer() host.CompositionLayer {
	switch {
	case m.sc == nil:
		return nil
	case m.sc.projLayer != nil:
		return m.sc.projLayer
	case m.sc.baseLayer != nil:
		return m.sc.baseLayer
	}
	return nil
}

// Binding returns the native layer binding, or nil when emulated.
func (m *Manager) Binding() host.Binding {
	if m.sc == nil {
		return nil
	}
	return m.sc.binding
}

// Frame returns the host frame being processed, or nil outside a tick.
func (m *Manager) Frame() host.Frame { return m.frame }

// DrawingLayer reports whether overlay content is being rendered.
func (m *Manager) DrawingLayer() bool { return m.drawingLayer }

// RenderTarget returns the shared session render target, or nil.
func (m *Manager) RenderTarget() *host.RenderTarget {
	if m.sc == nil {
		return nil
	}
	return m.sc.target
}

// Camera returns the unified camera, refreshed once per tick.
func (m *Manager) Camera() *scene.ArrayCamera { return m.camera }

// Foveation returns the active layer's foveation; false when no layer
// supports it.
func (m *Manager) Foveation() (float64, bool) {
	switch {
	case m.sc == nil:
		return 0, false
	case m.sc.projLayer != nil:
		return m.sc.projLayer.FixedFoveation(), true
	case m.sc.baseLayer != nil:
		return m.sc.baseLayer.Foveation()
	}
	return 0, false
}

// SetFoveation applies f, clamped to [0, 1], to the active layer. 0 renders
// at full resolution; 1 degrades the edges the most.
func (m *Manager) SetFoveation(f float64) {
	f = math.Max(0, math.Min(1, f))
	if m.sc == nil {
		return
	}
	if m.sc.projLayer != nil {
		m.sc.projLayer.SetFixedFoveation(f)
	}
	if m.sc.baseLayer != nil {
		if _, ok := m.sc.baseLayer.Foveation(); ok {
			m.sc.baseLayer.SetFoveation(f)
		}
	}
}

// Planes returns the planes tracked as of the last tick.
func (m *Manager) Planes() []host.Plane { return m.planes.Planes() }

// Controller returns the target-ray space of controller i.
func (m *Manager) Controller(i int) *scene.Object { return m.slots.Get(i).TargetRaySpace() }

// ControllerGrip returns the grip space of controller i.
func (m *Manager) ControllerGrip(i int) *scene.Object { return m.slots.Get(i).GripSpace() }

// Hand returns the hand space of controller i.
func (m *Manager) Hand(i int) *scene.Object { return m.slots.Get(i).HandSpace() }

// ControllerHandle returns controller i itself, for event listeners.
func (m *Manager) ControllerHandle(i int) *controller.Controller { return m.slots.Get(i) }

// SetAnimationLoop registers the per-frame callback.
func (m *Manager) SetAnimationLoop(fn FrameFunc) { m.onFrame = fn }

// AddEventListener registers fn for a notification type and returns an ID
// for RemoveEventListener.
func (m *Manager) AddEventListener(typ string, fn event.Listener) string {
	return m.events.AddListener(typ, fn)
}

// RemoveEventListener unregisters a listener.
func (m *Manager) RemoveEventListener(id string) { m.events.RemoveListener(id) }

// SetMainScene registers the scene whose overlay proxies are refreshed in
// native mode.
func (m *Manager) SetMainScene(root *scene.Object) { m.layers.SetMainScene(root) }

// HasLayers reports whether a main scene has been registered.
func (m *Manager) HasLayers() bool { return m.layers.HasLayers() }

// Layers returns every overlay layer in creation order.
func (m *Manager) Layers() []*layers.Layer { return m.layers.Layers() }

// CreateQuadLayer adds a flat overlay and returns its proxy mesh.
func (m *Manager) CreateQuadLayer(width, height float64, translation r3.Vec, orientation quat.Number,
	pixelWidth, pixelHeight int, render layers.RenderFunc) (*scene.Mesh, error) {
	l, err := m.layers.CreateQuad(width, height, translation, orientation, pixelWidth, pixelHeight, render)
	if err != nil {
		return nil, err
	}
	m.publishStatus()
	return l.Proxy, nil
}

// CreateCylinderLayer adds a curved overlay and returns its proxy mesh.
func (m *Manager) CreateCylinderLayer(radius, centralAngle, aspectRatio float64, translation r3.Vec, orientation quat.Number,
	pixelWidth, pixelHeight int, render layers.RenderFunc) (*scene.Mesh, error) {
	l, err := m.layers.CreateCylinder(radius, centralAngle, aspectRatio, translation, orientation, pixelWidth, pixelHeight, render)
	if err != nil {
		return nil, err
	}
	m.publishStatus()
	return l.Proxy, nil
}
