package layers

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// RenderFunc draws a layer's content into the currently bound render
// target.
type RenderFunc func()

// Layer is one overlay surface.
type Layer struct {
	ID          string
	Shape       Shape
	Translation r3.Vec
	Orientation quat.Number
	PixelWidth  int
	PixelHeight int

	// Proxy is the mesh the application adds to its scene.
	Proxy *scene.Mesh

	material *scene.Material // samples target; shown when emulated
	target   *host.RenderTarget
	native   host.NativeLayer
	render   RenderFunc
}

// RenderTarget returns the layer's current off-screen surface.
func (l *Layer) RenderTarget() *host.RenderTarget { return l.target }

// Native returns the compositor handle, or nil when emulated.
func (l *Layer) Native() host.NativeLayer { return l.native }

// NativeContext is what a native-mode session lends the layer manager.
type NativeContext struct {
	Session host.Session
	Binding host.Binding
	Space   host.ReferenceSpace
}

// Manager owns every overlay layer. Layers outlive sessions.
type Manager struct {
	backend host.Backend
	samples int

	layers    []*Layer
	native    *NativeContext
	mainScene *scene.Object
}

// NewManager returns a manager whose emulated surfaces use samples MSAA
// samples when the context is antialiased.
func NewManager(backend host.Backend, samples int) *Manager {
	return &Manager{backend: backend, samples: samples}
}

// SetMainScene registers the scene root whose descendants are refreshed in
// native mode. Proxies outside it are skipped.
func (m *Manager) SetMainScene(root *scene.Object) { m.mainScene = root }

// HasLayers reports whether a main scene is registered.
func (m *Manager) HasLayers() bool { return m.mainScene != nil }

// Layers returns the layers in creation order.
func (m *Manager) Layers() []*Layer {
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

// Native reports whether native compositing is active.
func (m *Manager) Native() bool { return m.native != nil }

// CreateQuad adds a flat layer of the given size in metres, placed at
// translation/orientation, with a pixelWidth x pixelHeight surface.
func (m *Manager) CreateQuad(width, height float64, translation r3.Vec, orientation quat.Number,
	pixelWidth, pixelHeight int, render RenderFunc) (*Layer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("quad layer size must be positive, got %gx%g", width, height)
	}
	return m.create(Quad{Width: width, Height: height}, translation, orientation, pixelWidth, pixelHeight, render)
}

// CreateCylinder adds a curved layer. centralAngle is in radians.
func (m *Manager) CreateCylinder(radius, centralAngle, aspectRatio float64, translation r3.Vec, orientation quat.Number,
	pixelWidth, pixelHeight int, render RenderFunc) (*Layer, error) {
	if radius <= 0 || aspectRatio <= 0 {
		return nil, fmt.Errorf("cylinder layer radius and aspect ratio must be positive, got %g, %g", radius, aspectRatio)
	}
	if centralAngle <= 0 || centralAngle > 2*math.Pi {
		return nil, fmt.Errorf("cylinder layer central angle must be in (0, 2π], got %g", centralAngle)
	}
	return m.create(Cylinder{Radius: radius, CentralAngle: centralAngle, AspectRatio: aspectRatio},
		translation, orientation, pixelWidth, pixelHeight, render)
}

func (m *Manager) create(s Shape, translation r3.Vec, orientation quat.Number,
	pixelWidth, pixelHeight int, render RenderFunc) (*Layer, error) {
	if pixelWidth <= 0 || pixelHeight <= 0 {
		return nil, fmt.Errorf("layer pixel size must be positive, got %dx%d", pixelWidth, pixelHeight)
	}
	if render == nil {
		return nil, fmt.Errorf("layer render function is nil")
	}
	if orientation == (quat.Number{}) {
		orientation = xrmath.IdentityQuat()
	}

	geometry, side := proxyGeometry(s)
	l := &Layer{
		ID:          uuid.NewString(),
		Shape:       s,
		Translation: translation,
		Orientation: orientation,
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
		material:    scene.NewBasicMaterial(0xffffff, side),
		target:      m.newSurface(pixelWidth, pixelHeight),
		render:      render,
	}
	l.material.Map = l.target.Texture
	l.Proxy = scene.NewMesh("overlay-"+l.ID, geometry, l.material)
	l.Proxy.Position = translation
	l.Proxy.Quaternion = orientation

	if m.native != nil {
		if err := m.activate(l); err != nil {
			return nil, fmt.Errorf("activate layer: %w", err)
		}
		// Newest overlay goes to the front of the host's stack.
		stack := m.native.Session.RenderState().Layers
		stack = append([]host.CompositionLayer{l.native}, stack...)
		m.native.Session.UpdateRenderState(host.RenderStateInit{Layers: stack})
	}

	m.layers = append(m.layers, l)
	return l, nil
}

// newSurface allocates an emulated off-screen surface.
func (m *Manager) newSurface(width, height int) *host.RenderTarget {
	attrs := m.backend.ContextAttributes()
	opts := host.RenderTargetOptions{
		Format:        host.FormatRGBA,
		Type:          host.TypeUnsignedByte,
		DepthFormat:   host.FormatDepth,
		DepthType:     host.TypeUnsignedInt,
		StencilBuffer: attrs.Stencil,
		Encoding:      m.backend.OutputEncoding(),
		Samples:       1,
	}
	if attrs.Stencil {
		opts.DepthFormat = host.FormatDepthStencil
		opts.DepthType = host.TypeUnsignedInt248
	}
	if attrs.Antialias {
		opts.Samples = m.samples
	}
	return host.NewRenderTarget(width, height, opts)
}

// nativeMaterial draws nothing in color but still writes depth.
func nativeMaterial(side scene.Side) *scene.Material {
	mat := scene.NewBasicMaterial(0xffffff, side)
	mat.Blending = scene.CustomBlending
	mat.BlendEquation = scene.AddEquation
	mat.BlendSrc = scene.ZeroFactor
	mat.BlendDst = scene.ZeroFactor
	return mat
}

func (m *Manager) activate(l *Layer) error {
	nl, err := createNative(m.native.Binding, m.native.Space, l)
	if err != nil {
		return err
	}
	l.native = nl
	l.Proxy.Material = nativeMaterial(l.material.Side)
	return nil
}

// Activate switches every layer to native compositing and returns their
// compositor handles in stack order (newest first). On error every layer
// activated so far is released again and the manager stays emulated.
func (m *Manager) Activate(nc NativeContext) ([]host.CompositionLayer, error) {
	if m.native != nil {
		return nil, fmt.Errorf("layers already native")
	}
	m.native = &nc

	stack := make([]host.CompositionLayer, 0, len(m.layers))
	for _, l := range m.layers {
		if err := m.activate(l); err != nil {
			if derr := m.Deactivate(); derr != nil {
				err = multierror.Append(err, derr)
			}
			return nil, fmt.Errorf("activate layer %s: %w", l.ID, err)
		}
		stack = append([]host.CompositionLayer{l.native}, stack...)
	}
	return stack, nil
}

// Deactivate releases every compositor handle and reverts each proxy to
// sampling a fresh off-screen surface. All layers are reverted even when
// releasing some handles fails; the failures are returned together.
func (m *Manager) Deactivate() error {
	var result *multierror.Error
	for _, l := range m.layers {
		if l.native == nil {
			continue
		}
		if err := l.native.Destroy(); err != nil {
			result = multierror.Append(result, fmt.Errorf("layer %s: %w", l.ID, err))
		}
		l.native = nil

		// The old target was bound to compositor textures.
		l.target = m.newSurface(l.PixelWidth, l.PixelHeight)
		l.material.Map = l.target.Texture
		l.Proxy.Material = l.material
	}
	m.native = nil
	return result.ErrorOrNil()
}

// Render refreshes layer content for one session frame. Emulated layers
// are all redrawn. Native layers are redrawn only when their proxy is
// visible and part of the main scene, after the compositor layer is moved
// to the proxy's world pose.
func (m *Manager) Render(frame host.Frame) {
	if m.native == nil {
		m.Render2D()
		return
	}

	for _, l := range m.layers {
		if !l.Proxy.Visible || !l.Proxy.IsDescendantOf(m.mainScene) {
			continue
		}
		l.Proxy.UpdateWorldFromAncestors()
		l.native.SetTransform(xrmath.NewRigidTransform(l.Proxy.WorldPosition(), l.Proxy.WorldQuaternion()))

		sub := m.native.Binding.SubImage(l.native, frame)
		m.backend.SetRenderTargetTextures(l.target, sub.ColorTexture, nil)
		m.backend.SetRenderTarget(l.target)
		l.render()
		m.backend.SetRenderTarget(nil)
	}
}

// Render2D redraws every layer into its own surface and then unbinds.
func (m *Manager) Render2D() {
	for _, l := range m.layers {
		m.backend.SetRenderTarget(l.target)
		l.render()
	}
	m.backend.SetRenderTarget(nil)
}
