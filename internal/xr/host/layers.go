package host

import "github.com/banshee-data/xrsession/internal/xrmath"

// Viewport is a pixel rectangle within a framebuffer or texture.
type Viewport struct {
	X, Y, Width, Height int
}

// Framebuffer is an opaque host-owned framebuffer.
type Framebuffer interface{}

// CompositionLayer is any layer the host compositor can present.
type CompositionLayer interface {
	LayerID() string
}

// BaseLayerInit configures a single-layer surface.
type BaseLayerInit struct {
	Antialias              bool
	Alpha                  bool
	Depth                  bool
	Stencil                bool
	FramebufferScaleFactor float64
}

// BaseLayer is the emulated strategy's single presentation surface.
type BaseLayer interface {
	CompositionLayer
	FramebufferWidth() int
	FramebufferHeight() int
	Framebuffer() Framebuffer
	Viewport(view *View) Viewport

	// Foveation returns false when the layer does not support it.
	Foveation() (float64, bool)
	SetFoveation(f float64)
}

// ProjectionLayerInit configures the native strategy's projection layer.
type ProjectionLayerInit struct {
	ColorFormat TextureFormat
	DepthFormat TextureFormat
	ScaleFactor float64
}

// ProjectionLayer is the native strategy's base layer, packing every view
// side by side into one texture.
type ProjectionLayer interface {
	CompositionLayer
	TextureWidth() int
	TextureHeight() int
	IgnoreDepthValues() bool
	FixedFoveation() float64
	SetFixedFoveation(f float64)
}

// NativeLayer is a compositor-managed overlay (quad or cylinder).
type NativeLayer interface {
	CompositionLayer
	SetTransform(t xrmath.RigidTransform)
	Destroy() error
}

// QuadLayerInit describes a flat native layer. Width and Height are half
// extents.
type QuadLayerInit struct {
	Transform       xrmath.RigidTransform
	Width, Height   float64
	Space           ReferenceSpace
	ViewPixelWidth  int
	ViewPixelHeight int
}

// CylinderLayerInit describes a curved native layer.
type CylinderLayerInit struct {
	Transform       xrmath.RigidTransform
	Radius          float64
	CentralAngle    float64
	AspectRatio     float64
	Space           ReferenceSpace
	ViewPixelWidth  int
	ViewPixelHeight int
}

// SubImage is the per-frame texture region a layer must be rendered into.
type SubImage struct {
	ColorTexture        Texture
	DepthStencilTexture Texture
	Viewport            Viewport
}

// Binding creates native layers and resolves their per-frame sub-images.
type Binding interface {
	CreateProjectionLayer(init ProjectionLayerInit) (ProjectionLayer, error)
	CreateQuadLayer(init QuadLayerInit) (NativeLayer, error)
	CreateCylinderLayer(init CylinderLayerInit) (NativeLayer, error)
	SubImage(layer NativeLayer, frame Frame) SubImage
	ViewSubImage(layer ProjectionLayer, view *View) SubImage
}
