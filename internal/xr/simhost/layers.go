package simhost

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// BaseLayer is a single framebuffer split into one viewport per eye.
type BaseLayer struct {
	ID     string
	Init   host.BaseLayerInit
	Width  int
	Height int

	foveation float64
	fb        *Texture
}

var _ host.BaseLayer = (*BaseLayer)(nil)

func (l *BaseLayer) LayerID() string               { return l.ID }
func (l *BaseLayer) FramebufferWidth() int         { return l.Width }
func (l *BaseLayer) FramebufferHeight() int        { return l.Height }
func (l *BaseLayer) Framebuffer() host.Framebuffer { return l.fb }

// Viewport returns the left or right half for stereo views and the full
// framebuffer otherwise.
func (l *BaseLayer) Viewport(view *host.View) host.Viewport {
	return eyeViewport(view, l.Width, l.Height)
}

func (l *BaseLayer) Foveation() (float64, bool) { return l.foveation, true }
func (l *BaseLayer) SetFoveation(f float64)     { l.foveation = f }

func eyeViewport(view *host.View, w, h int) host.Viewport {
	switch view.Eye {
	case host.EyeLeft:
		return host.Viewport{Width: w / 2, Height: h}
	case host.EyeRight:
		return host.Viewport{X: w / 2, Width: w / 2, Height: h}
	default:
		return host.Viewport{Width: w, Height: h}
	}
}

// ProjectionLayer packs both eyes side by side into one texture.
type ProjectionLayer struct {
	ID     string
	Init   host.ProjectionLayerInit
	Width  int
	Height int

	// IgnoreDepth is reported by IgnoreDepthValues.
	IgnoreDepth bool

	foveation float64
	color     *Texture
	depth     *Texture
}

var _ host.ProjectionLayer = (*ProjectionLayer)(nil)

func (l *ProjectionLayer) LayerID() string             { return l.ID }
func (l *ProjectionLayer) TextureWidth() int           { return l.Width }
func (l *ProjectionLayer) TextureHeight() int          { return l.Height }
func (l *ProjectionLayer) IgnoreDepthValues() bool     { return l.IgnoreDepth }
func (l *ProjectionLayer) FixedFoveation() float64     { return l.foveation }
func (l *ProjectionLayer) SetFixedFoveation(f float64) { l.foveation = f }

// NativeLayer is a quad or cylinder compositor layer.
type NativeLayer struct {
	ID        string
	Kind      string // "quad" or "cylinder"
	Quad      host.QuadLayerInit
	Cylinder  host.CylinderLayerInit
	Transform xrmath.RigidTransform
	Destroyed bool

	// DestroyErr is returned by Destroy when set.
	DestroyErr error

	color *Texture
}

var _ host.NativeLayer = (*NativeLayer)(nil)

func (l *NativeLayer) LayerID() string                      { return l.ID }
func (l *NativeLayer) SetTransform(t xrmath.RigidTransform) { l.Transform = t }

func (l *NativeLayer) Destroy() error {
	if l.Destroyed {
		return fmt.Errorf("layer %s already destroyed", l.ID)
	}
	l.Destroyed = true
	return l.DestroyErr
}

// Binding creates compositor layers for one session.
type Binding struct {
	session *Session

	// Created lists every quad and cylinder layer in creation order.
	Created []*NativeLayer

	// FailQuad makes CreateQuadLayer fail.
	FailQuad error

	// NextDestroyErr is given to the next created native layer.
	NextDestroyErr error

	projection *ProjectionLayer
}

var _ host.Binding = (*Binding)(nil)

func (b *Binding) CreateProjectionLayer(init host.ProjectionLayerInit) (host.ProjectionLayer, error) {
	scale := init.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	id := uuid.NewString()
	b.projection = &ProjectionLayer{
		ID:     id,
		Init:   init,
		Width:  int(float64(b.session.ViewWidth*2) * scale),
		Height: int(float64(b.session.ViewHeight) * scale),
		color:  &Texture{ID: id + "/color"},
		depth:  &Texture{ID: id + "/depth"},
	}
	return b.projection, nil
}

func (b *Binding) newNative(kind string) *NativeLayer {
	id := uuid.NewString()
	l := &NativeLayer{ID: id, Kind: kind, color: &Texture{ID: id + "/color"}, DestroyErr: b.NextDestroyErr}
	b.NextDestroyErr = nil
	b.Created = append(b.Created, l)
	return l
}

func (b *Binding) CreateQuadLayer(init host.QuadLayerInit) (host.NativeLayer, error) {
	if b.FailQuad != nil {
		return nil, b.FailQuad
	}
	l := b.newNative("quad")
	l.Quad = init
	l.Transform = init.Transform
	return l, nil
}

func (b *Binding) CreateCylinderLayer(init host.CylinderLayerInit) (host.NativeLayer, error) {
	l := b.newNative("cylinder")
	l.Cylinder = init
	l.Transform = init.Transform
	return l, nil
}

func (b *Binding) SubImage(layer host.NativeLayer, _ host.Frame) host.SubImage {
	nl := layer.(*NativeLayer)
	w, h := nl.Quad.ViewPixelWidth, nl.Quad.ViewPixelHeight
	if nl.Kind == "cylinder" {
		w, h = nl.Cylinder.ViewPixelWidth, nl.Cylinder.ViewPixelHeight
	}
	return host.SubImage{ColorTexture: nl.color, Viewport: host.Viewport{Width: w, Height: h}}
}

// ViewSubImage returns the shared projection textures with the view's half
// as the viewport.
func (b *Binding) ViewSubImage(layer host.ProjectionLayer, view *host.View) host.SubImage {
	pl := layer.(*ProjectionLayer)
	return host.SubImage{
		ColorTexture:        pl.color,
		DepthStencilTexture: pl.depth,
		Viewport:            eyeViewport(view, pl.Width, pl.Height),
	}
}

// Projection returns the last projection layer created, or nil.
func (b *Binding) Projection() *ProjectionLayer { return b.projection }
