package host

import (
	"context"

	"github.com/google/uuid"
)

// ContextAttributes are the capabilities the graphics context was created with.
type ContextAttributes struct {
	Antialias    bool
	Alpha        bool
	Depth        bool
	Stencil      bool
	XRCompatible bool
}

// Encoding is the output color encoding.
type Encoding int

const (
	LinearEncoding Encoding = iota
	SRGBEncoding
)

// TextureFormat covers both engine-level formats and the sized formats
// handed to the host for native layers.
type TextureFormat int

const (
	FormatNone TextureFormat = iota
	FormatRGBA
	FormatRGBA8
	FormatDepth
	FormatDepthStencil
	FormatDepth24
	FormatDepth24Stencil8
)

// DataType is the per-channel storage type of a texture.
type DataType int

const (
	TypeNone DataType = iota
	TypeUnsignedByte
	TypeUnsignedInt
	TypeUnsignedInt248
)

// Texture is a backend texture handle.
type Texture interface {
	TextureID() string
}

// RenderTargetOptions configures an off-screen render target.
type RenderTargetOptions struct {
	Format        TextureFormat
	Type          DataType
	DepthFormat   TextureFormat // FormatNone for no depth texture
	DepthType     DataType
	StencilBuffer bool
	Encoding      Encoding
	Samples       int
}

// targetTexture is the color attachment a render target owns until a
// host texture is bound over it.
type targetTexture struct {
	id string
}

func (t targetTexture) TextureID() string { return t.id }

// RenderTarget is an off-screen surface. The backend allocates storage
// lazily on first bind.
type RenderTarget struct {
	ID      string
	Width   int
	Height  int
	Options RenderTargetOptions

	// Texture is the color attachment sampled by materials.
	Texture Texture

	// IsXR marks the shared target that session frames render into.
	IsXR bool

	// IgnoreDepthValues mirrors the projection layer's flag: depth is
	// not submitted to the compositor.
	IgnoreDepthValues bool
}

// NewRenderTarget describes a render target of the given size.
func NewRenderTarget(width, height int, opts RenderTargetOptions) *RenderTarget {
	id := uuid.NewString()
	return &RenderTarget{
		ID:      id,
		Width:   width,
		Height:  height,
		Options: opts,
		Texture: targetTexture{id: id + "/color"},
	}
}

// Backend is the graphics backend surface the session core drives.
type Backend interface {
	ContextAttributes() ContextAttributes

	// MakeXRCompatible upgrades the context for immersive use.
	MakeXRCompatible(ctx context.Context) error

	// SupportsNativeLayers reports whether the backend can render into
	// host-supplied layer textures.
	SupportsNativeLayers() bool

	OutputEncoding() Encoding

	// RenderTarget returns the currently bound target; nil is the default
	// framebuffer.
	RenderTarget() *RenderTarget
	SetRenderTarget(rt *RenderTarget)

	// SetRenderTargetFramebuffer makes rt render into a host framebuffer.
	SetRenderTargetFramebuffer(rt *RenderTarget, fb Framebuffer)

	// SetRenderTargetTextures makes rt render into host textures. depth
	// may be nil.
	SetRenderTargetTextures(rt *RenderTarget, color, depth Texture)
}
