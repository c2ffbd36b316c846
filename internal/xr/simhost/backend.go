package simhost

import (
	"context"
	"fmt"

	"github.com/banshee-data/xrsession/internal/xr/host"
)

// Texture is a named host texture.
type Texture struct {
	ID string
}

func (t *Texture) TextureID() string { return t.ID }

// Backend records every render-target operation in Trace.
type Backend struct {
	Attrs        host.ContextAttributes
	NativeLayers bool
	Encoding     host.Encoding

	// CompatErr is returned by MakeXRCompatible when set.
	CompatErr error

	// Trace holds "bind:<target>", "textures:<target>:<color>" and
	// "framebuffer:<target>" entries in call order. The default
	// framebuffer is named "default".
	Trace []string

	current      *host.RenderTarget
	textures     map[*host.RenderTarget][2]host.Texture
	framebuffers map[*host.RenderTarget]host.Framebuffer
}

var _ host.Backend = (*Backend)(nil)

// NewBackend returns an antialiased, depth-buffered backend. native
// controls whether it can render into compositor layer textures.
func NewBackend(native bool) *Backend {
	return &Backend{
		Attrs:        host.ContextAttributes{Antialias: true, Alpha: true, Depth: true},
		NativeLayers: native,
		Encoding:     host.SRGBEncoding,
		textures:     make(map[*host.RenderTarget][2]host.Texture),
		framebuffers: make(map[*host.RenderTarget]host.Framebuffer),
	}
}

func targetName(rt *host.RenderTarget) string {
	if rt == nil {
		return "default"
	}
	return rt.ID
}

func (b *Backend) ContextAttributes() host.ContextAttributes { return b.Attrs }

func (b *Backend) MakeXRCompatible(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.CompatErr != nil {
		return b.CompatErr
	}
	b.Attrs.XRCompatible = true
	return nil
}

func (b *Backend) SupportsNativeLayers() bool { return b.NativeLayers }

func (b *Backend) OutputEncoding() host.Encoding { return b.Encoding }

func (b *Backend) RenderTarget() *host.RenderTarget { return b.current }

func (b *Backend) SetRenderTarget(rt *host.RenderTarget) {
	b.current = rt
	b.Trace = append(b.Trace, "bind:"+targetName(rt))
}

func (b *Backend) SetRenderTargetFramebuffer(rt *host.RenderTarget, fb host.Framebuffer) {
	b.framebuffers[rt] = fb
	b.Trace = append(b.Trace, "framebuffer:"+targetName(rt))
}

func (b *Backend) SetRenderTargetTextures(rt *host.RenderTarget, color, depth host.Texture) {
	b.textures[rt] = [2]host.Texture{color, depth}
	id := "nil"
	if color != nil {
		id = color.TextureID()
	}
	b.Trace = append(b.Trace, fmt.Sprintf("textures:%s:%s", targetName(rt), id))
}

// BoundTextures returns the color and depth textures last bound to rt.
func (b *Backend) BoundTextures(rt *host.RenderTarget) (color, depth host.Texture) {
	t := b.textures[rt]
	return t[0], t[1]
}

// BoundFramebuffer returns the host framebuffer last bound to rt.
func (b *Backend) BoundFramebuffer(rt *host.RenderTarget) host.Framebuffer {
	return b.framebuffers[rt]
}

// ResetTrace clears the recorded calls.
func (b *Backend) ResetTrace() { b.Trace = nil }
