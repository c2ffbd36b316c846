package scene

// Texture is anything a material can sample: typically the color attachment
// of a render target owned by the graphics backend.
type Texture interface {
	TextureID() string
}

// Side selects which faces of a surface are drawn.
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Blending selects the blend mode of a material.
type Blending int

const (
	NormalBlending Blending = iota
	CustomBlending
)

// BlendEquation combines source and destination terms under CustomBlending.
type BlendEquation int

const (
	AddEquation BlendEquation = iota
	SubtractEquation
)

// BlendFactor scales a blend term under CustomBlending.
type BlendFactor int

const (
	ZeroFactor BlendFactor = iota
	OneFactor
	SrcAlphaFactor
	OneMinusSrcAlphaFactor
)

// Material is an unlit surface description.
type Material struct {
	Color uint32
	Map   Texture
	Side  Side

	Blending      Blending
	BlendEquation BlendEquation
	BlendSrc      BlendFactor
	BlendDst      BlendFactor
}

// NewBasicMaterial returns an unlit material with normal blending.
func NewBasicMaterial(color uint32, side Side) *Material {
	return &Material{
		Color:    color,
		Side:     side,
		BlendSrc: SrcAlphaFactor,
		BlendDst: OneMinusSrcAlphaFactor,
	}
}

// ContributesNothing reports whether drawing with m leaves the target
// unchanged in color (custom blending with zero source and destination
// factors). Depth is still written, which is how a proxy punches a hole
// for a compositor layer.
func (m *Material) ContributesNothing() bool {
	return m.Blending == CustomBlending &&
		m.BlendEquation == AddEquation &&
		m.BlendSrc == ZeroFactor &&
		m.BlendDst == ZeroFactor
}
