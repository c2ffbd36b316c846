package scene

// Geometry describes the shape a mesh is generated from.
type Geometry interface {
	GeometryType() string
}

// PlaneGeometry is a flat width x height rectangle centred on the origin.
type PlaneGeometry struct {
	Width, Height float64
}

func (PlaneGeometry) GeometryType() string { return "PlaneGeometry" }

// CylinderGeometry is a (possibly open, partial) cylinder around +Y.
type CylinderGeometry struct {
	RadiusTop, RadiusBottom float64
	Height                  float64
	RadialSegments          int
	HeightSegments          int
	OpenEnded               bool
	ThetaStart, ThetaLength float64
}

func (CylinderGeometry) GeometryType() string { return "CylinderGeometry" }

// Mesh is a renderable node.
type Mesh struct {
	Object
	Geometry Geometry
	Material *Material
}

// NewMesh returns a visible mesh at the origin.
func NewMesh(name string, g Geometry, m *Material) *Mesh {
	mesh := &Mesh{Geometry: g, Material: m}
	mesh.init(name)
	return mesh
}
