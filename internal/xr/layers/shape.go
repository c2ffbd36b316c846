package layers

import (
	"math"

	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Shape is the geometry of an overlay layer: Quad or Cylinder.
type Shape interface {
	shape()
}

// Quad is a flat rectangle with full width and height in metres.
type Quad struct {
	Width, Height float64
}

// Cylinder is a curved strip on the inside of a cylinder. CentralAngle is
// in radians; AspectRatio is width over height.
type Cylinder struct {
	Radius       float64
	CentralAngle float64
	AspectRatio  float64
}

func (Quad) shape()     {}
func (Cylinder) shape() {}

// cylinderSegments is the tessellation of curved proxies in both directions.
const cylinderSegments = 64

// proxyGeometry returns the mesh geometry and face side used to show s.
// Cylinders are viewed from inside, hence the back side.
func proxyGeometry(s Shape) (scene.Geometry, scene.Side) {
	switch s := s.(type) {
	case Quad:
		return scene.PlaneGeometry{Width: s.Width, Height: s.Height}, scene.FrontSide
	case Cylinder:
		return scene.CylinderGeometry{
			RadiusTop:      s.Radius,
			RadiusBottom:   s.Radius,
			Height:         s.Radius * s.CentralAngle / s.AspectRatio,
			RadialSegments: cylinderSegments,
			HeightSegments: cylinderSegments,
			OpenEnded:      true,
			ThetaStart:     math.Pi - s.CentralAngle/2,
			ThetaLength:    s.CentralAngle,
		}, scene.BackSide
	default:
		panic("layers: unknown shape")
	}
}

// createNative asks the binding for a compositor layer matching l.
func createNative(b host.Binding, space host.ReferenceSpace, l *Layer) (host.NativeLayer, error) {
	transform := xrmath.NewRigidTransform(l.Translation, l.Orientation)
	switch s := l.Shape.(type) {
	case Quad:
		return b.CreateQuadLayer(host.QuadLayerInit{
			Transform:       transform,
			Width:           s.Width / 2,
			Height:          s.Height / 2,
			Space:           space,
			ViewPixelWidth:  l.PixelWidth,
			ViewPixelHeight: l.PixelHeight,
		})
	case Cylinder:
		return b.CreateCylinderLayer(host.CylinderLayerInit{
			Transform:       transform,
			Radius:          s.Radius,
			CentralAngle:    s.CentralAngle,
			AspectRatio:     s.AspectRatio,
			Space:           space,
			ViewPixelWidth:  l.PixelWidth,
			ViewPixelHeight: l.PixelHeight,
		})
	default:
		panic("layers: unknown shape")
	}
}
