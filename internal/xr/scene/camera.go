package scene

import (
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Viewport is a pixel rectangle within a render target.
type Viewport struct {
	X, Y, Width, Height int
}

// Camera is a perspective camera. Its projection is set directly from
// host-supplied matrices rather than derived from a field of view.
type Camera struct {
	Object

	Near, Far float64

	ProjectionMatrix   xrmath.Mat4
	MatrixWorldInverse xrmath.Mat4
	Viewport           Viewport
}

// NewCamera returns a camera with an identity projection and the default
// 0.1..2000 depth range.
func NewCamera(name string) *Camera {
	c := &Camera{Near: 0.1, Far: 2000}
	c.init(name)
	c.ProjectionMatrix = xrmath.Identity()
	c.MatrixWorldInverse = xrmath.Identity()
	return c
}

// UpdateWorldFrom sets MatrixWorld to parent.MatrixWorld * Matrix (or just
// Matrix for a nil parent) and refreshes MatrixWorldInverse. The local
// matrix is used as-is.
func (c *Camera) UpdateWorldFrom(parent *Object) {
	if parent == nil {
		c.MatrixWorld = c.Matrix
	} else {
		c.MatrixWorld = xrmath.Mul(parent.MatrixWorld, c.Matrix)
	}
	c.refreshInverse()
}

// SetWorldMatrix replaces MatrixWorld directly and refreshes its inverse.
func (c *Camera) SetWorldMatrix(m xrmath.Mat4) {
	c.MatrixWorld = m
	c.refreshInverse()
}

func (c *Camera) refreshInverse() {
	if inv, ok := c.MatrixWorld.Invert(); ok {
		c.MatrixWorldInverse = inv
	}
}

// ArrayCamera aggregates one camera per view. Its own transform and
// projection cover every sub-camera for culling.
type ArrayCamera struct {
	Camera
	Cameras []*Camera
}

// NewArrayCamera returns an array camera with no sub-cameras.
func NewArrayCamera(name string) *ArrayCamera {
	return &ArrayCamera{Camera: *NewCamera(name)}
}
