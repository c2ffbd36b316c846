// Package stereo merges per-eye cameras into one camera whose frustum
// contains both, so a single culling pass serves every view.
package stereo

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Frustum holds the six perspective extents. Left/Right/Top/Bottom are
// measured on the near plane.
type Frustum struct {
	Left, Right, Top, Bottom float64
	Near, Far                float64
}

// Extents recovers the frustum a perspective matrix was built from.
func Extents(m xrmath.Mat4) Frustum {
	near := m[14] / (m[10] - 1)
	return Frustum{
		Near:   near,
		Far:    m[14] / (m[10] + 1),
		Left:   near * (m[8] - 1) / m[0],
		Right:  near * (m[8] + 1) / m[0],
		Top:    near * (m[9] + 1) / m[5],
		Bottom: near * (m[9] - 1) / m[5],
	}
}

// Union describes the camera produced by ProjectionFromUnion.
type Union struct {
	Frustum

	// IPD is the distance between the two eye positions.
	IPD float64

	// XOffset and ZOffset move the unified camera from the left eye along
	// the left eye's local X and Z axes.
	XOffset, ZOffset float64
}

// ProjectionFromUnion places camera so its frustum is the union of the left
// and right eye frustums and sets its world matrix and projection.
//
// Both eyes must share an orientation and a lateral axis, have identical
// near/far planes, and already carry world and projection matrices. Each
// eye may have an asymmetric horizontal field of view.
func ProjectionFromUnion(camera *scene.Camera, left, right *scene.Camera) Union {
	ipd := r3.Norm(r3.Sub(left.MatrixWorld.Position(), right.MatrixWorld.Position()))

	projL := left.ProjectionMatrix
	projR := right.ProjectionMatrix

	// Near, far and vertical extents come from the left eye; horizontal
	// extents come from the outer edge of each eye.
	near := projL[14] / (projL[10] - 1)
	far := projL[14] / (projL[10] + 1)
	topFov := (projL[9] + 1) / projL[5]
	bottomFov := (projL[9] - 1) / projL[5]

	leftFov := (projL[8] - 1) / projL[0]
	rightFov := (projR[8] + 1) / projR[0]
	leftExtent := near * leftFov
	rightExtent := near * rightFov

	// Move back until the two outer frustum edges meet at one apex.
	// xOffset is roughly half the IPD.
	zOffset := ipd / (-leftFov + rightFov)
	xOffset := zOffset * -leftFov

	pos, q, scale := left.MatrixWorld.Decompose()
	pos = xrmath.TranslateOnAxis(pos, q, xrmath.AxisX, xOffset)
	pos = xrmath.TranslateOnAxis(pos, q, xrmath.AxisZ, zOffset)
	camera.Position, camera.Quaternion, camera.Scale = pos, q, scale
	camera.SetWorldMatrix(xrmath.Compose(pos, q, scale))

	// Scale the union so the original near plane keeps its world position,
	// now relative to the moved camera.
	u := Union{IPD: ipd, XOffset: xOffset, ZOffset: zOffset}
	u.Near = near + zOffset
	u.Far = far + zOffset
	u.Left = leftExtent - xOffset
	u.Right = rightExtent + (ipd - xOffset)
	u.Top = topFov * far / u.Far * u.Near
	u.Bottom = bottomFov * far / u.Far * u.Near

	camera.ProjectionMatrix = xrmath.Perspective(u.Left, u.Right, u.Top, u.Bottom, u.Near, u.Far)
	return u
}

// UpdateArrayCamera refreshes the aggregate projection of cam from its
// sub-cameras. Two views are unified; a single view (monoscopic AR) is
// passed through unchanged. Sub-camera world matrices must be current.
func UpdateArrayCamera(cam *scene.ArrayCamera) {
	switch {
	case len(cam.Cameras) == 2:
		ProjectionFromUnion(&cam.Camera, cam.Cameras[0], cam.Cameras[1])
	case len(cam.Cameras) > 0:
		cam.ProjectionMatrix = cam.Cameras[0].ProjectionMatrix
	}
}
