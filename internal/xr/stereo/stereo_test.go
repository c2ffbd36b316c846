package stereo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

const (
	testNear = 0.1
	testFar  = 100.0
	testIPD  = 0.064
)

// eye builds a camera at x with asymmetric horizontal tangents.
func eye(x, leftTan, rightTan float64) *scene.Camera {
	c := scene.NewCamera("eye")
	c.SetWorldMatrix(xrmath.Compose(r3.Vec{X: x, Y: 1.6}, xrmath.IdentityQuat(), xrmath.UnitScale()))
	c.ProjectionMatrix = xrmath.Perspective(
		testNear*leftTan, testNear*rightTan, testNear*1.0, testNear*-1.2, testNear, testFar)
	return c
}

func stereoPair() (*scene.Camera, *scene.Camera) {
	return eye(-testIPD/2, -1.0, 0.8), eye(testIPD/2, -0.8, 1.0)
}

func TestExtentsRoundTrip(t *testing.T) {
	m := xrmath.Perspective(-0.2, 0.1, 0.15, -0.05, 0.5, 50)
	f := Extents(m)
	assert.InDelta(t, -0.2, f.Left, 1e-9)
	assert.InDelta(t, 0.1, f.Right, 1e-9)
	assert.InDelta(t, 0.15, f.Top, 1e-9)
	assert.InDelta(t, -0.05, f.Bottom, 1e-9)
	assert.InDelta(t, 0.5, f.Near, 1e-9)
	assert.InDelta(t, 50, f.Far, 1e-6)
}

func TestProjectionFromUnionPreservesDepthPlanes(t *testing.T) {
	left, right := stereoPair()
	cam := scene.NewCamera("union")

	u := ProjectionFromUnion(cam, left, right)
	got := Extents(cam.ProjectionMatrix)

	assert.InDelta(t, testIPD, u.IPD, 1e-12)
	// The camera moves back by ZOffset, so the planes land where the
	// eyes' planes were.
	assert.InDelta(t, testNear, got.Near-u.ZOffset, 1e-9)
	assert.InDelta(t, testFar, got.Far-u.ZOffset, 1e-6)

	pos := cam.MatrixWorld.Position()
	assert.InDelta(t, 0, pos.X, 1e-12)
	assert.InDelta(t, 1.6, pos.Y, 1e-12)
	assert.InDelta(t, u.ZOffset, pos.Z, 1e-12)
}

func TestProjectionFromUnionCoversBothEyes(t *testing.T) {
	left, right := stereoPair()
	cam := scene.NewCamera("union")

	ProjectionFromUnion(cam, left, right)
	got := Extents(cam.ProjectionMatrix)
	pos := cam.MatrixWorld.Position()

	// The union's near plane coincides with the eyes' near plane, where its
	// outer edges match the left eye's left edge and the right eye's right
	// edge.
	lf := Extents(left.ProjectionMatrix)
	rf := Extents(right.ProjectionMatrix)
	assert.InDelta(t, left.MatrixWorld.Position().X+lf.Left, pos.X+got.Left, 1e-9)
	assert.InDelta(t, right.MatrixWorld.Position().X+rf.Right, pos.X+got.Right, 1e-9)

	// Vertical extents match the eyes on the far plane.
	assert.InDelta(t, lf.Top/testNear*testFar, got.Top/got.Near*got.Far, 1e-6)
	assert.InDelta(t, lf.Bottom/testNear*testFar, got.Bottom/got.Near*got.Far, 1e-6)
}

func TestProjectionFromUnionIsIdempotent(t *testing.T) {
	left, right := stereoPair()
	cam := scene.NewCamera("union")

	ProjectionFromUnion(cam, left, right)
	first := cam.ProjectionMatrix
	firstWorld := cam.MatrixWorld

	ProjectionFromUnion(cam, left, right)
	assert.Equal(t, first, cam.ProjectionMatrix)
	assert.Equal(t, firstWorld, cam.MatrixWorld)
}

func TestProjectionFromUnionWorldInverse(t *testing.T) {
	left, right := stereoPair()
	cam := scene.NewCamera("union")
	ProjectionFromUnion(cam, left, right)

	prod := xrmath.Mul(cam.MatrixWorld, cam.MatrixWorldInverse)
	id := xrmath.Identity()
	for i := range prod {
		if math.Abs(prod[i]-id[i]) > 1e-9 {
			t.Fatalf("expected identity at %d, got %v", i, prod[i])
		}
	}
}

func TestUpdateArrayCamera(t *testing.T) {
	t.Run("stereo", func(t *testing.T) {
		left, right := stereoPair()
		cam := scene.NewArrayCamera("xr")
		cam.Cameras = []*scene.Camera{left, right}

		UpdateArrayCamera(cam)

		want := scene.NewCamera("want")
		ProjectionFromUnion(want, left, right)
		assert.Equal(t, want.ProjectionMatrix, cam.ProjectionMatrix)
	})

	t.Run("mono copies the single view", func(t *testing.T) {
		only := eye(0, -1, 1)
		cam := scene.NewArrayCamera("xr")
		cam.Cameras = []*scene.Camera{only}

		UpdateArrayCamera(cam)
		require.Equal(t, only.ProjectionMatrix, cam.ProjectionMatrix)
	})

	t.Run("no views leaves projection alone", func(t *testing.T) {
		cam := scene.NewArrayCamera("xr")
		before := cam.ProjectionMatrix
		UpdateArrayCamera(cam)
		assert.Equal(t, before, cam.ProjectionMatrix)
	})
}
