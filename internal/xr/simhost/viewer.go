package simhost

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Field-of-view tangents of the synthetic headset. The inner edge of each
// eye is narrower than the outer edge, as on real lenses.
const (
	outerTan = 1.0
	innerTan = 0.8
	upTan    = 1.0
	downTan  = 1.1
)

// DefaultIPD is the inter-pupillary distance in metres.
const DefaultIPD = 0.064

func eyeProjection(leftTan, rightTan, near, far float64) xrmath.Mat4 {
	return xrmath.Perspective(-leftTan*near, rightTan*near, upTan*near, -downTan*near, near, far)
}

// StereoViewer returns a viewer at pos/q with a left and a right view
// separated by ipd along the viewer's X axis.
func StereoViewer(pos r3.Vec, q quat.Number, ipd, near, far float64) *host.ViewerPose {
	left := xrmath.TranslateOnAxis(pos, q, xrmath.AxisX, -ipd/2)
	right := xrmath.TranslateOnAxis(pos, q, xrmath.AxisX, ipd/2)
	return &host.ViewerPose{
		Pose: host.Pose{Transform: xrmath.NewRigidTransform(pos, q)},
		Views: []*host.View{
			{
				Eye:              host.EyeLeft,
				Transform:        xrmath.NewRigidTransform(left, q),
				ProjectionMatrix: eyeProjection(outerTan, innerTan, near, far),
			},
			{
				Eye:              host.EyeRight,
				Transform:        xrmath.NewRigidTransform(right, q),
				ProjectionMatrix: eyeProjection(innerTan, outerTan, near, far),
			},
		},
	}
}

// MonoViewer returns a viewer with a single symmetric view, as handheld
// AR devices report.
func MonoViewer(pos r3.Vec, q quat.Number, near, far float64) *host.ViewerPose {
	return &host.ViewerPose{
		Pose: host.Pose{Transform: xrmath.NewRigidTransform(pos, q)},
		Views: []*host.View{{
			Eye:              host.EyeNone,
			Transform:        xrmath.NewRigidTransform(pos, q),
			ProjectionMatrix: eyeProjection(outerTan, outerTan, near, far),
		}},
	}
}
