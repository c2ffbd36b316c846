package simhost

import (
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Frame is one synthetic host frame.
type Frame struct {
	// Viewer is returned by ViewerPose; nil simulates lost tracking.
	Viewer *host.ViewerPose

	// Poses maps tracked spaces to their pose this frame.
	Poses map[host.Space]*host.Pose

	// Planes is returned by DetectedPlanes when PlaneDetection is set.
	Planes         []host.Plane
	PlaneDetection bool
}

var _ host.Frame = (*Frame)(nil)

// ViewerPose returns Viewer, or nil when any of its transforms is not
// rigid. Hosts report a degenerate pose as lost tracking.
func (f *Frame) ViewerPose(host.ReferenceSpace) *host.ViewerPose {
	if f.Viewer == nil || !rigidPose(f.Viewer) {
		return nil
	}
	return f.Viewer
}

func rigidPose(p *host.ViewerPose) bool {
	if !xrmath.IsRigid(p.Transform.Matrix()) {
		return false
	}
	for _, v := range p.Views {
		if !xrmath.IsRigid(v.Transform.Matrix()) {
			return false
		}
	}
	return true
}

func (f *Frame) Pose(space host.Space, _ host.ReferenceSpace) *host.Pose {
	if space == nil {
		return nil
	}
	return f.Poses[space]
}

func (f *Frame) DetectedPlanes() ([]host.Plane, bool) {
	if !f.PlaneDetection {
		return nil, false
	}
	return f.Planes, true
}

// SetPose records the pose of space for this frame.
func (f *Frame) SetPose(space host.Space, p *host.Pose) {
	if f.Poses == nil {
		f.Poses = make(map[host.Space]*host.Pose)
	}
	f.Poses[space] = p
}
