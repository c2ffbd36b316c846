package simhost

import (
	"github.com/banshee-data/xrsession/internal/xr/host"
)

// Space is a named tracked space.
type Space struct {
	Name string
}

// InputSource is a synthetic controller or tracked hand.
type InputSource struct {
	Name   string
	Side   host.Handedness
	Ray    *Space
	Grip   *Space
	Joints []host.HandJoint
}

var _ host.InputSource = (*InputSource)(nil)

// NewController returns a held controller with ray and grip spaces.
func NewController(name string, handedness host.Handedness) *InputSource {
	return &InputSource{
		Name: name,
		Side: handedness,
		Ray:  &Space{Name: name + "/ray"},
		Grip: &Space{Name: name + "/grip"},
	}
}

// NewHand returns a tracked hand with the named joints and no grip.
func NewHand(name string, handedness host.Handedness, joints ...string) *InputSource {
	src := &InputSource{
		Name: name,
		Side: handedness,
		Ray:  &Space{Name: name + "/ray"},
	}
	for _, j := range joints {
		src.Joints = append(src.Joints, host.HandJoint{Name: j, Space: &Space{Name: name + "/" + j}})
	}
	return src
}

func (s *InputSource) Handedness() host.Handedness { return s.Side }
func (s *InputSource) TargetRaySpace() host.Space  { return s.Ray }

func (s *InputSource) GripSpace() host.Space {
	if s.Grip == nil {
		return nil
	}
	return s.Grip
}

func (s *InputSource) Hand() []host.HandJoint { return s.Joints }
