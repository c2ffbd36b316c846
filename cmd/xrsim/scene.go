package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xr"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/scene"
	"github.com/banshee-data/xrsession/internal/xr/simhost"
	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Frame numbers at which the scripted scene changes.
const (
	connectFrame    = 5
	floorFrame      = 10
	tableFrame      = 20
	selectFrame     = 30
	tableMoveFrame  = 60
	tableLostFrame  = 90
	trackingGapFrom = 120
	trackingGapTo   = 125
)

// demoScene scripts a user looking around a room: a controller connects,
// a floor and a table are detected, the table moves and is lost, and
// tracking drops out briefly.
type demoScene struct {
	m      *xr.Manager
	native bool
	root   *scene.Object
	user   *scene.Camera

	hand  *simhost.InputSource
	floor *simhost.Plane
	table *simhost.Plane
}

func newScene(m *xr.Manager, native bool) *demoScene {
	sc := &demoScene{
		m:      m,
		native: native,
		root:   scene.NewObject("room"),
		user:   scene.NewCamera("user"),
		hand:   simhost.NewController("right-controller", host.HandednessRight),
		floor:  &simhost.Plane{Name: "floor"},
		table:  &simhost.Plane{Name: "table"},
	}
	sc.root.Add(&sc.user.Object)
	m.SetMainScene(sc.root)
	return sc
}

// overlay adds a heads-up quad in front of the user.
func (sc *demoScene) overlay() (*scene.Mesh, error) {
	proxy, err := sc.m.CreateQuadLayer(0.6, 0.3, r3.Vec{Y: 1.5, Z: -1}, xrmath.IdentityQuat(), 512, 256, func() {})
	if err != nil {
		return nil, err
	}
	sc.root.Add(&proxy.Object)
	return proxy, nil
}

// frame returns the pump's SceneFunc for session s.
func (sc *demoScene) frame(s *simhost.Session) simhost.SceneFunc {
	return func(n int, t float64) *simhost.Frame {
		switch n {
		case connectFrame:
			s.Connect(sc.hand)
		case selectFrame:
			s.Input(host.EventSelect, sc.hand)
		case floorFrame:
			sc.floor.Touch(t)
		case tableFrame:
			sc.table.Touch(t)
		case tableMoveFrame:
			sc.table.Touch(t)
		}

		f := &simhost.Frame{PlaneDetection: true}
		if n >= floorFrame {
			f.Planes = append(f.Planes, sc.floor)
		}
		if n >= tableFrame && n < tableLostFrame {
			f.Planes = append(f.Planes, sc.table)
		}

		if n < trackingGapFrom || n >= trackingGapTo {
			// Slow look to the left and right.
			yaw := 0.4 * math.Sin(t/2000)
			q := xrmath.AxisAngle(xrmath.AxisY, yaw)
			head := r3.Vec{Y: 1.6}
			if sc.native {
				f.Viewer = simhost.StereoViewer(head, q, simhost.DefaultIPD, sc.user.Near, sc.user.Far)
			} else {
				f.Viewer = simhost.MonoViewer(head, q, sc.user.Near, sc.user.Far)
			}
			f.SetPose(sc.hand.Ray, &host.Pose{Transform: xrmath.NewRigidTransform(r3.Vec{X: 0.2, Y: 1.2, Z: -0.3}, q)})
			f.SetPose(sc.hand.Grip, &host.Pose{Transform: xrmath.NewRigidTransform(r3.Vec{X: 0.2, Y: 1.2, Z: -0.3}, q)})
		}
		return f
	}
}

// camera is what a renderer would draw this frame with.
func (sc *demoScene) camera() (*scene.Camera, []*scene.Camera) {
	return sc.m.CameraFor(sc.user)
}
