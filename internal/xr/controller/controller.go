package controller

import (
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
	"github.com/banshee-data/xrsession/internal/xr/scene"
)

// Notification types emitted on a controller's dispatcher, in addition to
// the host's discrete input events (select, squeeze, ...).
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Controller is the application handle for one controller slot. Its spaces
// are created on first request and keep their identity across sessions.
type Controller struct {
	targetRay *scene.Object
	grip      *scene.Object
	hand      *scene.Object
	joints    map[string]*scene.Object

	events *event.Dispatcher
}

// New returns a controller with no spaces.
func New() *Controller {
	return &Controller{events: event.NewDispatcher()}
}

func newSpace(name string) *scene.Object {
	o := scene.NewObject(name)
	o.MatrixAutoUpdate = false
	o.Visible = false
	return o
}

// TargetRaySpace returns the node following the source's pointing ray.
func (c *Controller) TargetRaySpace() *scene.Object {
	if c.targetRay == nil {
		c.targetRay = newSpace("target-ray")
	}
	return c.targetRay
}

// GripSpace returns the node following where the source is held.
func (c *Controller) GripSpace() *scene.Object {
	if c.grip == nil {
		c.grip = newSpace("grip")
	}
	return c.grip
}

// HandSpace returns the parent node of the tracked hand joints.
func (c *Controller) HandSpace() *scene.Object {
	if c.hand == nil {
		c.hand = newSpace("hand")
		c.joints = make(map[string]*scene.Object)
	}
	return c.hand
}

// Joint returns the node of a named hand joint, or nil if the hand space
// was never requested or the joint has not been seen.
func (c *Controller) Joint(name string) *scene.Object {
	return c.joints[name]
}

func (c *Controller) joint(name string) *scene.Object {
	j, ok := c.joints[name]
	if !ok {
		j = newSpace(name)
		c.joints[name] = j
		c.hand.Add(j)
	}
	return j
}

// AddEventListener registers fn for events of typ on this controller.
func (c *Controller) AddEventListener(typ string, fn event.Listener) string {
	return c.events.AddListener(typ, fn)
}

// RemoveEventListener unregisters a listener by ID.
func (c *Controller) RemoveEventListener(id string) {
	c.events.RemoveListener(id)
}

// DispatchEvent delivers ev to this controller's listeners.
func (c *Controller) DispatchEvent(ev event.Event) {
	c.events.Dispatch(ev)
}

// Connect announces src as bound to this controller.
func (c *Controller) Connect(src host.InputSource) {
	if c.hand != nil {
		for _, j := range src.Hand() {
			c.joint(j.Name)
		}
	}
	c.DispatchEvent(event.Event{Type: EventConnected, Data: src})
}

// Disconnect announces src as unbound and hides every space.
func (c *Controller) Disconnect(src host.InputSource) {
	c.DispatchEvent(event.Event{Type: EventDisconnected, Data: src})
	for _, o := range []*scene.Object{c.targetRay, c.grip, c.hand} {
		if o != nil {
			o.Visible = false
		}
	}
}

// Update moves the spaces to src's poses in frame relative to ref. A nil
// src, or a space the host cannot locate, leaves the space hidden.
func (c *Controller) Update(src host.InputSource, frame host.Frame, ref host.ReferenceSpace) {
	var rayPose, gripPose *host.Pose
	handTracked := false

	if src != nil {
		if joints := src.Hand(); c.hand != nil && joints != nil {
			for _, j := range joints {
				pose := frame.Pose(j.Space, ref)
				node := c.joint(j.Name)
				if pose != nil {
					node.SetMatrix(pose.Transform.Matrix())
					handTracked = true
				}
				node.Visible = pose != nil
			}
		} else if c.grip != nil && src.GripSpace() != nil {
			gripPose = frame.Pose(src.GripSpace(), ref)
			if gripPose != nil {
				c.grip.SetMatrix(gripPose.Transform.Matrix())
			}
		}

		if c.targetRay != nil {
			rayPose = frame.Pose(src.TargetRaySpace(), ref)
			if rayPose != nil {
				c.targetRay.SetMatrix(rayPose.Transform.Matrix())
			}
		}
	}

	if c.targetRay != nil {
		c.targetRay.Visible = rayPose != nil
	}
	if c.grip != nil {
		c.grip.Visible = gripPose != nil
	}
	if c.hand != nil {
		c.hand.Visible = handTracked
	}
}
