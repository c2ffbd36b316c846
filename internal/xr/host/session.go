package host

import (
	"context"

	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Space is an opaque tracked coordinate space (target ray, grip, hand joint).
type Space interface{}

// ReferenceSpace is a negotiated coordinate frame in which poses are expressed.
type ReferenceSpace interface {
	Type() string
}

// Pose is the rigid transform of a space relative to a reference space.
type Pose struct {
	Transform        xrmath.RigidTransform
	EmulatedPosition bool
}

// Eye identifies which eye a view is rendered for.
type Eye string

const (
	EyeNone  Eye = "none"
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// View is one eye's transform and projection within a viewer pose.
type View struct {
	Eye              Eye
	Transform        xrmath.RigidTransform
	ProjectionMatrix xrmath.Mat4
}

// ViewerPose is the viewer's pose plus one View per rendered eye.
type ViewerPose struct {
	Pose
	Views []*View
}

// Plane is a host-detected surface. Identity is the interface value itself.
type Plane interface {
	// LastChangedTime is the host timestamp of the plane's latest update.
	LastChangedTime() float64
}

// Frame is the per-tick snapshot handed to frame callbacks. It is only
// valid for the duration of the callback.
type Frame interface {
	// ViewerPose returns nil when the viewer cannot be located (tracking lost).
	ViewerPose(space ReferenceSpace) *ViewerPose

	// Pose returns nil when space cannot be located relative to base.
	Pose(space Space, base ReferenceSpace) *Pose

	// DetectedPlanes returns the current set and whether the host
	// supports plane detection at all.
	DetectedPlanes() ([]Plane, bool)
}

// Handedness of an input source.
type Handedness string

const (
	HandednessNone  Handedness = "none"
	HandednessLeft  Handedness = "left"
	HandednessRight Handedness = "right"
)

// HandJoint is one articulated joint of a tracked hand.
type HandJoint struct {
	Name  string
	Space Space
}

// InputSource is a tracked controller or hand. Identity is the interface
// value itself.
type InputSource interface {
	Handedness() Handedness
	TargetRaySpace() Space
	// GripSpace is nil for sources that cannot be held.
	GripSpace() Space
	// Hand is nil for sources that are not tracked hands.
	Hand() []HandJoint
}

// SessionEventType names a host notification.
type SessionEventType string

const (
	EventSelect             SessionEventType = "select"
	EventSelectStart        SessionEventType = "selectstart"
	EventSelectEnd          SessionEventType = "selectend"
	EventSqueeze            SessionEventType = "squeeze"
	EventSqueezeStart       SessionEventType = "squeezestart"
	EventSqueezeEnd         SessionEventType = "squeezeend"
	EventEnd                SessionEventType = "end"
	EventInputSourcesChange SessionEventType = "inputsourceschange"
)

// IsInputEvent reports whether t is a discrete interaction keyed by an
// input source.
func (t SessionEventType) IsInputEvent() bool {
	switch t {
	case EventSelect, EventSelectStart, EventSelectEnd,
		EventSqueeze, EventSqueezeStart, EventSqueezeEnd:
		return true
	}
	return false
}

// SessionEvent is delivered to session subscribers.
type SessionEvent struct {
	Type SessionEventType

	// InputSource is set for discrete interaction events.
	InputSource InputSource

	// Added and Removed are set for EventInputSourcesChange.
	Added   []InputSource
	Removed []InputSource
}

// FrameRequestCallback receives one host frame. time is in milliseconds.
type FrameRequestCallback func(time float64, frame Frame)

// RenderState is the host's current render configuration.
type RenderState struct {
	BaseLayer BaseLayer
	Layers    []CompositionLayer
	DepthNear float64
	DepthFar  float64
}

// RenderStateInit updates selected parts of the render state. Nil fields
// are left unchanged.
type RenderStateInit struct {
	BaseLayer BaseLayer
	Layers    []CompositionLayer
	DepthNear *float64
	DepthFar  *float64
}

// Session is an active immersive presentation.
type Session interface {
	RequestReferenceSpace(ctx context.Context, spaceType string) (ReferenceSpace, error)

	// SupportsLayers reports whether the host accepts an ordered layer
	// stack rather than a single base layer.
	SupportsLayers() bool

	RenderState() RenderState
	UpdateRenderState(init RenderStateInit)

	// Subscribe registers fn for every session event until cancel is called.
	Subscribe(fn func(SessionEvent)) (cancel func())

	RequestAnimationFrame(cb FrameRequestCallback) int
	CancelAnimationFrame(handle int)

	// NewBaseLayer creates the single-layer surface used when native
	// layers are unavailable.
	NewBaseLayer(init BaseLayerInit) (BaseLayer, error)

	// NewBinding creates the factory for native compositor layers.
	NewBinding() (Binding, error)
}
