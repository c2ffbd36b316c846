package simhost

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/banshee-data/xrsession/internal/xr/host"
)

// ReferenceSpace is a negotiated space of a given type.
type ReferenceSpace struct {
	SpaceType string
}

func (r *ReferenceSpace) Type() string { return r.SpaceType }

// Session is a synthetic immersive session.
type Session struct {
	// Layers is reported by SupportsLayers.
	Layers bool

	// ViewWidth and ViewHeight are the per-eye pixel size at scale 1.
	ViewWidth, ViewHeight int

	// Errors injected into setup calls.
	RefSpaceErr  error
	BaseLayerErr error
	BindingErr   error

	// Unsupported lists reference space types that fail to negotiate.
	Unsupported map[string]bool

	// RenderStateUpdates counts UpdateRenderState calls; DepthHints counts
	// the ones that carried a depth range.
	RenderStateUpdates int
	DepthHints         int

	// LastBaseLayerInit is the init of the most recent NewBaseLayer call.
	LastBaseLayerInit host.BaseLayerInit

	state   host.RenderState
	subs    map[int]func(host.SessionEvent)
	nextSub int

	callbacks  map[int]host.FrameRequestCallback
	nextHandle int

	sources []host.InputSource
	binding *Binding
	ended   bool
}

var _ host.Session = (*Session)(nil)

// NewSession returns a session with 1440x1600 eyes and the usual
// 0.1..1000 depth range. layers selects multi-layer support.
func NewSession(layers bool) *Session {
	return &Session{
		Layers:      layers,
		ViewWidth:   1440,
		ViewHeight:  1600,
		Unsupported: make(map[string]bool),
		state:       host.RenderState{DepthNear: 0.1, DepthFar: 1000},
		subs:        make(map[int]func(host.SessionEvent)),
		callbacks:   make(map[int]host.FrameRequestCallback),
	}
}

func (s *Session) RequestReferenceSpace(ctx context.Context, spaceType string) (host.ReferenceSpace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.RefSpaceErr != nil {
		return nil, s.RefSpaceErr
	}
	if s.Unsupported[spaceType] {
		return nil, fmt.Errorf("reference space %q not supported", spaceType)
	}
	return &ReferenceSpace{SpaceType: spaceType}, nil
}

func (s *Session) SupportsLayers() bool { return s.Layers }

func (s *Session) RenderState() host.RenderState {
	st := s.state
	st.Layers = append([]host.CompositionLayer(nil), s.state.Layers...)
	return st
}

func (s *Session) UpdateRenderState(init host.RenderStateInit) {
	s.RenderStateUpdates++
	if init.BaseLayer != nil {
		s.state.BaseLayer = init.BaseLayer
	}
	if init.Layers != nil {
		s.state.Layers = append([]host.CompositionLayer(nil), init.Layers...)
	}
	if init.DepthNear != nil || init.DepthFar != nil {
		s.DepthHints++
	}
	if init.DepthNear != nil {
		s.state.DepthNear = *init.DepthNear
	}
	if init.DepthFar != nil {
		s.state.DepthFar = *init.DepthFar
	}
}

func (s *Session) Subscribe(fn func(host.SessionEvent)) func() {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Subscribers is the number of live subscriptions.
func (s *Session) Subscribers() int { return len(s.subs) }

func (s *Session) RequestAnimationFrame(cb host.FrameRequestCallback) int {
	s.nextHandle++
	s.callbacks[s.nextHandle] = cb
	return s.nextHandle
}

func (s *Session) CancelAnimationFrame(handle int) {
	delete(s.callbacks, handle)
}

// PendingFrames is the number of outstanding frame requests.
func (s *Session) PendingFrames() int { return len(s.callbacks) }

func (s *Session) NewBaseLayer(init host.BaseLayerInit) (host.BaseLayer, error) {
	if s.BaseLayerErr != nil {
		return nil, s.BaseLayerErr
	}
	s.LastBaseLayerInit = init
	scale := init.FramebufferScaleFactor
	if scale <= 0 {
		scale = 1
	}
	id := uuid.NewString()
	return &BaseLayer{
		ID:     id,
		Init:   init,
		Width:  int(float64(s.ViewWidth*2) * scale),
		Height: int(float64(s.ViewHeight) * scale),
		fb:     &Texture{ID: id + "/framebuffer"},
	}, nil
}

func (s *Session) NewBinding() (host.Binding, error) {
	if s.BindingErr != nil {
		return nil, s.BindingErr
	}
	if s.binding == nil {
		s.binding = &Binding{session: s}
	}
	return s.binding, nil
}

// Binding returns the session's layer binding, creating it if needed.
func (s *Session) Binding() *Binding {
	if s.binding == nil {
		s.binding = &Binding{session: s}
	}
	return s.binding
}

// Emit delivers ev to every subscriber in subscription order.
func (s *Session) Emit(ev host.SessionEvent) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn(ev)
		}
	}
}

// InputSources returns the connected sources.
func (s *Session) InputSources() []host.InputSource {
	return append([]host.InputSource(nil), s.sources...)
}

// Connect adds sources and emits one inputsourceschange.
func (s *Session) Connect(sources ...host.InputSource) {
	s.sources = append(s.sources, sources...)
	s.Emit(host.SessionEvent{Type: host.EventInputSourcesChange, Added: sources})
}

// Disconnect removes sources and emits one inputsourceschange.
func (s *Session) Disconnect(sources ...host.InputSource) {
	for _, gone := range sources {
		for i, src := range s.sources {
			if src == gone {
				s.sources = append(s.sources[:i], s.sources[i+1:]...)
				break
			}
		}
	}
	s.Emit(host.SessionEvent{Type: host.EventInputSourcesChange, Removed: sources})
}

// Input emits a discrete interaction event from src.
func (s *Session) Input(typ host.SessionEventType, src host.InputSource) {
	s.Emit(host.SessionEvent{Type: typ, InputSource: src})
}

// End emits the end event. Later ticks deliver nothing.
func (s *Session) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.Emit(host.SessionEvent{Type: host.EventEnd})
}

// Ended reports whether End was called.
func (s *Session) Ended() bool { return s.ended }

// Tick runs every pending frame callback once with time t (milliseconds)
// and frame f, and returns how many ran. Callbacks requested during the
// tick wait for the next one. A nil f is a dropped frame: nothing runs and
// pending callbacks wait.
func (s *Session) Tick(t float64, f *Frame) int {
	if s.ended || f == nil {
		return 0
	}
	pending := s.callbacks
	s.callbacks = make(map[int]host.FrameRequestCallback)

	handles := make([]int, 0, len(pending))
	for h := range pending {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	for _, h := range handles {
		pending[h](t, f)
	}
	return len(handles)
}
