package controller

import (
	"github.com/banshee-data/xrsession/internal/monitoring"
	"github.com/banshee-data/xrsession/internal/xr/event"
	"github.com/banshee-data/xrsession/internal/xr/host"
)

type slot struct {
	controller *Controller
	source     host.InputSource // nil when free
}

// Slots is the controller table. It grows only through Get, so the number
// of sources that can be bound equals the number of controller handles
// the application asked for.
type Slots struct {
	slots   []slot
	metrics *monitoring.XRMetrics
}

// NewSlots returns an empty table. metrics may be nil.
func NewSlots(metrics *monitoring.XRMetrics) *Slots {
	return &Slots{metrics: metrics}
}

// Get returns the controller at index i, creating it and every lower
// index that does not yet exist.
func (s *Slots) Get(i int) *Controller {
	for len(s.slots) <= i {
		s.slots = append(s.slots, slot{controller: New()})
	}
	return s.slots[i].controller
}

// Len is the table capacity.
func (s *Slots) Len() int { return len(s.slots) }

// Bound is the number of slots with a bound source.
func (s *Slots) Bound() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].source != nil {
			n++
		}
	}
	return n
}

// Source returns the input source bound to slot i, or nil.
func (s *Slots) Source(i int) host.InputSource {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return s.slots[i].source
}

func (s *Slots) indexOf(src host.InputSource) int {
	if src == nil {
		return -1
	}
	for i := range s.slots {
		if s.slots[i].source == src {
			return i
		}
	}
	return -1
}

// HandleSourcesChange applies a host input-source change. Removals are
// processed first so a slot freed in this change can be reused by an
// addition in the same change. Additions take the lowest free slot; when
// none is free the source is ignored.
func (s *Slots) HandleSourcesChange(added, removed []host.InputSource) {
	for _, src := range removed {
		i := s.indexOf(src)
		if i < 0 {
			continue
		}
		s.slots[i].source = nil
		s.slots[i].controller.Disconnect(src)
	}

	for _, src := range added {
		i := s.indexOf(src)
		if i < 0 {
			i = s.firstFree()
			if i < 0 {
				s.metrics.SlotSaturated()
				continue
			}
			s.slots[i].source = src
		}
		s.slots[i].controller.Connect(src)
	}
}

func (s *Slots) firstFree() int {
	for i := range s.slots {
		if s.slots[i].source == nil {
			return i
		}
	}
	return -1
}

// Update refreshes every bound controller from frame. Free slots keep
// their last state; Disconnect already hid their spaces.
func (s *Slots) Update(frame host.Frame, ref host.ReferenceSpace) {
	for i := range s.slots {
		if src := s.slots[i].source; src != nil {
			s.slots[i].controller.Update(src, frame, ref)
		}
	}
}

// Dispatch forwards a discrete input event to the controller bound to its
// source. Events from unbound sources are dropped.
func (s *Slots) Dispatch(ev host.SessionEvent) {
	i := s.indexOf(ev.InputSource)
	if i < 0 {
		return
	}
	s.slots[i].controller.DispatchEvent(event.Event{Type: string(ev.Type), Data: ev.InputSource})
}

// ReleaseAll disconnects every bound source and frees every slot. The
// controllers themselves survive for the next session.
func (s *Slots) ReleaseAll() {
	for i := range s.slots {
		if src := s.slots[i].source; src != nil {
			s.slots[i].source = nil
			s.slots[i].controller.Disconnect(src)
		}
	}
}
