// Package event provides the typed notification stream used by the session
// manager and by each controller.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// Event is a single notification. Data carries the type-specific payload:
// a host.Plane for plane events, a []host.Plane for planesdetected, a
// host.InputSource for controller events, nil for session events.
type Event struct {
	Type string
	Data interface{}
}

// Listener receives events of the type it was registered for.
type Listener func(Event)

type entry struct {
	id string
	fn Listener
}

// Dispatcher delivers events to listeners in registration order.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[string][]entry
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]entry)}
}

// AddListener registers fn for events of type typ. The returned ID removes
// it again.
func (d *Dispatcher) AddListener(typ string, fn Listener) string {
	id := uuid.NewString()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[typ] = append(d.listeners[typ], entry{id: id, fn: fn})
	return id
}

// RemoveListener unregisters the listener with the given ID. Unknown IDs
// are ignored.
func (d *Dispatcher) RemoveListener(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for typ, entries := range d.listeners {
		for i, e := range entries {
			if e.id != id {
				continue
			}
			entries = append(entries[:i:i], entries[i+1:]...)
			if len(entries) == 0 {
				delete(d.listeners, typ)
			} else {
				d.listeners[typ] = entries
			}
			return
		}
	}
}

// HasListeners reports whether any listener is registered for typ.
func (d *Dispatcher) HasListeners(typ string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[typ]) > 0
}

// Dispatch delivers ev synchronously. Listeners may add or remove
// listeners while being called; changes apply from the next dispatch.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.Lock()
	entries := append([]entry(nil), d.listeners[ev.Type]...)
	d.mu.Unlock()

	for _, e := range entries {
		e.fn(ev)
	}
}
