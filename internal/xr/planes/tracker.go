// Package planes diffs the host's per-frame detected-plane set against the
// set seen on the previous frame.
package planes

import (
	"github.com/banshee-data/xrsession/internal/xr/host"
)

// Changes is the outcome of one Update. A plane appears in at most one of
// the three slices.
type Changes struct {
	Added   []host.Plane
	Removed []host.Plane
	Changed []host.Plane
}

// Empty reports whether nothing happened this tick.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Tracker remembers each tracked plane's last-changed timestamp.
//
// Plane identity is the interface value, so host plane implementations
// must be comparable (pointer types in practice).
type Tracker struct {
	lastChanged map[host.Plane]float64
	order       []host.Plane // insertion order, for stable removal reports
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{lastChanged: make(map[host.Plane]float64)}
}

// Update reconciles the tracked set with detected. After it returns the
// tracked set equals detected.
func (t *Tracker) Update(detected []host.Plane) Changes {
	var ch Changes

	present := make(map[host.Plane]struct{}, len(detected))
	for _, p := range detected {
		present[p] = struct{}{}
	}

	kept := t.order[:0]
	for _, p := range t.order {
		if _, ok := present[p]; ok {
			kept = append(kept, p)
			continue
		}
		delete(t.lastChanged, p)
		ch.Removed = append(ch.Removed, p)
	}
	// Clear the tail so removed planes are not pinned by the backing array.
	for i := len(kept); i < len(t.order); i++ {
		t.order[i] = nil
	}
	t.order = kept

	for _, p := range detected {
		ts := p.LastChangedTime()
		last, tracked := t.lastChanged[p]
		switch {
		case !tracked:
			t.lastChanged[p] = ts
			t.order = append(t.order, p)
			ch.Added = append(ch.Added, p)
		case ts > last:
			t.lastChanged[p] = ts
			ch.Changed = append(ch.Changed, p)
		}
	}
	return ch
}

// Planes returns the tracked planes in the order they were first seen.
func (t *Tracker) Planes() []host.Plane {
	out := make([]host.Plane, len(t.order))
	copy(out, t.order)
	return out
}

// Len is the number of tracked planes.
func (t *Tracker) Len() int { return len(t.order) }

// Reset forgets every tracked plane without reporting removals.
func (t *Tracker) Reset() {
	t.lastChanged = make(map[host.Plane]float64)
	t.order = nil
}
