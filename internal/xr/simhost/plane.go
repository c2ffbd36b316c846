package simhost

// Plane is a detected surface whose timestamp is bumped by Touch.
type Plane struct {
	Name    string
	Changed float64
}

func (p *Plane) LastChangedTime() float64 { return p.Changed }

// Touch marks the plane as updated at t.
func (p *Plane) Touch(t float64) { p.Changed = t }
