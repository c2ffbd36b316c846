package xrmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axes in the right-handed convention used by view transforms:
// X=right, Y=up, -Z=forward.
var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// IdentityQuat is the no-rotation orientation.
func IdentityQuat() quat.Number { return quat.Number{Real: 1} }

// UnitScale is the scale of a transform that does not scale.
func UnitScale() r3.Vec { return r3.Vec{X: 1, Y: 1, Z: 1} }

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	a := r3.Unit(axis)
	s := math.Sin(angle / 2)
	return quat.Number{Real: math.Cos(angle / 2), Imag: a.X * s, Jmag: a.Y * s, Kmag: a.Z * s}
}

// Rotate applies the rotation q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	out := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: out.Imag, Y: out.Jmag, Z: out.Kmag}
}

// TranslateOnAxis moves p by distance along axis expressed in the local
// frame of orientation q.
func TranslateOnAxis(p r3.Vec, q quat.Number, axis r3.Vec, distance float64) r3.Vec {
	return r3.Add(p, r3.Scale(distance, Rotate(q, axis)))
}

// RigidTransform is a pose without scale.
type RigidTransform struct {
	Position    r3.Vec
	Orientation quat.Number
}

// NewRigidTransform returns a transform, substituting the identity for a
// zero-valued orientation.
func NewRigidTransform(p r3.Vec, q quat.Number) RigidTransform {
	if q == (quat.Number{}) {
		q = IdentityQuat()
	}
	return RigidTransform{Position: p, Orientation: q}
}

// Matrix returns the column-major matrix of t.
func (t RigidTransform) Matrix() Mat4 {
	q := t.Orientation
	if q == (quat.Number{}) {
		q = IdentityQuat()
	}
	return Compose(t.Position, q, UnitScale())
}

// Inverse returns the transform that undoes t.
func (t RigidTransform) Inverse() RigidTransform {
	inv := quat.Conj(t.Orientation)
	return RigidTransform{
		Position:    Rotate(inv, r3.Scale(-1, t.Position)),
		Orientation: inv,
	}
}
