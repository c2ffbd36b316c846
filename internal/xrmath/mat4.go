// Package xrmath holds the rigid-transform and projection primitives the
// immersive session code needs on top of gonum's vector and quaternion types.
//
// Matrices are 4x4 column-major [16]float64, the element layout host runtimes
// use for view and projection matrices, so arrays received from a host can be
// used without transposition.
package xrmath

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// MatrixValidationTolerance is the tolerance for checking rotation matrix validity.
const MatrixValidationTolerance = 0.01

// Mat4 is a column-major 4x4 matrix: element (row r, col c) is m[c*4+r].
type Mat4 [16]float64

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns element (row r, col c).
func (m Mat4) At(r, c int) float64 { return m[c*4+r] }

// Position returns the translation column.
func (m Mat4) Position() r3.Vec {
	return r3.Vec{X: m[12], Y: m[13], Z: m[14]}
}

// Mul returns a*b.
func Mul(a, b Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+r] * b[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// dense views m as a gonum matrix. The column-major array read as row-major
// data is m transposed, which is undone when reading results back.
func (m Mat4) dense() *mat.Dense {
	data := make([]float64, 16)
	copy(data, m[:])
	return mat.NewDense(4, 4, data)
}

// Determinant returns det(m).
func (m Mat4) Determinant() float64 {
	// det(Mᵀ) == det(M)
	return mat.Det(m.dense())
}

// Invert returns the inverse of m. A singular matrix yields the zero matrix
// and ok == false.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	if m.Determinant() == 0 {
		return Mat4{}, false
	}
	var d mat.Dense
	if err := d.Inverse(m.dense()); err != nil {
		// An ill-conditioned matrix still produces a usable result.
		if _, cond := err.(mat.Condition); !cond {
			return Mat4{}, false
		}
	}
	// d holds (Mᵀ)⁻¹ == (M⁻¹)ᵀ, whose row-major layout is M⁻¹ column-major.
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			inv[r*4+c] = d.At(r, c)
		}
	}
	return inv, true
}

// Compose builds the matrix for translation p, rotation q and scale s.
func Compose(p r3.Vec, q quat.Number, s r3.Vec) Mat4 {
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return Mat4{
		(1 - (yy + zz)) * s.X, (xy + wz) * s.X, (xz - wy) * s.X, 0,
		(xy - wz) * s.Y, (1 - (xx + zz)) * s.Y, (yz + wx) * s.Y, 0,
		(xz + wy) * s.Z, (yz - wx) * s.Z, (1 - (xx + yy)) * s.Z, 0,
		p.X, p.Y, p.Z, 1,
	}
}

// Decompose splits m into translation, rotation and scale. A negative
// determinant is attributed to the X scale.
func (m Mat4) Decompose() (p r3.Vec, q quat.Number, s r3.Vec) {
	s.X = math.Hypot(math.Hypot(m[0], m[1]), m[2])
	s.Y = math.Hypot(math.Hypot(m[4], m[5]), m[6])
	s.Z = math.Hypot(math.Hypot(m[8], m[9]), m[10])
	if m.Determinant() < 0 {
		s.X = -s.X
	}
	p = m.Position()

	var rot [9]float64 // row-major 3x3
	for c, sc := range [3]float64{s.X, s.Y, s.Z} {
		if sc == 0 {
			continue
		}
		for r := 0; r < 3; r++ {
			rot[r*3+c] = m[c*4+r] / sc
		}
	}
	q = quatFromRotation(rot)
	return p, q, s
}

func quatFromRotation(rot [9]float64) quat.Number {
	m11, m12, m13 := rot[0], rot[1], rot[2]
	m21, m22, m23 := rot[3], rot[4], rot[5]
	m31, m32, m33 := rot[6], rot[7], rot[8]

	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return quat.Number{Real: 0.25 / s, Imag: (m32 - m23) * s, Jmag: (m13 - m31) * s, Kmag: (m21 - m12) * s}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		return quat.Number{Real: (m32 - m23) / s, Imag: 0.25 * s, Jmag: (m12 + m21) / s, Kmag: (m13 + m31) / s}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		return quat.Number{Real: (m13 - m31) / s, Imag: (m12 + m21) / s, Jmag: 0.25 * s, Kmag: (m23 + m32) / s}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		return quat.Number{Real: (m21 - m12) / s, Imag: (m13 + m31) / s, Jmag: (m23 + m32) / s, Kmag: 0.25 * s}
	}
}

// Perspective builds an off-axis perspective projection from the frustum
// extents at the near plane.
func Perspective(left, right, top, bottom, near, far float64) Mat4 {
	x := 2 * near / (right - left)
	y := 2 * near / (top - bottom)
	a := (right + left) / (right - left)
	b := (top + bottom) / (top - bottom)
	c := -(far + near) / (far - near)
	d := -2 * far * near / (far - near)

	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		a, b, c, -1,
		0, 0, d, 0,
	}
}

// IsRigid reports whether m is a proper rigid transform: a rotation block
// with determinant ≈ 1 and a bottom row of [0 0 0 1].
func IsRigid(m Mat4) bool {
	r00, r01, r02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	r10, r11, r12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	r20, r21, r22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > MatrixValidationTolerance {
		return false
	}

	if m.At(3, 0) != 0 || m.At(3, 1) != 0 || m.At(3, 2) != 0 || math.Abs(m.At(3, 3)-1.0) > 0.001 {
		return false
	}
	return true
}
