package scene

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/xrsession/internal/xrmath"
)

// Object is a node in the scene graph with a local transform.
type Object struct {
	Name       string
	Position   r3.Vec
	Quaternion quat.Number
	Scale      r3.Vec
	Visible    bool

	// Matrix is the local transform; MatrixWorld includes every ancestor.
	Matrix      xrmath.Mat4
	MatrixWorld xrmath.Mat4

	// MatrixAutoUpdate recomposes Matrix from Position/Quaternion/Scale
	// during UpdateMatrixWorld.
	MatrixAutoUpdate bool

	// Layers is a bitmask of render layers this object is drawn in.
	Layers uint32

	parent   *Object
	children []*Object
}

// NewObject returns a visible node at the origin.
func NewObject(name string) *Object {
	o := &Object{}
	o.init(name)
	return o
}

func (o *Object) init(name string) {
	o.Name = name
	o.Quaternion = xrmath.IdentityQuat()
	o.Scale = xrmath.UnitScale()
	o.Visible = true
	o.Matrix = xrmath.Identity()
	o.MatrixWorld = xrmath.Identity()
	o.MatrixAutoUpdate = true
	o.Layers = 1
}

// Node returns o; embedding types use it to expose their graph node.
func (o *Object) Node() *Object { return o }

// EnableLayer adds layer n to the object's layer mask.
func (o *Object) EnableLayer(n int) { o.Layers |= 1 << uint(n) }

// Parent returns the node's parent, or nil for a root.
func (o *Object) Parent() *Object { return o.parent }

// Children returns the node's direct children.
func (o *Object) Children() []*Object { return o.children }

// Add attaches child to o, detaching it from any previous parent.
func (o *Object) Add(child *Object) {
	if child == nil || child == o {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = o
	o.children = append(o.children, child)
}

// Remove detaches child from o.
func (o *Object) Remove(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// IsDescendantOf reports whether root is o or one of its ancestors.
// The parent relation is acyclic, so a plain walk terminates.
func (o *Object) IsDescendantOf(root *Object) bool {
	if root == nil {
		return false
	}
	for n := o; n != nil; n = n.parent {
		if n == root {
			return true
		}
	}
	return false
}

// SetMatrix replaces the local transform and decomposes it into
// Position/Quaternion/Scale.
func (o *Object) SetMatrix(m xrmath.Mat4) {
	o.Matrix = m
	o.Position, o.Quaternion, o.Scale = m.Decompose()
}

// UpdateMatrix recomposes Matrix from Position/Quaternion/Scale.
func (o *Object) UpdateMatrix() {
	o.Matrix = xrmath.Compose(o.Position, o.Quaternion, o.Scale)
}

// UpdateMatrixWorld refreshes MatrixWorld for o and its subtree.
func (o *Object) UpdateMatrixWorld() {
	if o.MatrixAutoUpdate {
		o.UpdateMatrix()
	}
	if o.parent == nil {
		o.MatrixWorld = o.Matrix
	} else {
		o.MatrixWorld = xrmath.Mul(o.parent.MatrixWorld, o.Matrix)
	}
	for _, c := range o.children {
		c.UpdateMatrixWorld()
	}
}

// UpdateWorldFromAncestors recomputes MatrixWorld for every node from the
// root down to o. Descendants of o are left untouched.
func (o *Object) UpdateWorldFromAncestors() {
	var chain []*Object
	for n := o; n != nil; n = n.parent {
		chain = append(chain, n)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		if n.MatrixAutoUpdate {
			n.UpdateMatrix()
		}
		if n.parent == nil {
			n.MatrixWorld = n.Matrix
		} else {
			n.MatrixWorld = xrmath.Mul(n.parent.MatrixWorld, n.Matrix)
		}
	}
}

// WorldPosition returns the translation of MatrixWorld.
func (o *Object) WorldPosition() r3.Vec {
	return o.MatrixWorld.Position()
}

// WorldQuaternion returns the rotation of MatrixWorld.
func (o *Object) WorldQuaternion() quat.Number {
	_, q, _ := o.MatrixWorld.Decompose()
	return q
}
