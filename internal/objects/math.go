package objects

import "fmt"

type Vector2 struct{ X, Y float32 }

type Vector3 struct{ X, Y, Z float32 }

type Vector4 struct{ X, Y, Z, W float32 }

type Quaternion struct{ X, Y, Z, W float32 }

// VarVector is stored with three components from engine 5.4 and with four before
type VarVector struct {
	V [4]float32
	N int
}

// Vector3 drops the fourth component
func (v VarVector) Vector3() Vector3 { return Vector3{v.V[0], v.V[1], v.V[2]} }

func (v VarVector) String() string { return fmt.Sprint(v.V[:v.N]) }

// XForm is a position, rotation and scale
type XForm struct {
	T VarVector
	Q Quaternion
	S VarVector
}

func (c Cursor) Vector2() (Vector2, Cursor) {
	f, c := Fixed(c, 2, Cursor.F32)
	return Vector2{f[0], f[1]}, c
}

func (c Cursor) Vector3() (Vector3, Cursor) {
	f, c := Fixed(c, 3, Cursor.F32)
	return Vector3{f[0], f[1], f[2]}, c
}

func (c Cursor) Vector4() (Vector4, Cursor) {
	f, c := Fixed(c, 4, Cursor.F32)
	return Vector4{f[0], f[1], f[2], f[3]}, c
}

func (c Cursor) Quaternion() (Quaternion, Cursor) {
	f, c := Fixed(c, 4, Cursor.F32)
	return Quaternion{f[0], f[1], f[2], f[3]}, c
}

// packedVectors reports whether this engine version stores three component vectors
func (c Cursor) packedVectors() bool { return c.version.AtLeast(5, 4) }

// VarVector reads three components from 5.4 and four before
func (c Cursor) VarVector() (VarVector, Cursor) {
	n := 4
	if c.packedVectors() {
		n = 3
	}
	f, c := Fixed(c, n, Cursor.F32)
	v := VarVector{N: n}
	copy(v.V[:], f)
	return v, c
}

func (c Cursor) XForm() (XForm, Cursor) {
	var x XForm
	x.T, c = c.VarVector()
	x.Q, c = c.Quaternion()
	x.S, c = c.VarVector()
	return x, c
}
