package math3d

import (
	"fmt"
	"math"
)

// Vector4 is used for positions, tangents and offsets alike. W is carried
// along (so vectors can go through 4x4 matrices) but is otherwise ignored.
type Vector4 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"-" yaml:"-"`
}

var (
	ZeroVector4 = Vector4{}

	// Unit vectors along each axis. J is up; K is forwards.
	I = Vector4{X: 1}
	J = Vector4{Y: 1}
	K = Vector4{Z: 1}
)

// MakeVector4 returns a pointer to a new Vector4 with a zero W.
func MakeVector4(x float64, y float64, z float64) *Vector4 {
	return &Vector4{X: x, Y: y, Z: z}
}

func (v Vector4) String() string {
	return fmt.Sprintf("&Vec4{x=%0.2f y=%0.2f z=%0.2f}", v.X, v.Y, v.Z)
}

// Zero returns true if the vector is at 0,0,0.
func (v Vector4) Zero() bool {
	return (v.X == 0) && (v.Y == 0) && (v.Z == 0)
}

func (v Vector4) Add(vv Vector4) Vector4 {
	return Vector4{v.X + vv.X, v.Y + vv.Y, v.Z + vv.Z, v.W + vv.W}
}

func (v Vector4) Sub(vv Vector4) Vector4 {
	return Vector4{v.X - vv.X, v.Y - vv.Y, v.Z - vv.Z, v.W - vv.W}
}

// Scale multiplies every component by s.
func (v Vector4) Scale(s float64) Vector4 {
	return Vector4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Dot returns the dot product of the X, Y and Z components.
func (v Vector4) Dot(vv Vector4) float64 {
	return (v.X * vv.X) + (v.Y * vv.Y) + (v.Z * vv.Z)
}

// Cross returns the three dimensional cross product, with a zero W.
func (v Vector4) Cross(vv Vector4) Vector4 {
	return Vector4{
		X: (v.Y * vv.Z) - (v.Z * vv.Y),
		Y: (v.Z * vv.X) - (v.X * vv.Z),
		Z: (v.X * vv.Y) - (v.Y * vv.X),
	}
}

func (v Vector4) Magnitude() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns a vector pointing in the same direction with a magnitude of
// one. The zero vector is returned unchanged.
func (v Vector4) Unit() Vector4 {
	m := v.Magnitude()
	if m == 0 {
		return v
	}

	return v.Scale(1 / m)
}

// Lerp blends linearly from v (at f=0) to vv (at f=1).
func (v Vector4) Lerp(vv Vector4, f float64) Vector4 {
	return v.Scale(1 - f).Add(vv.Scale(f))
}

// Distance calculates and returns the distance between this vector and another,
// as a float64.
func (v Vector4) Distance(vv Vector4) float64 {
	return v.Sub(vv).Magnitude()
}

// MultiplyByMatrix44 returns a new Vector4, by treating this vector as a point
// (w=1) and transforming it by a 4x4 matrix. W of the result is copied from v.
func (v Vector4) MultiplyByMatrix44(m Matrix44) Vector4 {
	r := m.m.Mul4x1(vec4(v))
	return Vector4{X: r[0], Y: r[1], Z: r[2], W: v.W}
}

// Rotate applies only the rotation part of m, ignoring any translation.
func (v Vector4) Rotate(m Matrix44) Vector4 {
	r := m.m.Mat3().Mul3x1(vec3(v))
	return Vector4{X: r[0], Y: r[1], Z: r[2], W: v.W}
}
