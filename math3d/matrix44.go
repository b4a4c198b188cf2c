package math3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Matrix44 is a column-major 4x4 transform. Vectors are treated as columns, so
// in MultiplyMatrices(a, b) the transform b is applied first.
type Matrix44 struct {
	m mgl64.Mat4
}

// IdentityMatrix44 leaves every vector alone.
var IdentityMatrix44 = Matrix44{mgl64.Ident4()}

// MakeRotation returns a right-handed rotation of angle radians about the given
// axis, which need not be normalized.
func MakeRotation(axis Vector4, angle float64) Matrix44 {
	return Matrix44{mgl64.HomogRotate3D(angle, vec3(axis).Normalize())}
}

// MakeTranslation returns a matrix which moves points by v.
func MakeTranslation(v Vector4) Matrix44 {
	return Matrix44{mgl64.Translate3D(v.X, v.Y, v.Z)}
}

// MakeMatrix44 returns a matrix which rotates by heading radians about J and
// then translates by v.
func MakeMatrix44(v Vector4, heading float64) Matrix44 {
	return MultiplyMatrices(MakeTranslation(v), MakeRotation(J, heading))
}

func (m Matrix44) String() string {
	e := m.Elements()
	return fmt.Sprintf(
		"&M44{%+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f}",
		e[0][0], e[0][1], e[0][2], e[0][3],
		e[1][0], e[1][1], e[1][2], e[1][3],
		e[2][0], e[2][1], e[2][2], e[2][3],
		e[3][0], e[3][1], e[3][2], e[3][3])
}

// Elements returns the matrix as rows of float64s. This is pretty much only
// useful for dumping its contents.
func (m Matrix44) Elements() [4][4]float64 {
	var e [4][4]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			e[r][c] = m.m.At(r, c)
		}
	}

	return e
}

// Inverse returns the inverse of the matrix. Singular matrices come back as the
// zero matrix, but nothing here builds one.
func (m Matrix44) Inverse() Matrix44 {
	return Matrix44{m.m.Inv()}
}

// MultiplyMatrices returns a*b.
func MultiplyMatrices(a Matrix44, b Matrix44) Matrix44 {
	return Matrix44{a.m.Mul4(b.m)}
}

func vec3(v Vector4) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func vec4(v Vector4) mgl64.Vec4 {
	return mgl64.Vec4{v.X, v.Y, v.Z, 1}
}
