package math3d

import (
	"fmt"
	"math"
)

// Pose is a position in the world plus a heading (in radians) about J. The
// body faces along +K in its own space.
type Pose struct {
	Position Vector4
	Heading  float64
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{x=%+07.2f y=%+07.2f z=%+07.2f, r=%+07.2f}", p.Position.X, p.Position.Y, p.Position.Z, p.Heading)
}

// Local returns a matrix to transform a vector in the world coordinate space
// into the pose's space: translate to the position, then rotate by the
// heading.
func (p Pose) Local() Matrix44 {
	return MultiplyMatrices(MakeRotation(J, p.Heading), MakeTranslation(p.Position.Scale(-1)))
}

// World returns a matrix to transform a vector in the pose's space back into
// the world.
func (p Pose) World() Matrix44 {
	return p.Local().Inverse()
}

// ToLocal transforms a world vector into the pose's space.
func (p Pose) ToLocal(v Vector4) Vector4 {
	return v.MultiplyByMatrix44(p.Local())
}

// HeadingOf returns the heading which turns the given unit tangent onto +K.
// Facing +X is -π/2, facing -X is +π/2.
func HeadingOf(tangent Vector4) float64 {
	dot := math.Max(-1, math.Min(1, tangent.Dot(K)))

	dir := tangent.Cross(K).Y
	if dir != 0 {
		dir /= math.Abs(dir)
	} else if dot < 0 {
		return math.Pi
	}

	return math.Acos(dot) * dir
}
