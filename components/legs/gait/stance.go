package gait

import (
	"fmt"

	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/math3d"
)

// Stance is where the four feet are planted (in world space) at one point
// along the path.
type Stance struct {
	Targets    [legs.NumLegs]math3d.Vector4 `json:"targets"`
	Centroid   math3d.Vector4               `json:"centroid"`
	Tangent    math3d.Vector4               `json:"tangent"`
	Orthogonal math3d.Vector4               `json:"orthogonal"`
	Progress   float64                      `json:"progress"`
	StepSize   float64                      `json:"step_size"`
}

func (s Stance) String() string {
	return fmt.Sprintf("Stance{FR=%s FL=%s BR=%s BL=%s progress=%0.4f step=%0.2f}",
		s.Targets[legs.FrontRight], s.Targets[legs.FrontLeft], s.Targets[legs.BackRight], s.Targets[legs.BackLeft], s.Progress, s.StepSize)
}

// Tricentroid returns the centroid (in the XZ plane) of the support triangle
// made by every foot except the given one. That is the intersection of two of
// its medians.
func (s Stance) Tricentroid(lifted legs.Configuration) math3d.Vector4 {
	var p [3]math3d.Vector4
	n := 0
	for i, t := range s.Targets {
		if legs.Configuration(i) == lifted {
			continue
		}
		p[n] = t
		n++
	}

	m0 := p[0].Lerp(p[1], 0.5)
	m1 := p[1].Lerp(p[2], 0.5)

	x1, z1 := m0.X, m0.Z
	x2, z2 := p[2].X, p[2].Z
	x3, z3 := m1.X, m1.Z
	x4, z4 := p[0].X, p[0].Z

	d := (x1-x2)*(z3-z4) - (z1-z2)*(x3-x4)
	if d == 0 {
		mean := p[0].Add(p[1]).Add(p[2]).Scale(1.0 / 3)
		return math3d.Vector4{X: mean.X, Z: mean.Z}
	}

	a := x1*z2 - z1*x2
	b := x3*z4 - z3*x4

	return math3d.Vector4{
		X: (a*(x3-x4) - (x1-x2)*b) / d,
		Z: (a*(z3-z4) - (z1-z2)*b) / d,
	}
}

// Localized returns the targets in the space of a body at the given position
// and heading.
func (s Stance) Localized(position math3d.Vector4, heading float64) [legs.NumLegs]math3d.Vector4 {
	rot := math3d.MakeRotation(math3d.J, heading)

	var out [legs.NumLegs]math3d.Vector4
	for i, t := range s.Targets {
		out[i] = t.Sub(position).Rotate(rot)
	}

	return out
}

// Polygon returns the feet in drawing order, around the outside of the body.
func (s Stance) Polygon() [legs.NumLegs]math3d.Vector4 {
	return [legs.NumLegs]math3d.Vector4{
		s.Targets[legs.FrontRight],
		s.Targets[legs.FrontLeft],
		s.Targets[legs.BackLeft],
		s.Targets[legs.BackRight],
	}
}
