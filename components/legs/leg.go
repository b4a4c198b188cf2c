package legs

import (
	"math"

	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
)

// Configuration is the position of a leg on the body. The order is also the
// order of legs on the wire.
type Configuration int

const (
	FrontRight Configuration = iota
	FrontLeft
	BackRight
	BackLeft

	NumLegs = 4
)

var configNames = [NumLegs]string{"FR", "FL", "BR", "BL"}

func (c Configuration) String() string {
	if c < 0 || c >= NumLegs {
		return "??"
	}

	return configNames[c]
}

// Mirrored returns true for legs on the left side of the body, which solve IK
// in a coordinate space flipped around the vertical axis.
func (c Configuration) Mirrored() bool {
	return c == FrontLeft || c == BackLeft
}

var ErrInvalidLength = errors.New("link lengths must be positive")

// Leg is a hip which swings the whole leg sideways, followed by a two-link
// arm (shoulder and elbow) in the plane the hip points it into.
//
//	(hip)--l0--(shoulder)
//	              \
//	               l1
//	                \
//	              (elbow)
//	                /
//	               l2
//	              /
//	           (toe)
type Leg struct {
	Config Configuration
	Root   math3d.Vector4

	L0 float64 // hip to shoulder
	L1 float64 // shoulder to elbow
	L2 float64 // elbow to toe

	l0sq float64
	l1sq float64
	l2sq float64

	// Joint angles (in radians) from the last solve, in the convention the
	// embedded controller expects.
	Hip      float64
	Shoulder float64
	Elbow    float64

	// Set by Solve when the target couldn't be reached. The angles are still
	// finite, and point the leg as close to the target as they can.
	Unreachable bool
}

func NewLeg(config Configuration, root math3d.Vector4, l0, l1, l2 float64) (*Leg, error) {
	if l0 <= 0 || l1 <= 0 || l2 <= 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "%s: l0=%0.2f l1=%0.2f l2=%0.2f", config, l0, l1, l2)
	}

	return &Leg{
		Config: config,
		Root:   root,
		L0:     l0,
		L1:     l1,
		L2:     l2,
		l0sq:   l0 * l0,
		l1sq:   l1 * l1,
		l2sq:   l2 * l2,
	}, nil
}

// NormalizeTarget transforms a target in the body's space into this leg's
// space: relative to its root and, for left legs, turned around the vertical
// axis so that every leg can share one solver.
func (leg *Leg) NormalizeTarget(t math3d.Vector4) math3d.Vector4 {
	n := t.Sub(leg.Root)
	if leg.Config.Mirrored() {
		n = n.Rotate(math3d.MakeRotation(math3d.J, math.Pi))
	}

	return n
}

// DenormalizeTarget is the inverse of NormalizeTarget.
func (leg *Leg) DenormalizeTarget(n math3d.Vector4) math3d.Vector4 {
	if leg.Config.Mirrored() {
		n = n.Rotate(math3d.MakeRotation(math3d.J, -math.Pi))
	}

	return n.Add(leg.Root)
}

// Solve sets the joint angles which put the toe at the given (normalized)
// target.
func (leg *Leg) Solve(t math3d.Vector4) {
	leg.Unreachable = false

	// The hip turns the leg around the Z axis, so look at the target in the XY
	// plane. The shoulder pivot sits l0 from the hip, at the point where the
	// line to the target is tangent to the circle it sweeps.
	d := math.Hypot(t.X, t.Y)

	var v math3d.Vector4
	switch {
	case d == 0:
		leg.Unreachable = true
		v = math3d.I.Scale(leg.L0)

	case d < leg.L0:
		leg.Unreachable = true
		v = math3d.Vector4{X: t.X / d, Y: t.Y / d}.Scale(leg.L0)

	default:
		e := math.Acos(leg.L0 / d)
		unitp := math3d.Vector4{X: t.X / d, Y: t.Y / d}
		v = unitp.Rotate(math3d.MakeRotation(math3d.K, e)).Scale(leg.L0)
	}

	hip := -math.Atan2(v.Y, v.X)

	// The rest is a two-link arm from the shoulder pivot to the target.
	p := t.Sub(v)
	dsq := p.Dot(p)
	d = math.Sqrt(dsq)

	if d > leg.L1+leg.L2 || d < math.Abs(leg.L1-leg.L2) {
		leg.Unreachable = true
	}

	at := 0.0
	if d > 0 {
		at = math.Asin(numeric.Clamp(p.Z/d, -1, 1))
	}

	ae := math.Pi
	a1 := 0.0
	if d <= leg.L1+leg.L2 && d > 0 {
		ae = math.Acos(numeric.Clamp(0.5*(leg.l1sq+leg.l2sq-dsq)/(leg.L1*leg.L2), -1, 1))
		a1 = math.Acos(numeric.Clamp(0.5*(leg.l1sq+dsq-leg.l2sq)/(leg.L1*d), -1, 1))
	}

	var shoulder, elbow float64
	if leg.Config.Mirrored() {
		shoulder = at + a1 - math.Pi/2
		elbow = ae - math.Pi
	} else {
		hip *= -1
		shoulder = math.Pi/2 - (at + a1)
		elbow = math.Pi - ae
	}

	leg.Hip = hip + math.Pi
	leg.Shoulder = shoulder + math.Pi
	leg.Elbow = elbow + math.Pi
}

// ForwardKinematics returns the (normalized) position of the toe given the
// current joint angles. For a reachable target, this is the target.
func (leg *Leg) ForwardKinematics() math3d.Vector4 {
	var h, lift, ae float64

	if leg.Config.Mirrored() {
		h = math.Pi - leg.Hip
		lift = leg.Shoulder - math.Pi/2
		ae = leg.Elbow
	} else {
		h = leg.Hip - math.Pi
		lift = 3*math.Pi/2 - leg.Shoulder
		ae = 2*math.Pi - leg.Elbow
	}

	// The shoulder pivot, and the direction (in the XY plane) of the arm.
	v := math3d.Vector4{X: math.Cos(h), Y: math.Sin(h)}.Scale(leg.L0)
	w := math3d.Vector4{X: math.Sin(h), Y: -math.Cos(h)}

	lower := lift - (math.Pi - ae)
	across := leg.L1*math.Cos(lift) + leg.L2*math.Cos(lower)
	up := leg.L1*math.Sin(lift) + leg.L2*math.Sin(lower)

	return v.Add(w.Scale(across)).Add(math3d.K.Scale(up))
}

// Angles returns hip, shoulder and elbow.
func (leg *Leg) Angles() [3]float64 {
	return [3]float64{leg.Hip, leg.Shoulder, leg.Elbow}
}

func (leg *Leg) SetAngles(hip, shoulder, elbow float64) {
	leg.Hip = hip
	leg.Shoulder = shoulder
	leg.Elbow = elbow
}
