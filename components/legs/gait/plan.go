package gait

import (
	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/curve"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "gait",
})

var ErrInvalidStepLength = errors.New("step length must be positive")

// Plan is the sequence of stances which walks the robot from one end of a
// curve to the other. Between consecutive stances, exactly one diagonal pair
// of feet moves.
type Plan struct {
	Config  Config
	Length  float64
	Stances []Stance

	// Per stance: the curve parameter, the arc length along the curve, the
	// step taken to get there, and the support centroid the body sways over.
	Times     []float64
	Profile   []float64
	StepSizes []float64
	Centroids []math3d.Vector4
}

// Generate places stances along the curve. Steps shorten where the curve is
// tight. The first and last stances have all four feet square to the path.
func Generate(c *curve.Curve, cfg Config) (*Plan, error) {
	step := cfg.StepLength
	if step <= 0 {
		return nil, errors.Wrapf(ErrInvalidStepLength, "got %0.2f", step)
	}

	length := c.Length()
	pathLength := step * 0.5
	profile := []float64{0}
	stepSizes := []float64{step}

	for pathLength < length-step {
		p := c.Parameters(c.TimeToArcLength(pathLength + step))
		f := cfg.StrideFactor(p.Radius)

		profile = append(profile, pathLength)
		pathLength += step * f
		stepSizes = append(stepSizes, step*f)
	}

	profile = append(profile, profile[len(profile)-1]+step)
	stepSizes = append(stepSizes, step)

	plan := &Plan{
		Config:    cfg,
		Length:    length,
		Times:     c.ParameterizeCustom(profile),
		Profile:   profile,
		StepSizes: stepSizes,
	}

	last := len(plan.Times) - 1
	var prev Stance

	for i, u := range plan.Times {
		p := c.Parameters(u)
		pos := p.Position
		tangent := p.Tangent
		orth := math3d.J.Cross(tangent)
		offset := orth.Scale(cfg.SwayScale)
		side := orth.Scale(cfg.StanceHalfWidth)

		progress := 0.0
		if length > 0 {
			progress = numeric.Clamp(profile[i]/length, 0, 1)
		}

		var s Stance
		var centroid math3d.Vector4

		switch i {
		case 0, last:
			fore := pos.Add(tangent.Scale(cfg.StanceHalfLength))
			aft := pos.Sub(tangent.Scale(cfg.StanceHalfLength))
			s.Targets = [legs.NumLegs]math3d.Vector4{
				fore.Add(side),
				fore.Sub(side),
				aft.Add(side),
				aft.Sub(side),
			}

			switch {
			case i == 0:
				progress = 0
				centroid = s.Tricentroid(legs.FrontLeft).Add(offset)
			case i%2 == 0:
				centroid = s.Tricentroid(legs.BackLeft).Add(offset)
			default:
				centroid = s.Tricentroid(legs.BackRight).Sub(offset)
			}

		default:
			fore := pos.Add(tangent.Scale(cfg.StanceHalfLength + stepSizes[i]))
			aft := pos.Sub(tangent.Scale(cfg.StanceHalfLength - stepSizes[i]))
			s.Targets = prev.Targets

			if i%2 == 0 {
				s.Targets[legs.FrontRight] = fore.Add(side)
				s.Targets[legs.BackLeft] = aft.Sub(side)
				centroid = s.Tricentroid(legs.BackLeft).Lerp(s.Tricentroid(legs.FrontLeft), 0.5).Add(offset)
			} else {
				s.Targets[legs.FrontLeft] = fore.Sub(side)
				s.Targets[legs.BackRight] = aft.Add(side)
				centroid = s.Tricentroid(legs.BackRight).Lerp(s.Tricentroid(legs.FrontRight), 0.5).Sub(offset)
			}
		}

		s.Centroid = pos
		s.Tangent = tangent
		s.Orthogonal = orth
		s.Progress = progress
		s.StepSize = stepSizes[i]

		plan.Stances = append(plan.Stances, s)
		plan.Centroids = append(plan.Centroids, centroid)
		prev = s
	}

	log.Infof("generated %d stances over %0.2fmm", len(plan.Stances), length)
	return plan, nil
}

// Locate returns the index of the stance most recently passed at the given
// progression (a fraction of the path length), and how far (from zero to one)
// the robot is towards the next one. Past the last stance, the phase is zero.
func (p *Plan) Locate(progression float64) (int, float64) {
	n := len(p.Stances)
	if n < 2 {
		return 0, 0
	}

	i := 0
	for i < n-1 && progression > p.Stances[i+1].Progress {
		i++
	}

	if i == n-1 {
		return i, 0
	}

	span := p.Stances[i+1].Progress - p.Stances[i].Progress
	if span <= 0 {
		return i, 0
	}

	return i, (progression - p.Stances[i].Progress) / span
}

// CenterOfMass returns where the body should be centred, easing from one
// support centroid to the next.
func (p *Plan) CenterOfMass(index int, phase float64) math3d.Vector4 {
	if len(p.Centroids) == 0 {
		return math3d.ZeroVector4
	}

	if index >= len(p.Centroids)-1 {
		return p.Centroids[len(p.Centroids)-1]
	}
	if index < 0 {
		index = 0
	}

	return p.Centroids[index].Lerp(p.Centroids[index+1], numeric.Sigmoid(phase))
}

// At returns the feet at the given stance and phase: mid-swing between two
// stances, or planted in the last one.
func (p *Plan) At(index int, phase float64) Swing {
	if len(p.Stances) == 0 {
		return Swing{}
	}

	if index >= len(p.Stances)-1 {
		return Swing{Stance: p.Stances[len(p.Stances)-1]}
	}

	return Interpolate(index, p.Stances[index], p.Stances[index+1], phase, p.Config)
}

// Swing is a stance in the middle of a step, plus how high each of the moving
// feet is lifted.
type Swing struct {
	Stance     Stance
	FirstLift  float64
	SecondLift float64
}

// Interpolate moves one diagonal pair of feet from a towards b. The front foot
// moves during the first half of the phase, and the back foot during the
// second. Each is lifted while it moves.
func Interpolate(step int, a, b Stance, phase float64, cfg Config) Swing {
	firstFactor, firstLift := swing(phase/0.5, cfg.StepHeight)
	secondFactor, secondLift := swing((phase-0.5)/0.5, cfg.StepHeight)

	front, back := legs.FrontLeft, legs.BackRight
	if step%2 == 1 {
		front, back = legs.FrontRight, legs.BackLeft
	}

	s := a
	s.Targets[front] = a.Targets[front].Lerp(b.Targets[front], firstFactor).Add(math3d.J.Scale(firstLift))
	s.Targets[back] = a.Targets[back].Lerp(b.Targets[back], secondFactor).Add(math3d.J.Scale(secondLift))

	return Swing{
		Stance:     s,
		FirstLift:  firstLift,
		SecondLift: secondLift,
	}
}

// swing returns the eased fraction of a move, and the lift at that point.
func swing(x, height float64) (float64, float64) {
	f := numeric.Sigmoid(x)
	if f <= 0 {
		return 0, 0
	}
	if f >= 1 {
		return 1, 0
	}

	return f, numeric.Bell(x) * height
}
