package numeric

import (
	"math"
)

const (
	DefaultMaxSteps  = 100
	DefaultTolerance = 1e-4
	DefaultEpsilon   = 1e-4

	// How many times the same step size may repeat before giving up and
	// splitting the difference.
	maxRepeatedSteps = 10
)

// Newton finds x in [0,1] such that f(x) = target, given the derivative d.
type Newton struct {
	MaxSteps  int
	Tolerance float64 // relative step size at which to stop
	Epsilon   float64 // derivative magnitude below which to stop
}

var DefaultNewton = Newton{
	MaxSteps:  DefaultMaxSteps,
	Tolerance: DefaultTolerance,
	Epsilon:   DefaultEpsilon,
}

// Solve runs Newton-Raphson from hint. It never fails: if the iteration
// doesn't converge, the best iterate so far is returned.
func (n Newton) Solve(target, hint float64, f, d func(float64) float64) float64 {
	x0 := hint
	x1 := hint
	lastDelta := 0.0
	repeats := 0

	for i := 0; i < n.MaxSteps; i++ {
		x0 = Clamp(x0, 0, 1)

		yp := d(x0)
		if math.Abs(yp) < n.Epsilon {
			return x1
		}

		x1 = x0 - (f(x0)-target)/yp
		if x1 == x0 || math.Abs(x1-x0)/math.Abs(x1) < n.Tolerance {
			return x1
		}

		delta := math.Abs(x0 - x1)
		if delta == lastDelta {
			if repeats > maxRepeatedSteps {
				return (x0 + x1) * 0.5
			}
			repeats++
		}

		lastDelta = delta
		x0 = x1
	}

	return x1
}
