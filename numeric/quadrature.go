// Package numeric holds the small numerical kernels the curve and gait code
// are built on: quadrature, root finding and easing curves.
package numeric

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// DefaultQuadraturePoints is the number of Gauss-Legendre nodes per interval.
const DefaultQuadraturePoints = 15

// Quadrature integrates over a finite interval with a fixed Gauss-Legendre
// rule.
type Quadrature struct {
	Points int

	// Concurrent is the number of goroutines used to evaluate the integrand.
	// Zero (or one) evaluates sequentially. Parallel evaluation sums in a
	// different order, so results may differ in the last few bits.
	Concurrent int
}

// DefaultQuadrature is sequential with DefaultQuadraturePoints nodes.
var DefaultQuadrature = Quadrature{Points: DefaultQuadraturePoints}

// Integrate returns the integral of |f| between a and b. Swapping the bounds
// negates the result.
func (q Quadrature) Integrate(f func(float64) float64, a, b float64) float64 {
	if a == b {
		return 0
	}

	if a > b {
		return -q.Integrate(f, b, a)
	}

	n := q.Points
	if n <= 0 {
		n = DefaultQuadraturePoints
	}

	abs := func(x float64) float64 {
		return math.Abs(f(x))
	}

	return quad.Fixed(abs, a, b, n, quad.Legendre{}, q.Concurrent)
}
