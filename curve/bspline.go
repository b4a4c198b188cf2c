// Package curve implements the clamped, uniform cubic B-spline which the robot
// walks along, and the arc length bookkeeping needed to walk it at a constant
// speed.
package curve

import (
	"math"

	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
	"github.com/sirupsen/logrus"
)

const (
	degree = 3
	order  = degree + 1

	// MinControlPoints is the fewest points which make a cubic curve.
	MinControlPoints = order

	// Derivatives are evaluated a hair before the end of the curve, where the
	// basis functions all vanish.
	endNudge = 0.9999999
)

var (
	ErrTooFewControlPoints = errors.New("too few control points")
	ErrZeroLength          = errors.New("curve has zero length")
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "curve",
})

// Params is the state of the curve at one parametric position.
type Params struct {
	Position math3d.Vector4
	Tangent  math3d.Vector4 // unit length
	Speed    float64        // magnitude of the first derivative
	Radius   float64        // radius of curvature; +Inf when straight
}

type Curve struct {
	points []math3d.Vector4
	knots  []float64

	// Control points of the curve (o=0) and of its first and second
	// derivatives, indexed [o][i].
	deriv [order - 1][]math3d.Vector4

	spans  []float64
	length float64

	quad   numeric.Quadrature
	newton numeric.Newton
}

type Option func(*Curve)

// WithQuadrature overrides the rule used for arc lengths.
func WithQuadrature(q numeric.Quadrature) Option {
	return func(c *Curve) {
		c.quad = q
	}
}

// WithNewton overrides the solver used to invert arc lengths.
func WithNewton(n numeric.Newton) Option {
	return func(c *Curve) {
		c.newton = n
	}
}

// New builds a curve through (well, near) the given control points. The first
// and last points are interpolated exactly.
func New(points []math3d.Vector4, opts ...Option) (*Curve, error) {
	if len(points) < MinControlPoints {
		return nil, errors.Wrapf(ErrTooFewControlPoints, "got %d, need at least %d", len(points), MinControlPoints)
	}

	c := &Curve{
		points: append([]math3d.Vector4(nil), points...),
		knots:  clampedKnots(len(points)),
		quad:   numeric.DefaultQuadrature,
		newton: numeric.DefaultNewton,
	}

	for _, o := range opts {
		o(c)
	}

	c.cacheDerivatives()
	c.cacheSpanLengths()

	// Coincident control points make a curve nothing can walk along.
	if !(c.length > 0) {
		return nil, errors.Wrapf(ErrZeroLength, "length=%v", c.length)
	}

	log.Debugf("built curve: points=%d spans=%d length=%0.2f", len(c.points), len(c.spans), c.length)
	return c, nil
}

// clampedKnots returns order zeros, evenly spaced internal knots, then order
// ones.
func clampedKnots(n int) []float64 {
	numKnots := n + order
	internal := numKnots - 2*order

	knots := make([]float64, 0, numKnots)
	for i := 0; i < order; i++ {
		knots = append(knots, 0)
	}
	for k := 1; k <= internal; k++ {
		knots = append(knots, float64(k)/float64(internal+1))
	}
	for i := 0; i < order; i++ {
		knots = append(knots, 1)
	}

	return knots
}

func (c *Curve) cacheDerivatives() {
	c.deriv[0] = c.points

	for o := 1; o < order-1; o++ {
		prev := c.deriv[o-1]
		cur := make([]math3d.Vector4, len(prev)-1)

		for i := range cur {
			gap := c.knots[i+degree+1] - c.knots[i+o]
			if gap == 0 {
				continue
			}

			cur[i] = prev[i+1].Sub(prev[i]).Scale(float64(degree-o+1) / gap)
		}

		c.deriv[o] = cur
	}
}

func (c *Curve) cacheSpanLengths() {
	c.spans = c.spans[:0]
	c.length = 0

	for i := degree; i < len(c.knots)-degree-1; i++ {
		l := c.quad.Integrate(c.speed, c.knots[i], c.knots[i+1])
		c.spans = append(c.spans, l)
		c.length += l
	}
}

// Length returns the total arc length of the curve.
func (c *Curve) Length() float64 {
	return c.length
}

func (c *Curve) ControlPoints() []math3d.Vector4 {
	return append([]math3d.Vector4(nil), c.points...)
}

func (c *Curve) Knots() []float64 {
	return append([]float64(nil), c.knots...)
}

// SpanLengths returns the arc length of each non-empty knot interval.
func (c *Curve) SpanLengths() []float64 {
	return append([]float64(nil), c.spans...)
}

// Evaluate returns the position (o=0), or the first (o=1) or second (o=2)
// derivative at u, which is clamped to [0,1].
func (c *Curve) Evaluate(o int, u float64) math3d.Vector4 {
	if o < 0 || o >= order-1 {
		return math3d.ZeroVector4
	}

	u = numeric.Clamp(u, 0, 1)
	if u == 1 {
		if o == 0 {
			return c.points[len(c.points)-1]
		}
		u = endNudge
	}

	pts := c.deriv[o]
	basis := c.basis(o, degree-o, u)

	v := math3d.ZeroVector4
	for i, p := range pts {
		if basis[i] != 0 {
			v = v.Add(p.Scale(basis[i]))
		}
	}

	return v
}

// basis returns the Cox-de Boor basis values of degree k at u, for each
// control point of derivative level o. The knot vector is shifted by o, which
// is the same as dropping o knots from each end.
func (c *Curve) basis(o, k int, u float64) []float64 {
	U := c.knots[o:]
	n := len(c.deriv[o]) + k
	N := make([]float64, n)

	for i := 0; i < n; i++ {
		if U[i] <= u && u < U[i+1] {
			N[i] = 1
		}
	}

	// Raise the degree in place. Each N[i] only reads N[i] and N[i+1] from the
	// previous degree, so walking upwards is safe.
	for d := 1; d <= k; d++ {
		for i := 0; i < n-d; i++ {
			var t1, t2 float64

			if den := U[i+d] - U[i]; den > 0 {
				t1 = (u - U[i]) / den * N[i]
			}

			if den := U[i+d+1] - U[i+1]; den > 0 {
				t2 = (U[i+d+1] - u) / den * N[i+1]
			}

			N[i] = t1 + t2
		}
	}

	return N[:len(c.deriv[o])]
}

func (c *Curve) speed(u float64) float64 {
	return c.Evaluate(1, u).Magnitude()
}

// Parameters returns the position, unit tangent, speed and radius of curvature
// at u.
func (c *Curve) Parameters(u float64) Params {
	u = numeric.Clamp(u, 0, 1)
	pos := c.Evaluate(0, u)

	if u == 1 {
		u = endNudge
	}

	v := c.Evaluate(1, u)
	a := c.Evaluate(2, u)
	speed := v.Magnitude()

	radius := math.Inf(1)
	if cross := v.Cross(a).Magnitude(); cross > 0 {
		radius = speed * speed * speed / cross
	}

	return Params{
		Position: pos,
		Tangent:  v.Unit(),
		Speed:    speed,
		Radius:   radius,
	}
}

// ArcLength returns the length of the curve between u0 and u1, negative if u1
// comes first. Each knot span is integrated separately, so ArcLength(0, 1)
// agrees with Length.
func (c *Curve) ArcLength(u0, u1 float64) float64 {
	if u0 > u1 {
		return -c.ArcLength(u1, u0)
	}

	u0 = numeric.Clamp(u0, 0, 1)
	u1 = numeric.Clamp(u1, 0, 1)

	total := 0.0
	for i := degree; i < len(c.knots)-degree-1; i++ {
		a := math.Max(u0, c.knots[i])
		b := math.Min(u1, c.knots[i+1])
		if b <= a {
			continue
		}

		if a == c.knots[i] && b == c.knots[i+1] {
			total += c.spans[i-degree]
		} else {
			total += c.quad.Integrate(c.speed, a, b)
		}
	}

	return total
}

// findSpan returns the index of the span containing arc length s, and the
// arc length remaining within it.
func (c *Curve) findSpan(s float64) (int, float64) {
	sum := 0.0
	for i, l := range c.spans {
		if s < sum+l {
			return i, s - sum
		}
		sum += l
	}

	last := len(c.spans) - 1
	return last, s - (sum - c.spans[last])
}

// TimeToArcLength returns the parameter u at which the arc length from the
// start of the curve is s.
func (c *Curve) TimeToArcLength(s float64) float64 {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	if s >= c.length {
		return 1
	}

	i, local := c.findSpan(s)
	u0 := c.knots[i+degree]
	u1 := c.knots[i+degree+1]

	b := 0.0
	if c.spans[i] > 0 {
		b = local / c.spans[i]
	}

	arc := func(u float64) float64 {
		return c.quad.Integrate(c.speed, u0, u)
	}

	return c.newton.Solve(local, u0*(1-b)+u1*b, arc, c.speed)
}

// Progress returns the fraction of the whole curve's length, and of the
// current span's length, which lies before u.
func (c *Curve) Progress(u float64) (global float64, local float64) {
	s := c.ArcLength(0, u)
	i, rem := c.findSpan(s)

	if c.length > 0 {
		global = s / c.length
	}
	if c.spans[i] > 0 {
		local = rem / c.spans[i]
	}

	return global, local
}
