package curve

import (
	"math"

	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
)

// DefaultResolution is the number of intervals in a reparameterization table.
const DefaultResolution = 100

// ParameterizeLinear returns resolution+1 parameters, spaced evenly by arc
// length from the start of the curve to the end.
func (c *Curve) ParameterizeLinear(resolution int) []float64 {
	params := make([]float64, 0, resolution+1)
	for i := 0; i <= resolution; i++ {
		params = append(params, c.TimeToArcLength(float64(i)/float64(resolution)*c.length))
	}

	return params
}

// ParameterizeSigmoidal is like ParameterizeLinear, but the samples bunch up
// at either end of the curve and spread out in the middle.
func (c *Curve) ParameterizeSigmoidal(resolution int) []float64 {
	params := make([]float64, 0, resolution+1)
	for i := 0; i <= resolution; i++ {
		s := numeric.Sigmoid(float64(i)/float64(resolution)) * c.length
		params = append(params, c.TimeToArcLength(s))
	}

	return params
}

// ParameterizeCustom returns the parameter for each arc length in profile.
func (c *Curve) ParameterizeCustom(profile []float64) []float64 {
	params := make([]float64, len(profile))
	for i, s := range profile {
		params[i] = c.TimeToArcLength(s)
	}

	return params
}

// Outline is the curve sampled at even arc length intervals, plus parallels
// offset to either side (in the XZ plane).
type Outline struct {
	Center []math3d.Vector4 `json:"center"`
	Left   []math3d.Vector4 `json:"left"`
	Right  []math3d.Vector4 `json:"right"`
}

// Polyline samples the curve for drawing.
func (c *Curve) Polyline(resolution int, offset float64) Outline {
	times := c.ParameterizeLinear(resolution)
	out := Outline{
		Center: make([]math3d.Vector4, len(times)),
		Left:   make([]math3d.Vector4, len(times)),
		Right:  make([]math3d.Vector4, len(times)),
	}

	for i, u := range times {
		p := c.Parameters(u)
		side := math3d.J.Cross(p.Tangent).Scale(offset)
		out.Center[i] = p.Position
		out.Right[i] = p.Position.Add(side)
		out.Left[i] = p.Position.Sub(side)
	}

	return out
}

// Reparameterizer maps fractions of arc length to curve parameters via a
// precomputed table, which is much cheaper than TimeToArcLength.
type Reparameterizer struct {
	curve      *Curve
	resolution int
	cached     []float64

	// The table was built by ParameterizeSigmoidal rather than
	// ParameterizeLinear.
	sigmoidal bool
}

func NewReparameterizer(c *Curve, resolution int) *Reparameterizer {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	return &Reparameterizer{
		curve:      c,
		resolution: resolution,
		cached:     c.ParameterizeLinear(resolution),
	}
}

// NewSigmoidalReparameterizer is like NewReparameterizer, but the table is
// spaced by Sigmoid, so lookups near the ends of the curve are more precise.
func NewSigmoidalReparameterizer(c *Curve, resolution int) *Reparameterizer {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	return &Reparameterizer{
		curve:      c,
		resolution: resolution,
		cached:     c.ParameterizeSigmoidal(resolution),
		sigmoidal:  true,
	}
}

func (r *Reparameterizer) Curve() *Curve {
	return r.curve
}

func (r *Reparameterizer) Resolution() int {
	return r.resolution
}

// MappedTime returns (approximately) the parameter at which fraction f of the
// curve's length has been covered.
func (r *Reparameterizer) MappedTime(f float64) float64 {
	if f >= 1 {
		return 1
	}
	if f <= 0 || math.IsNaN(f) {
		return 0
	}

	x := f
	if r.sigmoidal {
		x = numeric.InverseSigmoid(f)
	}

	scaled := x * float64(r.resolution)
	i := int(math.Floor(scaled))
	if i >= r.resolution {
		return 1
	}
	k := scaled - float64(i)

	return numeric.Lerp(r.cached[i], r.cached[i+1], k)
}

// Parameters returns the curve's parameters at fraction f of its length.
func (r *Reparameterizer) Parameters(f float64) Params {
	if f <= 0 || math.IsNaN(f) {
		return r.curve.Parameters(0)
	}
	if f >= 1 {
		return r.curve.Parameters(1)
	}

	return r.curve.Parameters(r.MappedTime(f))
}
