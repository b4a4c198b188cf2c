package curve

import (
	"math"
	"testing"

	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(x, y, z float64) math3d.Vector4 {
	return math3d.Vector4{X: x, Y: y, Z: z}
}

var square = []math3d.Vector4{
	v(-800, 0, -800),
	v(-800, 0, 300),
	v(300, 0, 300),
	v(300, 0, -300),
}

var winding = []math3d.Vector4{
	v(-800, 0, -800),
	v(-800, 0, 300),
	v(300, 0, 300),
	v(300, 0, -300),
	v(-200, 0, -300),
	v(-200, 0, -750),
	v(-150, 0, -800),
	v(800, 0, -800),
	v(800, 0, 0),
	v(800, 0, 700),
	v(700, 0, 800),
	v(-800, 0, 800),
}

func TestNewTooFewPoints(t *testing.T) {
	for n := 0; n < MinControlPoints; n++ {
		_, err := New(winding[:n])
		assert.ErrorIs(t, err, ErrTooFewControlPoints, "n=%d", n)
	}
}

func TestNewZeroLength(t *testing.T) {
	p := v(10, 0, 10)
	_, err := New([]math3d.Vector4{p, p, p, p, p})
	assert.ErrorIs(t, err, ErrZeroLength)
}

func TestTimeToArcLengthNaN(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.TimeToArcLength(math.NaN()))
}

func TestKnots(t *testing.T) {
	type eg struct {
		points int
		exp    []float64
	}

	examples := []eg{
		{4, []float64{0, 0, 0, 0, 1, 1, 1, 1}},
		{5, []float64{0, 0, 0, 0, 0.5, 1, 1, 1, 1}},
		{6, []float64{0, 0, 0, 0, 1.0 / 3, 2.0 / 3, 1, 1, 1, 1}},
	}

	for _, x := range examples {
		c, err := New(winding[:x.points])
		require.NoError(t, err)
		assert.InDeltaSlice(t, x.exp, c.Knots(), 1e-12)
		assert.Len(t, c.SpanLengths(), x.points-degree)
	}
}

func TestEndpoints(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	assert.InDelta(t, 0, c.Evaluate(0, 0).Distance(winding[0]), 1e-9)
	assert.Equal(t, winding[len(winding)-1], c.Evaluate(0, 1))

	// Out of range parameters are clamped.
	assert.Equal(t, c.Evaluate(0, 0), c.Evaluate(0, -3))
	assert.Equal(t, c.Evaluate(0, 1), c.Evaluate(0, 7))
}

func TestStraightLine(t *testing.T) {
	c, err := New([]math3d.Vector4{v(0, 0, 0), v(0, 0, 100), v(0, 0, 200), v(0, 0, 300)})
	require.NoError(t, err)

	assert.InDelta(t, 300, c.Length(), 1e-6)

	p := c.Parameters(0.3)
	assert.InDelta(t, 0, p.Tangent.Distance(math3d.K), 1e-9)
	assert.True(t, math.IsInf(p.Radius, 1))

	// Evenly spaced collinear points make a uniformly parameterized line.
	assert.InDelta(t, 0.5, c.TimeToArcLength(150), 1e-6)
}

func TestDerivatives(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	const h = 1e-6
	for _, u := range []float64{0.03, 0.21, 0.5, 0.64, 0.97} {
		d1 := c.Evaluate(0, u+h).Sub(c.Evaluate(0, u-h)).Scale(1 / (2 * h))
		e1 := c.Evaluate(1, u)
		assert.InDelta(t, 0, d1.Distance(e1)/e1.Magnitude(), 1e-4, "first derivative at u=%0.2f", u)

		d2 := c.Evaluate(1, u+h).Sub(c.Evaluate(1, u-h)).Scale(1 / (2 * h))
		e2 := c.Evaluate(2, u)
		assert.InDelta(t, 0, d2.Distance(e2)/math.Max(1, e2.Magnitude()), 1e-4, "second derivative at u=%0.2f", u)
	}

	// The derivative at the very end is taken just before it, and is not
	// the last control point.
	end := c.Evaluate(1, 1)
	assert.NotEqual(t, winding[len(winding)-1], end)
	assert.True(t, end.Magnitude() > 0)
}

func TestParameters(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		p := c.Parameters(u)
		assert.InDelta(t, 1, p.Tangent.Magnitude(), 1e-9, "u=%0.2f", u)
		assert.True(t, p.Speed > 0, "u=%0.2f", u)
		assert.True(t, p.Radius > 0, "u=%0.2f", u)
		assert.False(t, math.IsNaN(p.Radius), "u=%0.2f", u)
	}

	// The curve leaves the first point heading towards the second.
	assert.InDelta(t, 0, c.Parameters(0).Tangent.Distance(math3d.K), 1e-9)
}

func TestArcLengthMatchesLength(t *testing.T) {
	for _, pts := range [][]math3d.Vector4{square, winding} {
		c, err := New(pts)
		require.NoError(t, err)

		assert.True(t, c.Length() > 0)
		assert.InDelta(t, c.Length(), c.ArcLength(0, 1), 1e-9)

		sum := 0.0
		for _, l := range c.SpanLengths() {
			sum += l
		}
		assert.InDelta(t, c.Length(), sum, 1e-9)

		// Splitting anywhere adds up.
		assert.InDelta(t, c.Length(), c.ArcLength(0, 0.37)+c.ArcLength(0.37, 1), 1e-6)
		assert.InDelta(t, -c.ArcLength(0.2, 0.6), c.ArcLength(0.6, 0.2), 1e-12)
	}
}

func TestTimeToArcLengthBounds(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.TimeToArcLength(0))
	assert.Equal(t, 0.0, c.TimeToArcLength(-10))
	assert.Equal(t, 1.0, c.TimeToArcLength(c.Length()))
	assert.Equal(t, 1.0, c.TimeToArcLength(c.Length()+10))
}

func TestTimeToArcLengthInvertsArcLength(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	last := 0.0
	for f := 0.05; f < 1; f += 0.05 {
		s := f * c.Length()
		u := c.TimeToArcLength(s)

		assert.True(t, u > last, "parameters must increase with arc length")
		assert.InDelta(t, s, c.ArcLength(0, u), 0.5, "s=%0.2f", s)
		last = u
	}
}

// Walk the curve in tiny chords and check that the point reached after
// covering s matches the one TimeToArcLength picks.
func TestTimeToArcLengthMatchesMarching(t *testing.T) {
	c, err := New(square)
	require.NoError(t, err)

	targets := []float64{0.1, 0.33, 0.5, 0.8}
	found := make([]math3d.Vector4, len(targets))

	const steps = 50000
	prev := c.Evaluate(0, 0)
	walked := 0.0
	next := 0

	for i := 1; i <= steps && next < len(targets); i++ {
		p := c.Evaluate(0, float64(i)/steps)
		walked += p.Distance(prev)
		prev = p

		for next < len(targets) && walked >= targets[next]*c.Length() {
			found[next] = p
			next++
		}
	}

	require.Equal(t, len(targets), next)
	for i, f := range targets {
		p := c.Evaluate(0, c.TimeToArcLength(f*c.Length()))
		assert.InDelta(t, 0, p.Distance(found[i]), 1.0, "f=%0.2f", f)
	}
}

func TestSquarePath(t *testing.T) {
	c, err := New(square)
	require.NoError(t, err)

	assert.True(t, c.Length() > 0)

	u := c.TimeToArcLength(c.Length() / 2)
	assert.True(t, u > 0 && u < 1, "u=%f", u)

	global, local := c.Progress(u)
	assert.InDelta(t, 0.5, global, 1e-3)
	assert.InDelta(t, 0.5, local, 1e-3)
}

func TestProgress(t *testing.T) {
	c, err := New(winding)
	require.NoError(t, err)

	g, l := c.Progress(0)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, 0.0, l)

	g, _ = c.Progress(1)
	assert.InDelta(t, 1, g, 1e-9)

	// Halfway through the third span.
	spans := c.SpanLengths()
	s := spans[0] + spans[1] + spans[2]/2
	g, l = c.Progress(c.TimeToArcLength(s))
	assert.InDelta(t, s/c.Length(), g, 1e-4)
	assert.InDelta(t, 0.5, l, 1e-3)
}

func TestConcurrentQuadrature(t *testing.T) {
	seq, err := New(winding)
	require.NoError(t, err)

	par, err := New(winding, WithQuadrature(numeric.Quadrature{Points: numeric.DefaultQuadraturePoints, Concurrent: 4}))
	require.NoError(t, err)

	assert.InDelta(t, seq.Length(), par.Length(), 1e-9)
	assert.InDelta(t, seq.TimeToArcLength(1234), par.TimeToArcLength(1234), 1e-6)
}
