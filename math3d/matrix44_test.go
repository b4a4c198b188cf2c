package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeRotation(t *testing.T) {
	type eg struct {
		axis  Vector4
		angle float64
		in    Vector4
		exp   Vector4
	}

	examples := []eg{
		{J, 0, Vector4{X: 1, Y: 2, Z: 3}, Vector4{X: 1, Y: 2, Z: 3}},
		{J, -math.Pi / 2, I, K},
		{J, math.Pi / 2, I, K.Scale(-1)},
		{J, math.Pi, Vector4{X: 1, Y: 2, Z: 3}, Vector4{X: -1, Y: 2, Z: -3}},
		{K, math.Pi / 2, I, J},
		{K.Scale(5), math.Pi / 2, I, J},
	}

	for i, x := range examples {
		act := x.in.MultiplyByMatrix44(MakeRotation(x.axis, x.angle))
		assert.InDelta(t, 0, act.Distance(x.exp), 1e-9, "example %d: got %s, expected %s", i+1, act, x.exp)
	}
}

func TestMakeMatrix44(t *testing.T) {
	m := MakeMatrix44(Vector4{X: 1, Y: 2, Z: 3}, -math.Pi/2)

	// Rotated first, then translated.
	act := I.MultiplyByMatrix44(m)
	assert.InDelta(t, 0, act.Distance(Vector4{X: 1, Y: 2, Z: 4}), 1e-9)

	// The rotation part alone ignores the translation.
	act = I.Rotate(m)
	assert.InDelta(t, 0, act.Distance(K), 1e-9)
}

func TestInverse(t *testing.T) {
	m := MakeMatrix44(Vector4{X: 10, Y: -4, Z: 3}, 0.7)
	v := Vector4{X: 3, Y: 5, Z: 7}

	act := v.MultiplyByMatrix44(m).MultiplyByMatrix44(m.Inverse())
	assert.InDelta(t, 0, act.Distance(v), 1e-9)

	id := MultiplyMatrices(m, m.Inverse()).Elements()
	for r, row := range IdentityMatrix44.Elements() {
		for c, val := range row {
			assert.InDelta(t, val, id[r][c], 1e-9, "m%d%d", r+1, c+1)
		}
	}
}
