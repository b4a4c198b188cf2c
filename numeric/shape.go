package numeric

import (
	"math"
)

const (
	// SigmoidSteepness is the slope of the logistic curve at its midpoint,
	// before normalization.
	SigmoidSteepness = 12.0

	// BellWidth is the variance-like width of the lift curve.
	BellWidth = 0.045

	// BellScale brings the peak of the lift curve to (almost exactly) one.
	BellScale = 2.6594
)

var (
	sigMin   = 1.0 / (1.0 + math.Exp(SigmoidSteepness*0.5))
	sigRange = 1.0/(1.0+math.Exp(-SigmoidSteepness*0.5)) - sigMin
)

// Sigmoid is a logistic ease centred on 0.5, normalized so that Sigmoid(0) = 0
// and Sigmoid(1) = 1. Outside of [0,1] it keeps going (slightly), so callers
// clamp.
func Sigmoid(x float64) float64 {
	return ((1.0 / (1.0 + math.Exp((x-0.5)*-SigmoidSteepness))) - sigMin) / sigRange
}

// InverseSigmoid undoes Sigmoid for y in [0,1]. Values outside are clamped.
func InverseSigmoid(y float64) float64 {
	if y <= 0 {
		return 0
	}
	if y >= 1 {
		return 1
	}

	return math.Log(1.0/(y*sigRange+sigMin)-1.0)/-SigmoidSteepness + 0.5
}

// Bell is a gaussian bump centred on 0.5 which peaks at about one.
func Bell(x float64) float64 {
	dx := x - 0.5
	return math.Exp(-dx*dx/BellWidth) / math.Sqrt(BellWidth*math.Pi) / BellScale
}

// Clamp returns v limited to [min, max]. NaN becomes min.
func Clamp(v, min, max float64) float64 {
	if v < min || math.IsNaN(v) {
		return min
	}
	if v > max {
		return max
	}

	return v
}

// Lerp blends linearly from a (at f=0) to b (at f=1).
func Lerp(a, b, f float64) float64 {
	return a*(1-f) + b*f
}
