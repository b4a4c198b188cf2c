package gait

import (
	"math"

	"github.com/qdwalker/quadruped/numeric"
)

// Config holds the tuning of the gait. Lengths are in millimetres.
type Config struct {
	// Distance covered by one step on a straight path.
	StepLength float64 `yaml:"step_length"`

	// Peak height of a foot mid-swing.
	StepHeight float64 `yaml:"step_height"`

	// Where the feet sit relative to the path, fore/aft and sideways.
	StanceHalfLength float64 `yaml:"stance_half_length"`
	StanceHalfWidth  float64 `yaml:"stance_half_width"`

	// How far the support centroid is pushed away from the swinging pair.
	SwayScale float64 `yaml:"sway_scale"`

	// Bounds on the (square root of the) radius of curvature, between which
	// steps shorten from full length down to a tenth of it.
	MinCurvature float64 `yaml:"min_curvature"`
	MaxCurvature float64 `yaml:"max_curvature"`
}

func DefaultConfig() Config {
	return Config{
		StepLength:       70,
		StepHeight:       40,
		StanceHalfLength: 75,
		StanceHalfWidth:  71,
		SwayScale:        10,
		MinCurvature:     0,
		MaxCurvature:     math.Sqrt(1000),
	}
}

// StrideFactor returns the fraction of a full step to take where the path has
// the given radius of curvature. Tight corners get short steps; straight
// sections (infinite radius) get full ones.
func (c Config) StrideFactor(radius float64) float64 {
	if math.IsInf(radius, 1) || math.IsNaN(radius) {
		return 1
	}

	span := c.MaxCurvature - c.MinCurvature
	if span <= 0 {
		return 1
	}

	r := numeric.Clamp(math.Sqrt(math.Max(radius, 0)), c.MinCurvature, c.MaxCurvature)
	return 0.9*((r-c.MinCurvature)/span) + 0.1
}
