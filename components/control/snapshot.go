package control

import (
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/components/legs/gait"
	"github.com/qdwalker/quadruped/math3d"
)

// Snapshot is a copy of the loop's state after an update, for renderers.
type Snapshot struct {
	Paused  bool   `json:"paused"`
	Updates uint64 `json:"updates"`

	// Milliseconds since the loop booted, as sent to the robot.
	Timestamp uint32 `json:"timestamp"`

	Position    float64 `json:"position"`
	Progression float64 `json:"progression"`
	StanceIndex int     `json:"stance_index"`
	StancePhase float64 `json:"stance_phase"`

	Point   math3d.Vector4 `json:"point"`
	Tangent math3d.Vector4 `json:"tangent"`
	Heading float64        `json:"heading"`

	// Reciprocal of the radius, so that straight sections are zero rather
	// than infinite.
	Curvature float64 `json:"curvature"`

	CenterOfMass math3d.Vector4 `json:"center_of_mass"`
	Stance       gait.Stance    `json:"stance"`
	Lifts        [2]float64     `json:"lifts"`

	// Foot targets in the body's space.
	Targets [legs.NumLegs]math3d.Vector4 `json:"targets"`

	Hips        [legs.NumLegs]float64 `json:"hips"`
	Shoulders   [legs.NumLegs]float64 `json:"shoulders"`
	Elbows      [legs.NumLegs]float64 `json:"elbows"`
	Unreachable [legs.NumLegs]bool    `json:"unreachable"`
}
