package legs

import (
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/protocol"
	"github.com/qdwalker/quadruped/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "legs",
})

// Geometry describes the physical robot. All lengths are in millimetres, in
// the body's space: X is right, Y is up, Z is forwards.
type Geometry struct {
	BodyHeight      float64 `yaml:"body_height"`
	HipToShoulder   float64 `yaml:"hip_to_shoulder"`
	ShoulderToElbow float64 `yaml:"shoulder_to_elbow"`
	ElbowToToe      float64 `yaml:"elbow_to_toe"`

	// Where each hip is mounted, in leg order.
	Roots [NumLegs]math3d.Vector4 `yaml:"roots"`

	// Where each foot rests before the first solve, in leg order.
	Feet [NumLegs]math3d.Vector4 `yaml:"feet"`
}

func DefaultGeometry() Geometry {
	const (
		bodyHeight = 80.0
		rootX      = 29.0
		rootZ      = 75.0
		footX      = 71.0
		footZ      = 75.0
	)

	return Geometry{
		BodyHeight:      bodyHeight,
		HipToShoulder:   42.0,
		ShoulderToElbow: 42.0,
		ElbowToToe:      73.0,
		Roots: [NumLegs]math3d.Vector4{
			{X: rootX, Z: rootZ},   // Front Right - 0
			{X: -rootX, Z: rootZ},  // Front Left  - 1
			{X: rootX, Z: -rootZ},  // Back Right  - 2
			{X: -rootX, Z: -rootZ}, // Back Left   - 3
		},
		Feet: [NumLegs]math3d.Vector4{
			{X: footX, Y: -bodyHeight, Z: footZ},
			{X: -footX, Y: -bodyHeight, Z: footZ},
			{X: footX, Y: -bodyHeight, Z: -footZ},
			{X: -footX, Y: -bodyHeight, Z: -footZ},
		},
	}
}

type Robot struct {
	BodyHeight float64
	Legs       [NumLegs]*Leg

	// Current IK targets, normalized into each leg's space.
	Targets [NumLegs]math3d.Vector4
}

// NewRobot builds the four legs and points them at their resting feet. It
// doesn't solve them; call Update for that.
func NewRobot(g Geometry) (*Robot, error) {
	r := &Robot{
		BodyHeight: g.BodyHeight,
	}

	for i := range r.Legs {
		leg, err := NewLeg(Configuration(i), g.Roots[i], g.HipToShoulder, g.ShoulderToElbow, g.ElbowToToe)
		if err != nil {
			return nil, err
		}

		r.Legs[i] = leg
		r.Targets[i] = leg.NormalizeTarget(g.Feet[i])
	}

	return r, nil
}

// SetIKTargets points each leg at a target in the body's space, and solves.
func (r *Robot) SetIKTargets(fr, fl, br, bl math3d.Vector4) {
	for i, t := range [NumLegs]math3d.Vector4{fr, fl, br, bl} {
		r.Targets[i] = r.Legs[i].NormalizeTarget(t)
	}

	// Right legs solve with the fore/aft axis flipped.
	r.Targets[FrontRight].Z *= -1
	r.Targets[BackRight].Z *= -1

	r.Update()
}

// Update solves every leg for its current target.
func (r *Robot) Update() {
	for i, leg := range r.Legs {
		leg.Solve(r.Targets[i])
		log.Debugf("%s: target=%s hip=%0.1f shoulder=%0.1f elbow=%0.1f", leg.Config, r.Targets[i], utils.Deg(leg.Hip), utils.Deg(leg.Shoulder), utils.Deg(leg.Elbow))
	}
}

// Unreachable returns the legs whose last target was out of reach.
func (r *Robot) Unreachable() []Configuration {
	var out []Configuration
	for _, leg := range r.Legs {
		if leg.Unreachable {
			out = append(out, leg.Config)
		}
	}

	return out
}

// Angles returns the joint angles grouped by joint, each in leg order. This is
// the layout of the wire records.
func (r *Robot) Angles() (hips, shoulders, elbows [NumLegs]float64) {
	for i, leg := range r.Legs {
		hips[i] = leg.Hip
		shoulders[i] = leg.Shoulder
		elbows[i] = leg.Elbow
	}

	return
}

func (r *Robot) SetAngles(hips, shoulders, elbows [NumLegs]float64) {
	for i, leg := range r.Legs {
		leg.SetAngles(hips[i], shoulders[i], elbows[i])
	}
}

// ExtractAngles copies the angles reported by the robot itself.
func (r *Robot) ExtractAngles(fb protocol.FeedbackRecord) {
	for i, leg := range r.Legs {
		leg.SetAngles(float64(fb.Hips[i]), float64(fb.Shoulders[i]), float64(fb.Elbows[i]))
	}
}

// Pose packs the current angles into a wire record.
func (r *Robot) Pose(timestamp uint32) protocol.PoseRecord {
	hips, shoulders, elbows := r.Angles()
	return protocol.NewPoseRecord(hips, shoulders, elbows, timestamp)
}
