package protocol

import (
	"fmt"
)

// PoseRecord is sent to the robot once per tick. Joint angles are in radians,
// in leg order (FR, FL, BR, BL).
type PoseRecord struct {
	Type      uint32
	Hips      [4]float32
	Shoulders [4]float32
	Elbows    [4]float32
	Timestamp uint32 // ms since the loop started
}

func NewPoseRecord(hips, shoulders, elbows [4]float64, timestamp uint32) PoseRecord {
	p := PoseRecord{
		Type:      TypePose,
		Timestamp: timestamp,
	}

	for i := 0; i < 4; i++ {
		p.Hips[i] = float32(hips[i])
		p.Shoulders[i] = float32(shoulders[i])
		p.Elbows[i] = float32(elbows[i])
	}

	return p
}

func (p PoseRecord) String() string {
	return fmt.Sprintf("Pose{t=%d hips=%v shoulders=%v elbows=%v}", p.Timestamp, p.Hips, p.Shoulders, p.Elbows)
}

// EncodePose returns the pose as a zero-padded datagram of PoseDatagramSize
// bytes.
func EncodePose(p PoseRecord) []byte {
	return encode(PoseDatagramSize, &p)
}

// DecodePose reads a pose from the first PoseSize bytes of b. Any padding is
// ignored.
func DecodePose(b []byte) (PoseRecord, error) {
	var p PoseRecord
	err := decode(b, PoseSize, &p)
	return p, err
}
