package protocol

import (
	"fmt"
)

// FeedbackRecord is reported by the robot: the angles it actually reached,
// plus the orientation of the body from its IMU.
type FeedbackRecord struct {
	Type        uint32
	Hips        [4]float32
	Shoulders   [4]float32
	Elbows      [4]float32
	Orientation [4]float32
}

func (f FeedbackRecord) String() string {
	return fmt.Sprintf("Feedback{hips=%v shoulders=%v elbows=%v orientation=%v}", f.Hips, f.Shoulders, f.Elbows, f.Orientation)
}

func EncodeFeedback(f FeedbackRecord) []byte {
	return encode(FeedbackSize, &f)
}

func DecodeFeedback(b []byte) (FeedbackRecord, error) {
	var f FeedbackRecord
	err := decode(b, FeedbackSize, &f)
	return f, err
}
