// Package protocol encodes the fixed-layout records exchanged with the robot's
// embedded controller. Every multi-byte field is big-endian, whatever the
// host.
package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Type tags, the first field of every record.
const (
	TypePose     uint32 = 0
	TypeFeedback uint32 = 1
)

const (
	// PoseSize is the length of an encoded PoseRecord, before padding.
	PoseSize = 4 + 3*4*4 + 4

	// PoseDatagramSize is the length of the datagram which carries a pose. The
	// tail past PoseSize is zero.
	PoseDatagramSize = 80

	// FeedbackSize is the length of an encoded FeedbackRecord.
	FeedbackSize = 4 + 4*4*4
)

var ErrShortRecord = errors.New("short record")

var order = binary.BigEndian

func encode(size int, rec interface{}) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))

	// Writes into a bytes.Buffer of fixed-size values can't fail.
	_ = binary.Write(buf, order, rec)

	for buf.Len() < size {
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

func decode(b []byte, size int, rec interface{}) error {
	if len(b) < size {
		return errors.Wrapf(ErrShortRecord, "got %d bytes, need %d", len(b), size)
	}

	return binary.Read(bytes.NewReader(b[:size]), order, rec)
}
