package transport

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration

	// The length of each record the robot sends back.
	FrameSize int
}

// SerialLink talks to the robot over a serial port (or anything else which
// reads and writes bytes). Outgoing datagrams are written as is. Incoming
// bytes are cut into fixed-size frames.
type SerialLink struct {
	port      io.ReadWriteCloser
	frameSize int
	closed    atomic.Bool
}

func NewSerialLink(cfg SerialConfig) (*SerialLink, error) {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Device)
	}

	log.Infof("serial link: %s at %d baud", cfg.Device, cfg.Baud)
	return NewSerialLinkFromPort(port, cfg.FrameSize), nil
}

func NewSerialLinkFromPort(port io.ReadWriteCloser, frameSize int) *SerialLink {
	return &SerialLink{
		port:      port,
		frameSize: frameSize,
	}
}

func (l *SerialLink) Send(b []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}

	if _, err := l.port.Write(b); err != nil {
		return errors.Wrap(err, "serial send")
	}

	return nil
}

// serialErrorBackoff is how long Receive waits after a failed read, so a port
// which keeps failing doesn't spin.
const serialErrorBackoff = 50 * time.Millisecond

// Receive reads frames until ctx is done or the link is closed. A read which
// times out (returning nothing, or io.EOF) keeps any partial frame and tries
// again. Any other read error is passed to h, the partial frame is dropped,
// and reading carries on.
func (l *SerialLink) Receive(ctx context.Context, h Handler) error {
	frame := make([]byte, 0, l.frameSize)
	buf := make([]byte, l.frameSize)

	for {
		if ctx.Err() != nil || l.closed.Load() {
			return nil
		}

		n, err := l.port.Read(buf[:l.frameSize-len(frame)])
		frame = append(frame, buf[:n]...)

		if len(frame) == l.frameSize {
			payload := make([]byte, l.frameSize)
			copy(payload, frame)
			frame = frame[:0]
			h(payload, nil)
		}

		if err != nil && err != io.EOF {
			if l.closed.Load() {
				return nil
			}

			frame = frame[:0]
			h(nil, errors.Wrap(err, "serial receive"))

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(serialErrorBackoff):
			}
		}
	}
}

func (l *SerialLink) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	return l.port.Close()
}
