package link

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/transport"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithFields(logrus.Fields{
	"pkg": "fake/link",
})

// FakeLink records everything sent to it, and delivers whatever is injected to
// its receiver. It satisfies transport.Link.
type FakeLink struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool

	// When set, Send fails with this error (and records nothing).
	SendErr error

	incoming chan []byte
}

func New() *FakeLink {
	return &FakeLink{
		incoming: make(chan []byte, 64),
	}
}

func (l *FakeLink) Send(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return transport.ErrClosed
	}
	if l.SendErr != nil {
		return l.SendErr
	}

	logger.Debugf("send: %d bytes", len(b))
	l.sent = append(l.sent, append([]byte(nil), b...))
	return nil
}

// ErrQueueFull is returned by Inject when the receiver has fallen behind.
var ErrQueueFull = errors.New("incoming queue full")

// Inject queues a datagram for the receiver. It never blocks.
func (l *FakeLink) Inject(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return transport.ErrClosed
	}

	select {
	case l.incoming <- append([]byte(nil), b...):
		return nil
	default:
		return ErrQueueFull
	}
}

func (l *FakeLink) Receive(ctx context.Context, h transport.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-l.incoming:
			if !ok {
				return nil
			}
			logger.Debugf("receive: %d bytes", len(b))
			h(b, nil)
		}
	}
}

func (l *FakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		close(l.incoming)
	}

	return nil
}

// Sent returns a copy of every datagram sent so far.
func (l *FakeLink) Sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([][]byte(nil), l.sent...)
}

// Last returns the most recent datagram, or nil.
func (l *FakeLink) Last() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.sent) == 0 {
		return nil
	}

	return l.sent[len(l.sent)-1]
}
