package transport

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	// MaxDatagramSize is the largest datagram which will be received.
	MaxDatagramSize = 1024

	// How often a blocked read wakes up to check whether it should stop.
	defaultReadTimeout = 250 * time.Millisecond
)

type UDPConfig struct {
	Remote      string
	LocalPort   int
	ReadTimeout time.Duration
}

// UDPLink sends datagrams to the robot from an ephemeral port, and listens for
// its feedback on a fixed local port.
type UDPLink struct {
	out *net.UDPConn
	in  *net.UDPConn

	readTimeout time.Duration
	closed      atomic.Bool
}

func NewUDPLink(cfg UDPConfig) (*UDPLink, error) {
	remote, err := net.ResolveUDPAddr("udp", cfg.Remote)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", cfg.Remote)
	}

	out, err := net.DialUDP("udp", nil, remote)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", remote)
	}

	in, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.LocalPort})
	if err != nil {
		out.Close()
		return nil, errors.Wrapf(err, "listen on port %d", cfg.LocalPort)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}

	log.Infof("udp link: sending to %s, listening on %s", remote, in.LocalAddr())

	return &UDPLink{
		out:         out,
		in:          in,
		readTimeout: timeout,
	}, nil
}

// LocalAddr returns the address feedback is received on.
func (l *UDPLink) LocalAddr() *net.UDPAddr {
	return l.in.LocalAddr().(*net.UDPAddr)
}

func (l *UDPLink) Send(b []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}

	n, err := l.out.Write(b)
	if err != nil {
		return errors.Wrap(err, "udp send")
	}
	if n != len(b) {
		return errors.Errorf("udp send: wrote %d of %d bytes", n, len(b))
	}

	return nil
}

func (l *UDPLink) Receive(ctx context.Context, h Handler) error {
	buf := make([]byte, MaxDatagramSize)

	for {
		if ctx.Err() != nil || l.closed.Load() {
			return nil
		}

		if err := l.in.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
			return errors.Wrap(err, "set read deadline")
		}

		n, _, err := l.in.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if l.closed.Load() {
				return nil
			}

			h(nil, errors.Wrap(err, "udp receive"))
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		h(payload, nil)
	}
}

func (l *UDPLink) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	err1 := l.out.Close()
	err2 := l.in.Close()
	if err1 != nil {
		return err1
	}

	return err2
}
