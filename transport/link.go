// Package transport moves datagrams between this program and the robot's
// embedded controller.
package transport

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "transport",
})

var ErrClosed = errors.New("link closed")

// Handler is called once for each datagram received, or for each error
// encountered while receiving. The payload is owned by the handler.
type Handler func(payload []byte, err error)

// Link is a bidirectional datagram channel to the robot.
type Link interface {
	// Send writes one datagram. It doesn't wait for a reply.
	Send(b []byte) error

	// Receive calls h for everything which arrives, until ctx is done or the
	// link is closed.
	Receive(ctx context.Context, h Handler) error

	Close() error
}
