// Package feedback keeps track of what the robot reports back: the angles its
// joints actually reached, and the orientation of its body.
package feedback

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/protocol"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "feedback",
})

// StaleAfter is how long the robot can go quiet before a warning is logged.
const StaleAfter = 5 * time.Second

type Monitor struct {
	clock clock.Clock

	// Optional. Mirrors the reported angles, for display only. Nothing plans
	// with it.
	Mirror *legs.Robot

	mu       sync.Mutex
	booted   time.Time
	last     protocol.FeedbackRecord
	received time.Time
	count    uint64
	errors   uint64
	warned   bool
}

func New(clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.New()
	}

	return &Monitor{
		clock: clk,
	}
}

func (m *Monitor) Boot() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.booted = m.clock.Now()
	return nil
}

// Tick warns (once per silence) when nothing has been heard from the robot
// for a while.
func (m *Monitor) Tick(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	since := m.received
	if since.IsZero() {
		since = m.booted
	}

	if now.Sub(since) > StaleAfter {
		if !m.warned {
			log.Warnf("no feedback from robot for %s", now.Sub(since).Round(time.Second))
			m.warned = true
		}
	}

	return nil
}

// Handle is a transport.Handler for feedback datagrams.
func (m *Monitor) Handle(b []byte, err error) {
	if err != nil {
		m.fail(err)
		return
	}

	rec, err := protocol.DecodeFeedback(b)
	if err != nil {
		m.fail(err)
		return
	}

	if rec.Type != protocol.TypeFeedback {
		log.Debugf("ignoring record of type %d", rec.Type)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.warned {
		log.Info("feedback resumed")
		m.warned = false
	}

	m.last = rec
	m.received = m.clock.Now()
	m.count++

	if m.Mirror != nil {
		m.Mirror.ExtractAngles(rec)
	}
}

func (m *Monitor) fail(err error) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()

	log.Errorf("receive: %s", err)
}

// Last returns the most recent record, and when it arrived. The time is zero
// if nothing has arrived yet.
func (m *Monitor) Last() (protocol.FeedbackRecord, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.received
}

// Counts returns the number of records received, and of errors.
func (m *Monitor) Counts() (uint64, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, m.errors
}

// Stale returns true if the robot has been quiet for longer than StaleAfter.
func (m *Monitor) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warned
}
