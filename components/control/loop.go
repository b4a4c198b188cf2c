// Package control walks the robot along its plan: every tick it advances
// along the path, works out where each foot should be, solves the legs, and
// sends the resulting pose.
package control

import (
	"math"
	"sync"
	"time"

	"github.com/qdwalker/quadruped"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
	"github.com/qdwalker/quadruped/protocol"
	"github.com/qdwalker/quadruped/utils"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "control",
})

type State int

const (
	Paused State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}

	return "paused"
}

type Loop struct {
	q       *quadruped.Quadruped
	metrics *Metrics

	// Called (outside of the lock) after every update with the new
	// progression, e.g. to move a slider. Scrubs made from inside the
	// callback are ignored, so a slider can echo the value back.
	OnProgress func(float64)

	// Called (outside of the lock) after every update.
	OnUpdate func(Snapshot)

	echo Latch

	mu    sync.Mutex
	state State
	start time.Time
	last  time.Time

	// Distance walked along the path (mm), and that as a fraction of its
	// length.
	position    float64
	progression float64

	updates  uint64
	snapshot Snapshot
	datagram []byte
}

// New returns a paused loop. A nil metrics is allowed.
func New(q *quadruped.Quadruped, m *Metrics) *Loop {
	if m == nil {
		m = NewMetrics(nil)
	}

	return &Loop{
		q:       q,
		metrics: m,
		state:   Paused,
	}
}

// Boot starts the clock, and sends the pose for the start of the path.
func (l *Loop) Boot() error {
	l.mu.Lock()
	now := l.q.Clock.Now()
	l.start = now
	l.last = now
	l.position = 0
	l.progression = 0
	s := l.update(now)
	l.mu.Unlock()

	l.notify(s)

	if l.q.Config.Loop.Start {
		l.Resume()
	}

	return nil
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Resume starts (or restarts) walking from the current position. Time spent
// paused isn't counted.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = l.q.Clock.Now()
	if l.state != Running {
		log.Infof("resuming at progression=%0.4f", l.progression)
	}
	l.state = Running
}

func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Paused {
		log.Infof("pausing at progression=%0.4f", l.progression)
	}
	l.state = Paused
}

// Tick advances along the path by however far the robot should have walked
// since the last tick, then updates. It does nothing while paused.
func (l *Loop) Tick(now time.Time) error {
	l.mu.Lock()
	if l.state != Running {
		l.mu.Unlock()
		return nil
	}

	l.metrics.Ticks.Inc()
	c := l.q.Curve
	cfg := l.q.Config.Loop

	dt := now.Sub(l.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	l.last = now

	lookahead := cfg.Lookahead
	if lookahead <= 0 {
		lookahead = l.q.Plan.Config.StepLength
	}

	ahead := c.Parameters(c.TimeToArcLength(l.position + lookahead))
	f := l.q.Plan.Config.StrideFactor(ahead.Radius)

	l.position += dt * cfg.Speed * f
	l.progression = 0
	if c.Length() > 0 {
		l.progression = numeric.Clamp(l.position/c.Length(), 0, 1)
	}

	if excess := l.position - c.Length(); excess > 0 && excess/cfg.Speed > cfg.Grace.Seconds() {
		log.Info("reached the end of the path, starting over")
		l.metrics.Restarts.Inc()
		l.position = 0
		l.progression = 0
	}

	s := l.update(now)
	l.mu.Unlock()

	l.notify(s)
	return nil
}

// Scrub pauses the loop and jumps to fraction r of the path. It returns false
// if the scrub was ignored because it echoed the progression being reported
// to OnProgress.
func (l *Loop) Scrub(r float64) bool {
	if l.echo.Run(r) {
		return false
	}

	l.mu.Lock()
	if l.state != Paused {
		log.Infof("scrubbing to %0.4f, pausing", r)
	}
	l.state = Paused
	l.progression = numeric.Clamp(r, 0, 1)
	l.position = l.progression * l.q.Curve.Length()
	s := l.update(l.q.Clock.Now())
	l.mu.Unlock()

	l.notify(s)
	return true
}

// Snapshot returns a copy of the state after the most recent update.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Datagram returns a copy of the most recently encoded pose.
func (l *Loop) Datagram() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.datagram...)
}

// update computes and sends the pose for the current progression. The lock
// must be held.
func (l *Loop) update(now time.Time) Snapshot {
	plan := l.q.Plan
	robot := l.q.Robot

	index, phase := plan.Locate(l.progression)
	p := l.q.Reparameterizer.Parameters(l.progression)
	heading := math3d.HeadingOf(p.Tangent)
	com := plan.CenterOfMass(index, phase)
	swing := plan.At(index, phase)

	body := com.Add(math3d.J.Scale(robot.BodyHeight))
	local := swing.Stance.Localized(body, heading)
	robot.SetIKTargets(local[0], local[1], local[2], local[3])

	var unreachable [4]bool
	for _, c := range robot.Unreachable() {
		unreachable[c] = true
		l.metrics.Unreachable.WithLabelValues(c.String()).Inc()
		log.Warnf("%s: unreachable target %s", c, local[c])
	}

	ts := uint32(now.Sub(l.start) / time.Millisecond)
	l.datagram = protocol.EncodePose(robot.Pose(ts))
	if l.q.Link != nil {
		if err := l.q.Link.Send(l.datagram); err != nil {
			l.metrics.SendErrors.Inc()
			log.Errorf("send: %s", err)
		}
	}

	l.updates++
	l.metrics.Updates.Inc()
	l.metrics.Progression.Set(l.progression)
	l.metrics.StanceIndex.Set(float64(index))

	log.Debugf("update %d: progression=%0.4f stance=%d phase=%0.2f heading=%0.1f", l.updates, l.progression, index, phase, utils.Deg(heading))

	curvature := 0.0
	if !math.IsInf(p.Radius, 1) && p.Radius > 0 {
		curvature = 1 / p.Radius
	}

	hips, shoulders, elbows := robot.Angles()
	l.snapshot = Snapshot{
		Paused:       l.state == Paused,
		Updates:      l.updates,
		Timestamp:    ts,
		Position:     l.position,
		Progression:  l.progression,
		StanceIndex:  index,
		StancePhase:  phase,
		Point:        p.Position,
		Tangent:      p.Tangent,
		Heading:      heading,
		Curvature:    curvature,
		CenterOfMass: com,
		Stance:       swing.Stance,
		Lifts:        [2]float64{swing.FirstLift, swing.SecondLift},
		Targets:      local,
		Hips:         hips,
		Shoulders:    shoulders,
		Elbows:       elbows,
		Unreachable:  unreachable,
	}

	return l.snapshot
}

func (l *Loop) notify(s Snapshot) {
	if l.OnProgress != nil {
		l.echo.Arm(s.Progression)
		l.OnProgress(s.Progression)
		l.echo.Disarm()
	}

	if l.OnUpdate != nil {
		l.OnUpdate(s)
	}
}
