package control

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/qdwalker/quadruped"
	"github.com/qdwalker/quadruped/config"
	"github.com/qdwalker/quadruped/fake/link"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/protocol"
	"github.com/qdwalker/quadruped/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var straight = []math3d.Vector4{
	{Z: 0},
	{Z: 1000},
	{Z: 2000},
	{Z: 3000},
}

type fixture struct {
	q    *quadruped.Quadruped
	clk  *clock.Mock
	link *link.FakeLink
	loop *Loop
	m    *Metrics
}

func setup(t *testing.T, path []math3d.Vector4) *fixture {
	cfg := config.Default()
	if path != nil {
		cfg.Path = path
	}

	clk := clock.NewMock()
	fl := link.New()
	q, err := quadruped.New(cfg, fl, clk)
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry())
	l := New(q, m)
	q.Add(l)
	require.NoError(t, q.Boot())

	return &fixture{q: q, clk: clk, link: fl, loop: l, m: m}
}

func (f *fixture) advance(t *testing.T, d time.Duration) {
	f.clk.Add(d)
	require.NoError(t, f.q.Tick(f.clk.Now()))
}

func lastPose(t *testing.T, f *fixture) protocol.PoseRecord {
	b := f.link.Last()
	require.Len(t, b, protocol.PoseDatagramSize)

	p, err := protocol.DecodePose(b)
	require.NoError(t, err)
	return p
}

func TestBootSendsInitialPose(t *testing.T) {
	f := setup(t, nil)

	assert.Equal(t, Paused, f.loop.State())
	assert.Len(t, f.link.Sent(), 1)

	s := f.loop.Snapshot()
	assert.True(t, s.Paused)
	assert.Equal(t, 0.0, s.Progression)
	assert.Equal(t, 0, s.StanceIndex)
	assert.Equal(t, uint64(1), s.Updates)

	p := lastPose(t, f)
	assert.Equal(t, protocol.TypePose, p.Type)
	assert.Equal(t, uint32(0), p.Timestamp)
}

func TestPausedTicksDoNothing(t *testing.T) {
	f := setup(t, straight)

	f.advance(t, time.Second)
	f.advance(t, time.Second)

	assert.Len(t, f.link.Sent(), 1)
	assert.Equal(t, 0.0, f.loop.Snapshot().Progression)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.m.Ticks))
}

func TestTickAdvances(t *testing.T) {
	f := setup(t, straight)
	f.loop.Resume()
	assert.Equal(t, Running, f.loop.State())

	f.advance(t, time.Second)

	// Straight paths walk at full speed.
	s := f.loop.Snapshot()
	assert.InDelta(t, 50, s.Position, 1e-9)
	assert.InDelta(t, 50/f.q.Curve.Length(), s.Progression, 1e-9)
	assert.False(t, s.Paused)
	assert.Equal(t, 0.0, s.Curvature)
	assert.InDelta(t, 0, s.Heading, 1e-9)

	p := lastPose(t, f)
	assert.Equal(t, uint32(1000), p.Timestamp)

	hips, shoulders, elbows := f.q.Robot.Angles()
	for i := range hips {
		assert.Equal(t, float32(hips[i]), p.Hips[i])
		assert.Equal(t, float32(shoulders[i]), p.Shoulders[i])
		assert.Equal(t, float32(elbows[i]), p.Elbows[i])
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.Ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.m.Updates))
}

func TestPauseStopsIntegration(t *testing.T) {
	f := setup(t, straight)
	f.loop.Resume()
	f.advance(t, time.Second)

	f.loop.Pause()
	f.advance(t, 10*time.Second)
	assert.InDelta(t, 50, f.loop.Snapshot().Position, 1e-9)

	// Time spent paused isn't walked.
	f.loop.Resume()
	f.advance(t, time.Second)
	assert.InDelta(t, 100, f.loop.Snapshot().Position, 1e-9)
}

func TestRestartAfterGrace(t *testing.T) {
	f := setup(t, straight)
	length := f.q.Curve.Length()
	f.loop.Resume()

	// 50mm past the end is one second; not long enough to start over.
	f.advance(t, time.Duration((length+50)/50*float64(time.Second)))
	s := f.loop.Snapshot()
	assert.Equal(t, 1.0, s.Progression)
	assert.InDelta(t, length+50, s.Position, 1e-6)
	assert.Equal(t, len(f.q.Plan.Stances)-1, s.StanceIndex)

	f.advance(t, 3*time.Second)
	s = f.loop.Snapshot()
	assert.Equal(t, 0.0, s.Position)
	assert.Equal(t, 0.0, s.Progression)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.Restarts))
}

func TestScrub(t *testing.T) {
	f := setup(t, nil)
	f.loop.Resume()

	require.True(t, f.loop.Scrub(0.5))
	assert.Equal(t, Paused, f.loop.State())

	s := f.loop.Snapshot()
	assert.True(t, s.Paused)
	assert.Equal(t, 0.5, s.Progression)
	assert.InDelta(t, f.q.Curve.Length()/2, s.Position, 1e-9)
	assert.Len(t, f.link.Sent(), 2)

	idx, phase := f.q.Plan.Locate(0.5)
	assert.Equal(t, idx, s.StanceIndex)
	assert.InDelta(t, phase, s.StancePhase, 1e-12)

	require.True(t, f.loop.Scrub(7))
	assert.Equal(t, 1.0, f.loop.Snapshot().Progression)
}

func TestScrubNaN(t *testing.T) {
	f := setup(t, nil)

	require.NotPanics(t, func() {
		require.True(t, f.loop.Scrub(math.NaN()))
	})

	s := f.loop.Snapshot()
	assert.Equal(t, 0.0, s.Progression)
	assert.Equal(t, 0.0, s.Position)
	assert.Equal(t, 0, s.StanceIndex)
}

func TestScrubEchoIsIgnored(t *testing.T) {
	f := setup(t, nil)

	var echoed []bool
	f.loop.OnProgress = func(p float64) {
		echoed = append(echoed, f.loop.Scrub(p))
	}

	require.True(t, f.loop.Scrub(0.25))
	assert.Equal(t, []bool{false}, echoed)
	assert.Equal(t, 0.25, f.loop.Snapshot().Progression)

	// Only one update was made: the echo didn't cause another.
	assert.Len(t, f.link.Sent(), 2)
}

func TestScrubFromElsewhereDuringCallback(t *testing.T) {
	f := setup(t, nil)

	var calls atomic.Int32
	var other bool
	f.loop.OnProgress = func(p float64) {
		if calls.Add(1) > 1 {
			return
		}

		// Another goroutine scrubs while the callback is running.
		done := make(chan bool)
		go func() { done <- f.loop.Scrub(0.75) }()
		other = <-done
	}

	require.True(t, f.loop.Scrub(0.25))
	assert.True(t, other)
	assert.Equal(t, 0.75, f.loop.Snapshot().Progression)
}

func TestOnUpdate(t *testing.T) {
	f := setup(t, straight)

	var got []Snapshot
	f.loop.OnUpdate = func(s Snapshot) {
		got = append(got, s)
	}

	f.loop.Resume()
	f.advance(t, time.Second)
	f.advance(t, time.Second)

	require.Len(t, got, 2)
	assert.True(t, got[1].Progression > got[0].Progression)
	assert.Equal(t, f.loop.Snapshot(), got[1])
}

func TestSendErrorsAreCounted(t *testing.T) {
	f := setup(t, straight)
	f.link.SendErr = errors.New("network unreachable")
	f.loop.Resume()

	f.advance(t, time.Second)
	f.advance(t, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.m.SendErrors))
	assert.InDelta(t, 100, f.loop.Snapshot().Position, 1e-9)
}

func TestStartImmediately(t *testing.T) {
	cfg := config.Default()
	cfg.Loop.Start = true

	q, err := quadruped.New(cfg, link.New(), clock.NewMock())
	require.NoError(t, err)

	l := New(q, nil)
	require.NoError(t, l.Boot())
	assert.Equal(t, Running, l.State())
}

// Walk the whole test path at the real frame rate.
func TestWalkWholePath(t *testing.T) {
	f := setup(t, nil)
	f.loop.Resume()

	period := f.q.Config.Loop.Period()
	now := f.clk.Now()
	last := 0.0
	index := 0

	for i := 0; i < 100000; i++ {
		now = now.Add(period)
		require.NoError(t, f.q.Tick(now))
		s := f.loop.Snapshot()

		require.True(t, s.Progression >= last, "tick %d went backwards", i)
		require.True(t, s.StanceIndex >= index, "tick %d went back a stance", i)
		last = s.Progression
		index = s.StanceIndex

		for leg := range s.Targets {
			require.True(t, utils.Finite(s.Hips[leg], s.Shoulders[leg], s.Elbows[leg]), "tick %d", i)
			require.False(t, math.IsNaN(s.Targets[leg].X), "tick %d", i)
		}

		if s.Progression == 1 {
			break
		}
	}

	assert.Equal(t, 1.0, last)
	assert.Equal(t, len(f.q.Plan.Stances)-1, index)
}

func TestLatch(t *testing.T) {
	var l Latch
	assert.False(t, l.Run(0))

	l.Arm(0.5)
	assert.True(t, l.Run(0.5))
	assert.False(t, l.Run(0.5))

	l.Arm(0.5)
	assert.False(t, l.Run(0.7))
	assert.True(t, l.Run(0.5))

	l.Arm(0.5)
	l.Disarm()
	assert.False(t, l.Run(0.5))
}

func TestDatagramWithoutLink(t *testing.T) {
	q, err := quadruped.New(config.Default(), nil, clock.NewMock())
	require.NoError(t, err)

	l := New(q, nil)
	require.NoError(t, l.Boot())

	b := l.Datagram()
	require.Len(t, b, protocol.PoseDatagramSize)

	p, err := protocol.DecodePose(b)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypePose, p.Type)
}
