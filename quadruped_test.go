package quadruped

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/config"
	"github.com/qdwalker/quadruped/curve"
	"github.com/qdwalker/quadruped/fake/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type counter struct {
	mu      sync.Mutex
	booted  bool
	ticks   int
	bootErr error
	tickErr error
}

func (c *counter) Boot() error {
	c.booted = true
	return c.bootErr
}

func (c *counter) Tick(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.tickErr
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

func testQuadruped(t *testing.T) (*Quadruped, *clock.Mock) {
	clk := clock.NewMock()
	q, err := New(config.Default(), link.New(), clk)
	require.NoError(t, err)
	return q, clk
}

func TestNew(t *testing.T) {
	q, _ := testQuadruped(t)

	assert.True(t, q.Curve.Length() > 0)
	assert.True(t, len(q.Plan.Stances) > 2)
	assert.Equal(t, 100, q.Reparameterizer.Resolution())
	assert.Equal(t, 80.0, q.Robot.BodyHeight)
	assert.NoError(t, q.Close())
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Path = cfg.Path[:2]

	_, err := New(cfg, link.New(), nil)
	assert.Error(t, err)
}

func TestNewZeroLengthPath(t *testing.T) {
	cfg := config.Default()
	for i := range cfg.Path {
		cfg.Path[i] = cfg.Path[0]
	}

	_, err := New(cfg, link.New(), nil)
	assert.ErrorIs(t, err, curve.ErrZeroLength)
}

func TestNewSigmoidal(t *testing.T) {
	cfg := config.Default()
	cfg.Loop.Sigmoidal = true

	q, err := New(cfg, link.New(), nil)
	require.NoError(t, err)

	u := q.Curve.TimeToArcLength(0.004 * q.Curve.Length())
	assert.InDelta(t, u, q.Reparameterizer.MappedTime(0.004), 1e-3)
}

func TestDialUnknown(t *testing.T) {
	_, err := Dial(config.Link{Kind: "smoke-signals"})
	assert.Error(t, err)
}

func TestBoot(t *testing.T) {
	q, _ := testQuadruped(t)
	a := &counter{}
	b := &counter{bootErr: errors.New("broken")}
	c := &counter{}
	q.Add(a)
	q.Add(b)
	q.Add(c)

	assert.Error(t, q.Boot())
	assert.True(t, a.booted)
	assert.True(t, b.booted)
	assert.False(t, c.booted)
}

func TestTickAll(t *testing.T) {
	q, clk := testQuadruped(t)
	a := &counter{tickErr: errors.New("one")}
	b := &counter{}
	c := &counter{tickErr: errors.New("two")}
	q.Add(a)
	q.Add(b)
	q.Add(c)

	err := q.Tick(clk.Now())
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, c.count())
}

func TestRun(t *testing.T) {
	q, clk := testQuadruped(t)
	c := &counter{}
	q.Add(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		clk.Add(q.Config.Loop.Period())
		return c.count() >= 3
	}, 5*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run didn't stop")
	}
}
