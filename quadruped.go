// Package quadruped walks a four-legged robot along a smooth path. A session
// is built from a config: the path becomes a curve, the curve becomes a plan
// of stances, and components tick along it, sending poses to the robot.
package quadruped

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/components/legs/gait"
	"github.com/qdwalker/quadruped/config"
	"github.com/qdwalker/quadruped/curve"
	"github.com/qdwalker/quadruped/numeric"
	"github.com/qdwalker/quadruped/protocol"
	"github.com/qdwalker/quadruped/transport"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "quadruped",
})

type Component interface {
	Boot() error
	Tick(time.Time) error
}

// Quadruped owns everything built for one walking session. None of it is
// global, so tests can build as many as they like.
type Quadruped struct {
	Config config.Config
	Clock  clock.Clock

	Curve           *curve.Curve
	Reparameterizer *curve.Reparameterizer
	Plan            *gait.Plan
	Robot           *legs.Robot
	Link            transport.Link

	Components []Component
}

// New builds the curve, plan and robot described by cfg. The link is owned by
// the Quadruped from now on, and closed by Close.
func New(cfg config.Config, link transport.Link, clk clock.Clock) (*Quadruped, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c, err := curve.New(cfg.Path, curve.WithQuadrature(numeric.Quadrature{
		Points:     cfg.Loop.QuadraturePoints,
		Concurrent: cfg.Loop.Concurrent,
	}))
	if err != nil {
		return nil, errors.Wrap(err, "build curve")
	}

	plan, err := gait.Generate(c, cfg.Gait)
	if err != nil {
		return nil, errors.Wrap(err, "generate stances")
	}

	robot, err := legs.NewRobot(cfg.Robot)
	if err != nil {
		return nil, errors.Wrap(err, "build robot")
	}

	if clk == nil {
		clk = clock.New()
	}

	log.Infof("curve length=%0.2fmm, %d stances", c.Length(), len(plan.Stances))

	reparam := curve.NewReparameterizer(c, cfg.Loop.Resolution)
	if cfg.Loop.Sigmoidal {
		reparam = curve.NewSigmoidalReparameterizer(c, cfg.Loop.Resolution)
	}

	return &Quadruped{
		Config:          cfg,
		Clock:           clk,
		Curve:           c,
		Reparameterizer: reparam,
		Plan:            plan,
		Robot:           robot,
		Link:            link,
		Components:      []Component{},
	}, nil
}

// Dial opens the link described by cfg.
func Dial(cfg config.Link) (transport.Link, error) {
	switch cfg.Kind {
	case config.LinkUDP:
		l, err := transport.NewUDPLink(transport.UDPConfig{
			Remote:    cfg.Remote,
			LocalPort: cfg.LocalPort,
		})
		if err != nil {
			return nil, err
		}
		return l, nil

	case config.LinkSerial:
		l, err := transport.NewSerialLink(transport.SerialConfig{
			Device:    cfg.Device,
			Baud:      cfg.Baud,
			FrameSize: protocol.FeedbackSize,
		})
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	return nil, errors.Errorf("unknown link kind: %q", cfg.Kind)
}

// Add registers a component to receive ticks every frame.
func (q *Quadruped) Add(c Component) {
	q.Components = append(q.Components, c)
}

// Boot calls Boot on each component, stopping at the first error.
func (q *Quadruped) Boot() error {
	for _, c := range q.Components {
		err := c.Boot()
		if err != nil {
			return err
		}
	}

	return nil
}

// Tick calls Tick on each component. Every component is ticked, even when an
// earlier one fails.
func (q *Quadruped) Tick(now time.Time) error {
	var err error
	for _, c := range q.Components {
		err = multierr.Append(err, c.Tick(now))
	}

	return err
}

// Run ticks the components at the configured rate until ctx is done.
func (q *Quadruped) Run(ctx context.Context) error {
	t := q.Clock.Ticker(q.Config.Loop.Period())
	defer t.Stop()

	log.Infof("running at %0.1f fps", q.Config.Loop.FPS)

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return nil

		case now := <-t.C:
			if err := q.Tick(now); err != nil {
				log.Errorf("tick: %s", err)
			}
		}
	}
}

// Close closes the link, if there is one.
func (q *Quadruped) Close() error {
	if q.Link == nil {
		return nil
	}

	return q.Link.Close()
}
