// Package config loads the settings for a walking session: the path to walk,
// the shape of the robot, the gait, and how to reach the robot.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/qdwalker/quadruped/components/legs"
	"github.com/qdwalker/quadruped/components/legs/gait"
	"github.com/qdwalker/quadruped/curve"
	"github.com/qdwalker/quadruped/math3d"
	"github.com/qdwalker/quadruped/numeric"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	LinkUDP    = "udp"
	LinkSerial = "serial"
)

type Config struct {
	// Control points of the path, in the XZ plane.
	Path []math3d.Vector4 `yaml:"path"`

	Robot legs.Geometry `yaml:"robot"`
	Gait  gait.Config   `yaml:"gait"`
	Loop  Loop          `yaml:"loop"`
	Link  Link          `yaml:"link"`
	Viz   Viz           `yaml:"viz"`
}

type Loop struct {
	FPS float64 `yaml:"fps"`

	// Walking speed along the path, in mm/s.
	Speed float64 `yaml:"speed"`

	// How long to linger at the end of the path before starting over.
	Grace time.Duration `yaml:"grace"`

	// How far ahead of the body to look when choosing the stride. Zero means
	// one step length.
	Lookahead float64 `yaml:"lookahead"`

	// Intervals in the arc length lookup table.
	Resolution int `yaml:"resolution"`

	// Space the lookup table by Sigmoid, so it is denser near either end of
	// the path, where the robot starts and stops.
	Sigmoidal bool `yaml:"sigmoidal"`

	QuadraturePoints int `yaml:"quadrature_points"`

	// Number of goroutines to evaluate quadrature nodes on. Zero is serial.
	Concurrent int `yaml:"concurrent"`

	// Start walking immediately, rather than waiting to be resumed.
	Start bool `yaml:"start"`
}

type Link struct {
	Kind string `yaml:"kind"`

	// For UDP.
	Remote    string `yaml:"remote"`
	LocalPort int    `yaml:"local_port"`

	// For serial.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type Viz struct {
	// Address to serve the snapshot feed on. Empty disables it.
	Addr string `yaml:"addr"`
}

// TestPath winds around a 1.6m square.
var TestPath = []math3d.Vector4{
	{X: -800, Z: -800},
	{X: -800, Z: 300},
	{X: 300, Z: 300},
	{X: 300, Z: -300},
	{X: -200, Z: -300},
	{X: -200, Z: -750},
	{X: -150, Z: -800},
	{X: 800, Z: -800},
	{X: 800, Z: 0},
	{X: 800, Z: 700},
	{X: 700, Z: 800},
	{X: -800, Z: 800},
}

func Default() Config {
	return Config{
		Path:  append([]math3d.Vector4(nil), TestPath...),
		Robot: legs.DefaultGeometry(),
		Gait:  gait.DefaultConfig(),
		Loop: Loop{
			FPS:              15,
			Speed:            50,
			Grace:            3 * time.Second,
			Resolution:       curve.DefaultResolution,
			QuadraturePoints: numeric.DefaultQuadraturePoints,
		},
		Link: Link{
			Kind:      LinkUDP,
			Remote:    "192.168.4.1:3567",
			LocalPort: 3567,
			Device:    "/dev/ttyUSB0",
			Baud:      115200,
		},
	}
}

// Load reads a YAML file over the defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	if err := Parse(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "load %s", path)
	}

	return cfg, nil
}

// Parse overlays YAML onto cfg, and validates the result.
func Parse(b []byte, cfg *Config) error {
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return errors.Wrap(err, "parse config")
	}

	return cfg.Validate()
}

// Validate returns every problem with the config, or nil.
func (c Config) Validate() error {
	var err error

	if len(c.Path) < curve.MinControlPoints {
		err = multierr.Append(err, errors.Errorf("path: need at least %d points, got %d", curve.MinControlPoints, len(c.Path)))
	}

	if c.Robot.HipToShoulder <= 0 || c.Robot.ShoulderToElbow <= 0 || c.Robot.ElbowToToe <= 0 {
		err = multierr.Append(err, errors.Wrap(legs.ErrInvalidLength, "robot"))
	}
	if c.Gait.StepLength <= 0 {
		err = multierr.Append(err, errors.Wrap(gait.ErrInvalidStepLength, "gait"))
	}
	if c.Gait.MaxCurvature <= c.Gait.MinCurvature {
		err = multierr.Append(err, errors.New("gait: max curvature must exceed min curvature"))
	}

	if !(c.Loop.FPS > 0) {
		err = multierr.Append(err, errors.Errorf("loop: fps must be positive, got %v", c.Loop.FPS))
	}
	if !(c.Loop.Speed > 0) {
		err = multierr.Append(err, errors.Errorf("loop: speed must be positive, got %v", c.Loop.Speed))
	}
	if c.Loop.Grace < 0 {
		err = multierr.Append(err, errors.Errorf("loop: grace can't be negative, got %s", c.Loop.Grace))
	}
	if c.Loop.QuadraturePoints < 2 {
		err = multierr.Append(err, errors.Errorf("loop: need at least 2 quadrature points, got %d", c.Loop.QuadraturePoints))
	}

	switch c.Link.Kind {
	case LinkUDP:
		if c.Link.Remote == "" {
			err = multierr.Append(err, errors.New("link: udp needs a remote address"))
		}
	case LinkSerial:
		if c.Link.Device == "" {
			err = multierr.Append(err, errors.New("link: serial needs a device"))
		}
	default:
		err = multierr.Append(err, errors.Errorf("link: unknown kind %q", c.Link.Kind))
	}

	return err
}

// Period is the time between ticks of the control loop.
func (l Loop) Period() time.Duration {
	return time.Duration(float64(time.Second) / l.FPS)
}
