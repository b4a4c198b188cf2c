package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/qdwalker/quadruped"
	"github.com/qdwalker/quadruped/components/control"
	"github.com/qdwalker/quadruped/components/feedback"
	"github.com/qdwalker/quadruped/config"
	"github.com/qdwalker/quadruped/viz"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "main",
})

func main() {
	app := &cli.App{
		Name:  "qd",
		Usage: "walk a quadruped along a path",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config, overlaid on the defaults",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every update",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "walk the path, sending poses to the robot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "start",
						Usage: "start walking immediately, rather than paused",
					},
					&cli.StringFlag{
						Name:  "viz",
						Usage: "address to serve geometry, snapshots and metrics on",
					},
				},
				Action: runAction,
			},
			{
				Name:   "plan",
				Usage:  "print the stances generated for the path",
				Action: planAction,
			},
			{
				Name:  "encode",
				Usage: "print the pose datagram at some point along the path",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  "progression",
						Usage: "fraction of the path walked",
					},
				},
				Action: encodeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}

	return config.Load(path)
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.Bool("start") {
		cfg.Loop.Start = true
	}
	if addr := c.String("viz"); addr != "" {
		cfg.Viz.Addr = addr
	}

	session := uuid.NewString()
	log = log.WithField("session", session)

	link, err := quadruped.Dial(cfg.Link)
	if err != nil {
		return errors.Wrap(err, "open link")
	}

	q, err := quadruped.New(cfg, link, clock.New())
	if err != nil {
		link.Close()
		return err
	}
	defer q.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	loop := control.New(q, control.NewMetrics(reg))
	fb := feedback.New(q.Clock)
	q.Add(loop)
	q.Add(fb)

	var server *viz.Server
	if cfg.Viz.Addr != "" {
		server, err = viz.New(q, session, reg)
		if err != nil {
			return err
		}
		loop.OnUpdate = server.Publish
	}

	log.Info("booting components")
	if err := q.Boot(); err != nil {
		return errors.Wrap(err, "boot")
	}

	// Catch both SIGINT (ctrl+c) and SIGTERM (kill/systemd), so the link is
	// closed cleanly.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return q.Run(ctx)
	})

	g.Go(func() error {
		return q.Link.Receive(ctx, fb.Handle)
	})

	if server != nil {
		g.Go(func() error {
			return server.ListenAndServe(ctx, cfg.Viz.Addr)
		})
	}

	err = g.Wait()
	log.Info("stopped")
	return err
}

func planAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	q, err := quadruped.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	fmt.Printf("curve length: %0.2fmm\n", q.Curve.Length())
	fmt.Printf("stances: %d\n\n", len(q.Plan.Stances))

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "index\tprogress\tstep\tcentroid x\tcentroid z\t")
	for i, s := range q.Plan.Stances {
		centroid := q.Plan.Centroids[i]
		fmt.Fprintf(w, "%d\t%0.4f\t%0.2f\t%0.2f\t%0.2f\t\n", i, s.Progress, s.StepSize, centroid.X, centroid.Z)
	}

	return w.Flush()
}

func encodeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	q, err := quadruped.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	loop := control.New(q, nil)
	if err := loop.Boot(); err != nil {
		return err
	}

	if c.IsSet("progression") {
		loop.Scrub(c.Float64("progression"))
	}

	s := loop.Snapshot()
	for i, u := range s.Unreachable {
		if u {
			log.Warnf("leg %d can't reach %s", i, s.Targets[i])
		}
	}

	fmt.Print(hex.Dump(loop.Datagram()))
	return nil
}
