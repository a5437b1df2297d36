package cli

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/droidpilot/pkg/gesture"
)

var tapCommand = &cli.Command{
	Name:      "tap",
	Usage:     "Tap a screen coordinate",
	ArgsUsage: "X Y",
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, "x", "y")
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		d, sess := newDriver(cfg)
		defer sess.Close()
		return d.Tap(args[0], args[1])
	},
}

var longPressCommand = &cli.Command{
	Name:      "longpress",
	Usage:     "Press and hold a screen coordinate",
	ArgsUsage: "X Y",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "How long to hold",
			Value: time.Second,
		},
	},
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, "x", "y")
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		d, sess := newDriver(cfg)
		defer sess.Close()
		return d.LongPress(args[0], args[1], c.Duration("duration"))
	},
}

var swipeCommand = &cli.Command{
	Name:      "swipe",
	Usage:     "Straight swipe between two coordinates using the agent's native gesture",
	ArgsUsage: "X1 Y1 X2 Y2",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "speed",
			Usage: "Swipe speed in pixels per second",
			Value: 1000,
		},
	},
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, "x1", "y1", "x2", "y2")
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		d, sess := newDriver(cfg)
		defer sess.Close()
		return d.Swipe(args[0], args[1], args[2], args[3], c.Int("speed"))
	},
}

var dragCommand = &cli.Command{
	Name:      "drag",
	Usage:     "Drag between two coordinates along a humanized path",
	ArgsUsage: "X1 Y1 X2 Y2",
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, "x1", "y1", "x2", "y2")
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		d, sess := newDriver(cfg)
		defer sess.Close()
		return d.Drag(
			gesture.Point{X: args[0], Y: args[1]},
			gesture.Point{X: args[2], Y: args[3]},
		)
	},
}
