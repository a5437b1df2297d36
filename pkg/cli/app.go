package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/droidpilot/pkg/config"
)

var appCommand = &cli.Command{
	Name:  "app",
	Usage: "Start, stop or inspect the app under control",
	Subcommands: []*cli.Command{
		{
			Name:      "start",
			Usage:     "Launch the app (configured package or explicit argument)",
			ArgsUsage: "[PACKAGE]",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				pkg, err := resolvePackage(c, cfg)
				if err != nil {
					return err
				}

				d, sess := newDriver(cfg)
				defer sess.Close()
				return d.AppStart(pkg)
			},
		},
		{
			Name:      "stop",
			Usage:     "Force-stop the app",
			ArgsUsage: "[PACKAGE]",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				pkg, err := resolvePackage(c, cfg)
				if err != nil {
					return err
				}

				d, sess := newDriver(cfg)
				defer sess.Close()
				return d.AppStop(pkg)
			},
		},
		{
			Name:  "current",
			Usage: "Print the foreground app",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}

				d, sess := newDriver(cfg)
				defer sess.Close()
				app, err := d.AppCurrent()
				if err != nil {
					return err
				}
				fmt.Printf("%s/%s (pid %d)\n", app.Package, app.Activity, app.PID)
				return nil
			},
		},
	},
}

func resolvePackage(c *cli.Context, cfg *config.Config) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	if cfg.Emulator.PackageName != "" {
		return cfg.Emulator.PackageName, nil
	}
	return "", fmt.Errorf("no package given; pass one or set emulator.packageName")
}
