package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/droidpilot/pkg/config"
	"github.com/devicelab-dev/droidpilot/pkg/hierarchy"
	"github.com/devicelab-dev/droidpilot/pkg/screenshot"
)

var dumpCommand = &cli.Command{
	Name:  "dump",
	Usage: "Print the UI hierarchy of the connected device",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "find-text",
			Usage: "Only print elements whose text matches",
		},
		&cli.StringFlag{
			Name:  "find-id",
			Usage: "Only print elements whose resource-id matches",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		d, sess := newDriver(cfg)
		defer sess.Close()
		roots, err := d.DumpHierarchy()
		if err != nil {
			return err
		}

		elements := roots
		if text := c.String("find-text"); text != "" {
			elements = hierarchy.FindByText(roots, text)
		} else if id := c.String("find-id"); id != "" {
			elements = hierarchy.FindByResourceID(roots, id)
		}

		if c.IsSet("find-text") || c.IsSet("find-id") {
			for _, e := range elements {
				x, y := e.Bounds.Center()
				fmt.Printf("%s text=%q id=%q center=(%d,%d)\n", e.ClassName, e.Text, e.ResourceID, x, y)
			}
			return nil
		}

		printTree(elements, 0)
		return nil
	},
}

func printTree(elements []*hierarchy.Element, indent int) {
	for _, e := range elements {
		var desc []string
		if e.Text != "" {
			desc = append(desc, fmt.Sprintf("text=%q", e.Text))
		}
		if e.ResourceID != "" {
			desc = append(desc, fmt.Sprintf("id=%q", e.ResourceID))
		}
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", indent), e.ClassName, strings.Join(desc, " "))
		printTree(e.Children, indent+1)
	}
}

var screenshotCommand = &cli.Command{
	Name:  "screenshot",
	Usage: "Capture the screen to a PNG file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output path (default: <home>/screenshots/<timestamp>.png)",
		},
		&cli.Float64Flag{
			Name:  "scale",
			Usage: "Downscale factor, e.g. 0.5 for half size",
			Value: 1,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		out := c.String("out")
		if out == "" {
			dir := config.GetScreenshotDir()
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			out = filepath.Join(dir, time.Now().Format("20060102-150405")+".png")
		}

		d, sess := newDriver(cfg)
		defer sess.Close()

		scale := c.Float64("scale")
		if scale == 1 {
			data, err := d.Screenshot()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return err
			}
		} else {
			img, err := d.ScreenshotImage()
			if err != nil {
				return err
			}
			if err := screenshot.SavePNG(out, screenshot.Scale(img, scale)); err != nil {
				return err
			}
		}

		fmt.Println(out)
		return nil
	},
}
