// Package cli provides the command-line interface for droidpilot.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/droidpilot/pkg/config"
	"github.com/devicelab-dev/droidpilot/pkg/core"
	"github.com/devicelab-dev/droidpilot/pkg/dispatch"
	"github.com/devicelab-dev/droidpilot/pkg/driver"
	"github.com/devicelab-dev/droidpilot/pkg/gesture"
	"github.com/devicelab-dev/droidpilot/pkg/logger"
	"github.com/devicelab-dev/droidpilot/pkg/session"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: <home>/config.yaml)",
		EnvVars: []string{"DROIDPILOT_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "serial",
		Aliases: []string{"s"},
		Usage:   "Device serial (e.g. 127.0.0.1:5555 or emulator-5554)",
		EnvVars: []string{"DROIDPILOT_SERIAL"},
	},
	&cli.StringFlag{
		Name:    "package",
		Aliases: []string{"p"},
		Usage:   "App package for app commands",
		EnvVars: []string{"DROIDPILOT_PACKAGE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"DROIDPILOT_VERBOSE"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to this file in addition to stderr",
		EnvVars: []string{"DROIDPILOT_LOG_FILE"},
	},
}

// Execute runs the CLI.
func Execute() {
	// A .env next to the binary seeds the environment before flags
	// and config are resolved.
	godotenv.Load()

	app := &cli.App{
		Name:    "droidpilot",
		Usage:   "Drive an Android device over adb and its automation agent",
		Version: Version,
		Description: `Droidpilot sends taps, long-presses and humanized drags to a remote
Android device, with fault classification and automatic recovery for
unattended runs.

Examples:
  droidpilot tap 640 360
  droidpilot drag 100 800 100 200
  droidpilot -s 127.0.0.1:5555 app start
  droidpilot screenshot --out frame.png --scale 0.5`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			tapCommand,
			longPressCommand,
			swipeCommand,
			dragCommand,
			appCommand,
			dumpCommand,
			screenshotCommand,
			agentCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		var takeover *core.HumanTakeoverError
		if errors.As(err, &takeover) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", takeover)
			if takeover.Hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", takeover.Hint)
			}
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration, applies flag overrides, and sets
// up logging.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(config.GetHome())
	}
	if err != nil {
		return nil, err
	}

	if serial := c.String("serial"); serial != "" {
		cfg.Emulator.Serial = serial
	}
	if pkg := c.String("package"); pkg != "" {
		cfg.Emulator.PackageName = pkg
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if logFile := c.String("log-file"); logFile != "" {
		cfg.Log.Path = logFile
	}

	if err := logger.Init(cfg.Log.Path, parseLevel(cfg.Log.Level)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newDriver wires session, dispatcher and gesture tuning from config.
func newDriver(cfg *config.Config) (*driver.Driver, *session.Handle) {
	sess := session.New(session.Config{
		Serial:         cfg.Emulator.Serial,
		AgentAPKDir:    cfg.Agent.APKDir,
		DevicePort:     cfg.Agent.DevicePort,
		StartupTimeout: time.Duration(cfg.Agent.StartupTimeoutSeconds) * time.Second,
	})

	disp := dispatch.New(sess,
		dispatch.WithTries(cfg.Retry.Tries),
		dispatch.WithDelay(time.Duration(cfg.Retry.DelaySeconds)*time.Second),
	)

	opts := gesture.DefaultOptions()
	opts.Segments = cfg.Gesture.Segments
	opts.SwipeDuration = cfg.Gesture.SwipeDuration
	opts.ShakeDuration = cfg.Gesture.ShakeDuration

	return driver.New(sess, driver.WithDispatcher(disp), driver.WithGestureOptions(opts)), sess
}

// intArgs parses the first n positional arguments as integers.
func intArgs(c *cli.Context, names ...string) ([]int, error) {
	if c.NArg() < len(names) {
		return nil, fmt.Errorf("expected arguments: %v", names)
	}
	values := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(c.Args().Get(i))
		if err != nil {
			return nil, fmt.Errorf("argument %s must be an integer, got %q", name, c.Args().Get(i))
		}
		values[i] = v
	}
	return values, nil
}
