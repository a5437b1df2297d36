package cli

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/droidpilot/pkg/adb"
	"github.com/devicelab-dev/droidpilot/pkg/config"
	"github.com/devicelab-dev/droidpilot/pkg/session"
)

var agentCommand = &cli.Command{
	Name:  "agent",
	Usage: "Manage the on-device automation agent",
	Subcommands: []*cli.Command{
		{
			Name:  "install",
			Usage: "Install the agent APKs on the device",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				device, err := openDevice(cfg)
				if err != nil {
					return err
				}
				return device.InstallAgent(cfg.Agent.APKDir)
			},
		},
		{
			Name:  "uninstall",
			Usage: "Remove the agent from the device",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				device, err := openDevice(cfg)
				if err != nil {
					return err
				}
				return device.UninstallAgent()
			},
		},
		{
			Name:  "start",
			Usage: "Start the agent",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				device, err := openDevice(cfg)
				if err != nil {
					return err
				}

				agentCfg := adb.DefaultAgentConfig()
				agentCfg.DevicePort = cfg.Agent.DevicePort
				agentCfg.Timeout = time.Duration(cfg.Agent.StartupTimeoutSeconds) * time.Second
				return device.StartAgent(agentCfg)
			},
		},
		{
			Name:  "stop",
			Usage: "Stop the agent",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				device, err := openDevice(cfg)
				if err != nil {
					return err
				}
				return device.StopAgent()
			},
		},
		{
			Name:  "status",
			Usage: "Report whether the agent is running",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				device, err := openDevice(cfg)
				if err != nil {
					return err
				}

				if device.IsAgentRunning() {
					fmt.Println("running")
				} else {
					fmt.Println("stopped")
				}
				return nil
			},
		},
	},
}

// openDevice connects the adb transport without bringing up a full
// agent session.
func openDevice(cfg *config.Config) (session.Transport, error) {
	sess := session.New(session.Config{
		Serial:         cfg.Emulator.Serial,
		AgentAPKDir:    cfg.Agent.APKDir,
		DevicePort:     cfg.Agent.DevicePort,
		StartupTimeout: time.Duration(cfg.Agent.StartupTimeoutSeconds) * time.Second,
	})
	return sess.Device()
}
