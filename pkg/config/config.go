// Package config handles configuration for droidpilot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/droidpilot/pkg/core"
)

// EmulatorConfig selects the device and the app under control.
type EmulatorConfig struct {
	Serial      string `yaml:"serial"`      // adb serial, e.g. 127.0.0.1:5555 or emulator-5554
	PackageName string `yaml:"packageName"` // app package to start and stop
}

// RetryConfig tunes the fault dispatcher.
type RetryConfig struct {
	Tries        uint `yaml:"tries"`        // attempts per action
	DelaySeconds int  `yaml:"delaySeconds"` // fixed pause between attempts
}

// GestureConfig tunes drag path synthesis.
type GestureConfig struct {
	Segments      int     `yaml:"segments"`      // interpolation steps between the endpoints
	SwipeDuration float64 `yaml:"swipeDuration"` // seconds to hold each interpolated waypoint
	ShakeDuration float64 `yaml:"shakeDuration"` // seconds to hold each settle waypoint
}

// AgentConfig locates and provisions the on-device automation agent.
type AgentConfig struct {
	APKDir                string `yaml:"apkDir"`                // where the agent APKs live
	DevicePort            int    `yaml:"devicePort"`            // agent port on the device
	StartupTimeoutSeconds int    `yaml:"startupTimeoutSeconds"` // how long to wait for the agent
}

// LogConfig controls log output.
type LogConfig struct {
	Path  string `yaml:"path"`  // log file; empty means stderr only
	Level string `yaml:"level"` // debug, info, warn, error
}

// Config represents the workspace configuration (config.yaml).
type Config struct {
	Emulator EmulatorConfig `yaml:"emulator"`
	Retry    RetryConfig    `yaml:"retry"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Agent    AgentConfig    `yaml:"agent"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a configuration with the tunings unattended runs use.
func Default() *Config {
	return &Config{
		Retry: RetryConfig{
			Tries:        5,
			DelaySeconds: 3,
		},
		Gesture: GestureConfig{
			Segments:      1,
			SwipeDuration: 0.25,
			ShakeDuration: 0.1,
		},
		Agent: AgentConfig{
			APKDir:                filepath.Join(GetHome(), "agent"),
			DevicePort:            6790,
			StartupTimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithDetails(map[string]interface{}{"path": path}).WithCause(err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// No file at all is fine; defaults plus environment overrides apply.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the environment override file settings, so one
// workspace config can drive several emulator instances.
func (c *Config) applyEnv() {
	if serial := os.Getenv("DROIDPILOT_SERIAL"); serial != "" {
		c.Emulator.Serial = serial
	}
	if pkg := os.Getenv("DROIDPILOT_PACKAGE"); pkg != "" {
		c.Emulator.PackageName = pkg
	}
	if tries := os.Getenv("DROIDPILOT_RETRY_TRIES"); tries != "" {
		if n, err := strconv.Atoi(tries); err == nil && n > 0 {
			c.Retry.Tries = uint(n)
		}
	}
	if level := os.Getenv("DROIDPILOT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate rejects settings the dispatcher or session cannot work with.
func (c *Config) Validate() error {
	if c.Retry.Tries == 0 {
		return core.ErrInvalidConfig.WithMessage("retry.tries must be at least 1")
	}
	if c.Retry.DelaySeconds < 0 {
		return core.ErrInvalidConfig.WithMessage("retry.delaySeconds must not be negative")
	}
	if c.Gesture.Segments < 1 {
		return core.ErrInvalidConfig.WithMessage("gesture.segments must be at least 1")
	}
	if c.Agent.DevicePort <= 0 || c.Agent.DevicePort > 65535 {
		return core.ErrInvalidConfig.WithMessage(
			fmt.Sprintf("agent.devicePort %d is out of range", c.Agent.DevicePort))
	}
	return nil
}
