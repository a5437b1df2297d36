// Package session owns the lazily created, memoized connection to one
// device identity. Recovery operations invalidate the cached client;
// the next action re-establishes it. Retry policy lives in dispatch,
// not here.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/adb"
	"github.com/devicelab-dev/droidpilot/pkg/logger"
	"github.com/devicelab-dev/droidpilot/pkg/uia2"
)

// agentCommandTimeout keeps the remote agent from self-terminating
// between actions during week-long unattended runs.
const agentCommandTimeout = 604800 * time.Second

// Transport is the adb-level surface the session needs. Implemented by
// *adb.Device.
type Transport interface {
	Serial() string
	Reconnect() error
	SocketPath() string
	LocalPort() int
	IsAgentRunning() bool
	StartAgent(adb.AgentConfig) error
	StopAgent() error
	InstallAgent(apksDir string) error
	UninstallAgent() error
}

// Config for a device session.
type Config struct {
	Serial         string
	AgentAPKDir    string        // where InstallAgent finds the agent APKs
	DevicePort     int           // agent port on the device
	StartupTimeout time.Duration // how long to wait for the agent to come up
}

// Handle is the cached connection to one device serial. Not shared
// across serials; one Handle per device identity. Safe for the
// one-action-in-flight model this bot uses.
type Handle struct {
	cfg Config

	mu     sync.Mutex
	device Transport
	client *uia2.Client

	// openDevice creates the transport on first use; replaced in tests.
	openDevice func() (Transport, error)
	// openClient builds a client on an established transport; replaced in tests.
	openClient func(Transport) (*uia2.Client, error)
}

// New creates a Handle for the given device. No connection is made
// until the first Client call.
func New(cfg Config) *Handle {
	if cfg.DevicePort == 0 {
		cfg.DevicePort = 6790
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 30 * time.Second
	}

	h := &Handle{cfg: cfg}
	h.openDevice = func() (Transport, error) {
		return adb.New(cfg.Serial)
	}
	h.openClient = h.connectClient
	return h
}

// Client returns the memoized agent client, establishing the device
// transport and agent session on first call.
func (h *Handle) Client() (*uia2.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, nil
	}

	if err := h.ensureDeviceLocked(); err != nil {
		return nil, err
	}

	client, err := h.openClient(h.device)
	if err != nil {
		return nil, err
	}
	h.client = client
	return h.client, nil
}

// Device returns the memoized transport, creating it on first call.
func (h *Handle) Device() (Transport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureDeviceLocked(); err != nil {
		return nil, err
	}
	return h.device, nil
}

func (h *Handle) ensureDeviceLocked() error {
	if h.device != nil {
		return nil
	}
	device, err := h.openDevice()
	if err != nil {
		return err
	}
	h.device = device
	return nil
}

// connectClient brings the agent up and opens a session against it.
func (h *Handle) connectClient(device Transport) (*uia2.Client, error) {
	if !device.IsAgentRunning() {
		agentCfg := adb.DefaultAgentConfig()
		agentCfg.DevicePort = h.cfg.DevicePort
		agentCfg.Timeout = h.cfg.StartupTimeout

		if err := device.StartAgent(agentCfg); err != nil {
			// Agent APKs may be missing on a fresh device.
			if installErr := device.InstallAgent(h.cfg.AgentAPKDir); installErr != nil {
				return nil, fmt.Errorf("start agent: %w (install also failed: %v)", err, installErr)
			}
			if err := device.StartAgent(agentCfg); err != nil {
				return nil, fmt.Errorf("start agent after install: %w", err)
			}
		}
	}

	var client *uia2.Client
	if device.SocketPath() != "" {
		client = uia2.NewClient(device.SocketPath())
	} else {
		client = uia2.NewClientTCP(device.LocalPort())
	}

	if err := client.CreateSession(uia2.Capabilities{PlatformName: "android"}); err != nil {
		return nil, err
	}
	if err := client.SetCommandTimeout(agentCommandTimeout); err != nil {
		logger.Warn("failed to raise agent command timeout", "serial", device.Serial(), "err", err)
	}
	return client, nil
}

// Invalidate drops the cached client so the next action reconnects.
func (h *Handle) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client = nil
}

// Reconnect re-establishes the adb transport to the same device
// identity. Idempotent; does not itself retry.
func (h *Handle) Reconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.client = nil
	if h.device == nil {
		// Never connected; the next Client call starts from scratch.
		return nil
	}

	logger.Info("reconnecting device", "serial", h.device.Serial())
	return h.device.Reconnect()
}

// ReinstallAgent reprovisions the on-device automation agent, used when
// its responses are malformed. Idempotent; does not itself retry.
func (h *Handle) ReinstallAgent() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.client = nil
	if err := h.ensureDeviceLocked(); err != nil {
		return err
	}

	logger.Info("reinstalling automation agent", "serial", h.device.Serial())
	h.device.StopAgent()
	if err := h.device.UninstallAgent(); err != nil {
		logger.Warn("agent uninstall failed, installing over it", "err", err)
	}
	if err := h.device.InstallAgent(h.cfg.AgentAPKDir); err != nil {
		return err
	}

	agentCfg := adb.DefaultAgentConfig()
	agentCfg.DevicePort = h.cfg.DevicePort
	agentCfg.Timeout = h.cfg.StartupTimeout
	return h.device.StartAgent(agentCfg)
}

// Close tears down the session and stops the agent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		h.client.Close()
		h.client = nil
	}
	if h.device != nil {
		return h.device.StopAgent()
	}
	return nil
}
