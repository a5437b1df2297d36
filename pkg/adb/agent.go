package adb

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Automation agent package names (Appium UIAutomator2 server).
const (
	AgentServerPackage = "io.appium.uiautomator2.server"
	AgentTestPackage   = "io.appium.uiautomator2.server.test"
	AgentSettingsPkg   = "io.appium.settings"
)

// Port range for TCP forwarding when Unix sockets are unavailable.
const (
	portRangeStart = 6001
	portRangeEnd   = 7001
)

// AgentConfig holds configuration for the on-device automation agent.
type AgentConfig struct {
	SocketPath string        // Unix socket path (default: /tmp/droidpilot-<serial>.sock)
	LocalPort  int           // TCP port (Windows only, default: auto-find free port)
	DevicePort int           // Agent port on the device (default: 6790)
	Timeout    time.Duration // Startup timeout (default: 30s)
}

// DefaultAgentConfig returns default agent configuration.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		DevicePort: 6790,
		Timeout:    30 * time.Second,
	}
}

// DefaultSocketPath returns the default Unix socket path for this device.
func (d *Device) DefaultSocketPath() string {
	return fmt.Sprintf("/tmp/droidpilot-%s.sock", strings.ReplaceAll(d.serial, ":", "-"))
}

// StartAgent starts the automation agent on the device and waits until
// it answers health checks.
func (d *Device) StartAgent(cfg AgentConfig) error {
	if !d.IsInstalled(AgentServerPackage) {
		return fmt.Errorf("automation agent not installed: %s", AgentServerPackage)
	}
	if !d.IsInstalled(AgentTestPackage) {
		return fmt.Errorf("automation agent test APK not installed: %s", AgentTestPackage)
	}

	// Stop any existing instance
	d.StopAgent()

	if runtime.GOOS == "windows" {
		if err := d.setupTCPForward(cfg); err != nil {
			return err
		}
	} else {
		if err := d.setupSocketForward(cfg); err != nil {
			return err
		}
	}

	// Background the instrumentation; without nohup the shell call
	// blocks until the agent exits.
	instrumentCmd := fmt.Sprintf(
		"nohup am instrument -w -e disableAnalytics true "+
			"%s/androidx.test.runner.AndroidJUnitRunner "+
			"> /dev/null 2>&1 &",
		AgentTestPackage,
	)
	if _, err := d.Shell(instrumentCmd); err != nil {
		return fmt.Errorf("failed to start agent instrumentation: %w", err)
	}

	if err := d.waitForAgentReady(cfg.Timeout); err != nil {
		d.StopAgent()
		return err
	}

	logger.Info("agent started", "serial", d.serial)
	return nil
}

// setupSocketForward sets up Unix socket forwarding (Linux/Mac).
func (d *Device) setupSocketForward(cfg AgentConfig) error {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = d.DefaultSocketPath()
	}

	// Remove stale socket file
	os.Remove(socketPath)

	if err := d.ForwardSocket(socketPath, cfg.DevicePort); err != nil {
		return fmt.Errorf("socket forward failed: %w", err)
	}
	d.socketPath = socketPath
	return nil
}

// setupTCPForward sets up TCP port forwarding (Windows).
func (d *Device) setupTCPForward(cfg AgentConfig) error {
	localPort := cfg.LocalPort
	if localPort == 0 {
		port, err := findFreePort(portRangeStart, portRangeEnd)
		if err != nil {
			return err
		}
		localPort = port
	}

	if err := d.Forward(localPort, cfg.DevicePort); err != nil {
		return fmt.Errorf("port forward failed: %w", err)
	}
	d.localPort = localPort
	return nil
}

// findFreePort finds a free TCP port in the given range.
func findFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port found in range %d-%d", start, end)
}

// StopAgent stops the automation agent and cleans up forwards.
func (d *Device) StopAgent() error {
	d.Shell("am force-stop " + AgentServerPackage)
	d.Shell("am force-stop " + AgentTestPackage)

	// Give processes time to die
	time.Sleep(300 * time.Millisecond)

	if d.socketPath != "" {
		d.RemoveSocketForward(d.socketPath)
		os.Remove(d.socketPath)
		d.socketPath = ""
	}
	// Also clean up the default socket path from previous runs.
	defaultSocket := d.DefaultSocketPath()
	d.RemoveSocketForward(defaultSocket)
	os.Remove(defaultSocket)

	if d.localPort != 0 {
		d.RemoveForward(d.localPort)
		d.localPort = 0
	}

	return nil
}

// InstallAgent installs the agent APKs from the given directory.
func (d *Device) InstallAgent(apksDir string) error {
	apks := []struct {
		pkg     string
		pattern string
	}{
		{AgentServerPackage, "appium-uiautomator2-server-v*.apk"},
		{AgentTestPackage, "appium-uiautomator2-server-debug-androidTest.apk"},
	}

	for _, apk := range apks {
		if d.IsInstalled(apk.pkg) {
			continue
		}
		apkPath, err := findAPK(apksDir, apk.pattern)
		if err != nil {
			return fmt.Errorf("failed to find APK for %s: %w", apk.pkg, err)
		}
		if err := d.Install(apkPath); err != nil {
			return fmt.Errorf("failed to install %s: %w", apk.pkg, err)
		}
	}

	return nil
}

// UninstallAgent removes the agent packages from the device.
func (d *Device) UninstallAgent() error {
	packages := []string{AgentServerPackage, AgentTestPackage, AgentSettingsPkg}
	var errs []string

	for _, pkg := range packages {
		if d.IsInstalled(pkg) {
			if err := d.Uninstall(pkg); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", pkg, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("uninstall errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsAgentRunning checks if the agent is responding to health checks.
func (d *Device) IsAgentRunning() bool {
	return d.checkAgentHealth()
}

// waitForAgentReady waits for the agent to answer health checks.
func (d *Device) waitForAgentReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.checkAgentHealth() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("automation agent not ready after %v", timeout)
}

// checkAgentHealth probes the agent status endpoint over the active forward.
func (d *Device) checkAgentHealth() bool {
	if d.socketPath != "" {
		client := &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return net.Dial("unix", d.socketPath)
				},
			},
			Timeout: 2 * time.Second,
		}
		return probeStatus(client, "http://localhost/status")
	}
	if d.localPort != 0 {
		client := &http.Client{Timeout: 2 * time.Second}
		return probeStatus(client, fmt.Sprintf("http://127.0.0.1:%d/status", d.localPort))
	}
	return false
}

// probeStatus performs a health check using the given client and URL.
func probeStatus(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findAPK finds an APK file matching the pattern in the given directory.
func findAPK(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no APK found matching %s", pattern)
	}
	return matches[0], nil
}
