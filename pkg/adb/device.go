// Package adb wraps the adb command line as the device transport for
// droidpilot. It owns device discovery, shell access, port forwarding
// and reconnection; the automation agent lifecycle lives in agent.go.
package adb

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Device is an Android device reachable through adb.
type Device struct {
	serial     string
	adbPath    string
	socketPath string // Unix socket forward for the agent (Linux/Mac)
	localPort  int    // TCP forward for the agent (Windows)

	// run executes an adb invocation; replaced in tests.
	run func(args ...string) (string, error)
}

// New creates a Device for the given serial. An empty serial
// auto-detects the first connected device.
func New(serial string) (*Device, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}

	d := &Device{serial: serial, adbPath: adbPath}
	d.run = d.execADB

	if serial == "" {
		detected, err := d.detectSerial()
		if err != nil {
			return nil, fmt.Errorf("no device specified and auto-detect failed: %w", err)
		}
		d.serial = detected
	}

	// Emulator serials like 127.0.0.1:5555 need an explicit connect
	// before the device shows up in the transport list.
	if isNetworkSerial(d.serial) {
		if err := d.Connect(); err != nil {
			logger.Warn("initial adb connect failed", "serial", d.serial, "err", err)
		}
	}

	if err := d.WaitForDevice(5 * time.Second); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}
	return d, nil
}

// Serial returns the device serial number.
func (d *Device) Serial() string {
	return d.serial
}

// isNetworkSerial reports whether the serial addresses a TCP endpoint.
func isNetworkSerial(serial string) bool {
	return strings.Contains(serial, ":")
}

// Connect establishes the adb transport for a network serial.
// It is a no-op for USB serials.
func (d *Device) Connect() error {
	if !isNetworkSerial(d.serial) {
		return nil
	}
	out, err := d.runGlobal("connect", d.serial)
	if err != nil {
		return err
	}
	// adb connect reports failure on stdout with exit code 0.
	if strings.Contains(out, "cannot connect") || strings.Contains(out, "failed to connect") {
		return newError("connect", d.serial, out, fmt.Errorf("connect rejected"))
	}
	logger.Info("adb connected", "serial", d.serial)
	return nil
}

// Reconnect re-establishes the transport to the same device identity.
// Idempotent; safe to call on an already healthy transport.
func (d *Device) Reconnect() error {
	if isNetworkSerial(d.serial) {
		// Drop the stale transport first; adb keeps dead TCP entries
		// around and refuses a fresh connect otherwise.
		d.runGlobal("disconnect", d.serial)
		if err := d.Connect(); err != nil {
			return err
		}
	} else {
		if _, err := d.adb("reconnect"); err != nil {
			return err
		}
	}
	return d.WaitForDevice(10 * time.Second)
}

// Shell executes a shell command on the device.
func (d *Device) Shell(cmd string) (string, error) {
	return d.adb("shell", cmd)
}

// Install installs an APK on the device.
func (d *Device) Install(apkPath string) error {
	_, err := d.adb("install", "-r", "-g", apkPath)
	return err
}

// Uninstall removes a package from the device.
func (d *Device) Uninstall(pkg string) error {
	_, err := d.adb("uninstall", pkg)
	return err
}

// IsInstalled checks if a package is installed.
func (d *Device) IsInstalled(pkg string) bool {
	out, err := d.Shell("pm list packages " + pkg)
	if err != nil {
		return false
	}
	return strings.Contains(out, "package:"+pkg)
}

// Forward creates a TCP port forward from local to device.
func (d *Device) Forward(localPort, remotePort int) error {
	_, err := d.adb("forward", fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveForward removes a TCP port forward.
func (d *Device) RemoveForward(localPort int) error {
	_, err := d.adb("forward", "--remove", fmt.Sprintf("tcp:%d", localPort))
	return err
}

// ForwardSocket forwards a Unix socket to a device TCP port.
func (d *Device) ForwardSocket(socketPath string, remotePort int) error {
	_, err := d.adb("forward", fmt.Sprintf("localfilesystem:%s", socketPath), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveSocketForward removes a Unix socket forward.
func (d *Device) RemoveSocketForward(socketPath string) error {
	_, err := d.adb("forward", "--remove", fmt.Sprintf("localfilesystem:%s", socketPath))
	return err
}

// SocketPath returns the current agent socket path (empty if the agent
// is not running or a TCP forward is in use).
func (d *Device) SocketPath() string {
	return d.socketPath
}

// LocalPort returns the current agent TCP port (0 if a socket forward
// is in use).
func (d *Device) LocalPort() int {
	return d.localPort
}

// WaitForDevice waits for the device to reach the "device" state.
func (d *Device) WaitForDevice(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.isConnected() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return newError("get-state", d.serial, "device not found", fmt.Errorf("timeout after %v", timeout))
}

// isConnected checks if the device is in the "device" state.
func (d *Device) isConnected() bool {
	out, err := d.adb("get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// detectSerial finds the first connected device serial.
func (d *Device) detectSerial() (string, error) {
	out, err := d.runGlobal("devices")
	if err != nil {
		return "", err
	}
	return parseFirstSerial(out)
}

// parseFirstSerial extracts the first ready serial from `adb devices` output.
func parseFirstSerial(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			return parts[0], nil
		}
	}
	return "", fmt.Errorf("no connected devices found")
}

// adb executes an adb command scoped to this device serial.
func (d *Device) adb(args ...string) (string, error) {
	scoped := make([]string, 0, len(args)+2)
	if d.serial != "" {
		scoped = append(scoped, "-s", d.serial)
	}
	scoped = append(scoped, args...)
	return d.run(scoped...)
}

// runGlobal executes an adb command without the -s serial scope
// (connect, disconnect and devices address the server, not a transport).
func (d *Device) runGlobal(args ...string) (string, error) {
	return d.run(args...)
}

// execADB invokes the adb binary.
func (d *Device) execADB(args ...string) (string, error) {
	cmd := exec.Command(d.adbPath, args...) //#nosec G204 -- args are adb subcommands built above
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		op := "adb"
		if len(args) > 0 {
			op = args[0]
			if op == "-s" && len(args) > 2 {
				op = args[2]
			}
		}
		return "", newError(op, d.serial, output, err)
	}
	return stdout.String(), nil
}

// findADB locates the adb binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android platform-tools are installed")
}
