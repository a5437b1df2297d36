package adb

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// newFakeDevice builds a Device whose adb invocations are served by fn.
func newFakeDevice(serial string, fn func(args ...string) (string, error)) *Device {
	d := &Device{serial: serial, adbPath: "adb"}
	d.run = fn
	return d
}

func TestParseFirstSerial(t *testing.T) {
	out := "List of devices attached\n" +
		"emulator-5554\toffline\n" +
		"127.0.0.1:5555\tdevice\n" +
		"RF8M33Z\tdevice\n"

	serial, err := parseFirstSerial(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if serial != "127.0.0.1:5555" {
		t.Errorf("serial = %q, want first ready device", serial)
	}
}

func TestParseFirstSerial_NoDevices(t *testing.T) {
	_, err := parseFirstSerial("List of devices attached\n\n")
	if err == nil {
		t.Fatal("expected error for empty device list")
	}
}

func TestIsNetworkSerial(t *testing.T) {
	if !isNetworkSerial("127.0.0.1:5555") {
		t.Error("ip:port serial should be a network serial")
	}
	if isNetworkSerial("emulator-5554") {
		t.Error("emulator serial is not a network serial")
	}
}

func TestShell_ScopesSerial(t *testing.T) {
	var got []string
	d := newFakeDevice("127.0.0.1:5555", func(args ...string) (string, error) {
		got = args
		return "ok", nil
	})

	out, err := d.Shell("pm list packages")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}

	want := []string{"-s", "127.0.0.1:5555", "shell", "pm list packages"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestReconnect_NetworkSerial(t *testing.T) {
	var calls []string
	d := newFakeDevice("127.0.0.1:5555", func(args ...string) (string, error) {
		calls = append(calls, strings.Join(args, " "))
		if args[0] == "-s" && args[2] == "get-state" {
			return "device\n", nil
		}
		return "connected to 127.0.0.1:5555", nil
	})

	if err := d.Reconnect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(calls, ";")
	if !strings.Contains(joined, "disconnect 127.0.0.1:5555") {
		t.Error("Reconnect should drop the stale transport first")
	}
	if !strings.Contains(joined, "connect 127.0.0.1:5555") {
		t.Error("Reconnect should re-establish the transport")
	}
}

func TestConnect_Rejected(t *testing.T) {
	d := newFakeDevice("127.0.0.1:5555", func(args ...string) (string, error) {
		return "cannot connect to 127.0.0.1:5555: Connection refused", nil
	})

	err := d.Connect()
	if err == nil {
		t.Fatal("expected error when adb reports cannot connect")
	}

	var adbErr *Error
	if !errors.As(err, &adbErr) {
		t.Fatalf("expected *adb.Error, got %T", err)
	}
	if adbErr.Op != "connect" {
		t.Errorf("Op = %q, want %q", adbErr.Op, "connect")
	}
}

func TestIsInstalled(t *testing.T) {
	d := newFakeDevice("emulator-5554", func(args ...string) (string, error) {
		return "package:com.example.game\n", nil
	})

	if !d.IsInstalled("com.example.game") {
		t.Error("expected package to be reported installed")
	}
	if d.IsInstalled("com.example.other") {
		t.Error("unexpected package reported installed")
	}
}

func TestIsInstalled_ShellError(t *testing.T) {
	d := newFakeDevice("emulator-5554", func(args ...string) (string, error) {
		return "", fmt.Errorf("adb gone")
	})

	if d.IsInstalled("com.example.game") {
		t.Error("shell failure should report not installed")
	}
}
