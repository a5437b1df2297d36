package uia2

import (
	"encoding/base64"
	"strings"

	"github.com/devicelab-dev/droidpilot/pkg/core"
)

// Click taps at the given coordinates.
func (c *Client) Click(x, y int) error {
	req := ClickRequest{Offset: &PointModel{X: x, Y: y}}
	data, err := c.request("POST", c.sessionPath("/appium/gestures/click"), req)
	if err != nil {
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// LongClick presses and holds at the given coordinates for durationMs.
func (c *Client) LongClick(x, y, durationMs int) error {
	req := LongClickRequest{Offset: &PointModel{X: x, Y: y}, Duration: durationMs}
	data, err := c.request("POST", c.sessionPath("/appium/gestures/long_click"), req)
	if err != nil {
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// Swipe drags from start to end coordinates at the given speed.
func (c *Client) Swipe(x1, y1, x2, y2, speed int) error {
	req := DragRequest{StartX: x1, StartY: y1, EndX: x2, EndY: y2, Speed: speed}
	data, err := c.request("POST", c.sessionPath("/appium/gestures/drag"), req)
	if err != nil {
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// TouchDown starts a raw touch at the given coordinates.
func (c *Client) TouchDown(x, y int) error {
	return c.touch("/touch/down", x, y)
}

// TouchMove moves an in-flight raw touch to the given coordinates.
func (c *Client) TouchMove(x, y int) error {
	return c.touch("/touch/move", x, y)
}

// TouchUp lifts a raw touch at the given coordinates.
func (c *Client) TouchUp(x, y int) error {
	return c.touch("/touch/up", x, y)
}

func (c *Client) touch(path string, x, y int) error {
	data, err := c.request("POST", c.sessionPath(path), TouchRequest{X: x, Y: y})
	if err != nil {
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// AppStart launches the application with the given package name.
func (c *Client) AppStart(pkg string) error {
	data, err := c.request("POST", c.sessionPath("/appium/device/app_launch"), AppRequest{AppID: pkg})
	if err != nil {
		// The agent reports a missing package as a structured error,
		// e.g. `package "com.example.app" not found`.
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return core.ErrPackageNotFound.WithDetails(map[string]interface{}{"package": pkg}).WithCause(err)
		}
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// AppStop force-stops the application with the given package name.
func (c *Client) AppStop(pkg string) error {
	data, err := c.request("POST", c.sessionPath("/appium/device/app_terminate"), AppRequest{AppID: pkg})
	if err != nil {
		return err
	}
	var resp Response
	return decode(data, &resp)
}

// AppCurrent returns the foreground application.
func (c *Client) AppCurrent() (CurrentApp, error) {
	data, err := c.request("GET", c.sessionPath("/appium/device/current_package"), nil)
	if err != nil {
		return CurrentApp{}, err
	}

	var resp struct {
		Value CurrentApp `json:"value"`
	}
	if err := decode(data, &resp); err != nil {
		return CurrentApp{}, err
	}
	if resp.Value.Package == "" {
		return CurrentApp{}, core.ErrMalformedResponse.WithMessage("current app response has no package field")
	}
	return resp.Value, nil
}

// DumpHierarchy returns the UI hierarchy as XML.
func (c *Client) DumpHierarchy() (string, error) {
	data, err := c.request("GET", c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Value string `json:"value"`
	}
	if err := decode(data, &resp); err != nil {
		return "", err
	}
	if resp.Value == "" {
		return "", core.ErrMalformedResponse.WithMessage("empty hierarchy dump")
	}
	return resp.Value, nil
}

// Screenshot captures the screen and returns raw PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	data, err := c.request("GET", c.sessionPath("/screenshot"), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Value string `json:"value"`
	}
	if err := decode(data, &resp); err != nil {
		return nil, err
	}

	png, err := base64.StdEncoding.DecodeString(resp.Value)
	if err != nil {
		return nil, core.ErrMalformedResponse.WithMessage("screenshot is not valid base64").WithCause(err)
	}
	if len(png) == 0 {
		return nil, core.ErrMalformedResponse.WithMessage("empty screenshot payload")
	}
	return png, nil
}
