// Package driver exposes the device actions the bot scripts against.
// Every public method is one retryable unit: the body fetches the
// memoized session client, runs the remote call, and the dispatcher
// classifies and recovers from whatever goes wrong.
package driver

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/core"
	"github.com/devicelab-dev/droidpilot/pkg/dispatch"
	"github.com/devicelab-dev/droidpilot/pkg/gesture"
	"github.com/devicelab-dev/droidpilot/pkg/hierarchy"
	"github.com/devicelab-dev/droidpilot/pkg/screenshot"
	"github.com/devicelab-dev/droidpilot/pkg/uia2"
)

// Session supplies the agent client and the recovery operations the
// dispatcher invokes between attempts. Implemented by *session.Handle.
type Session interface {
	Client() (*uia2.Client, error)
	dispatch.Recoverer
}

// Driver executes device actions through the fault-handling dispatcher.
type Driver struct {
	session Session
	disp    *dispatch.Dispatcher
	opts    gesture.Options
	rng     *rand.Rand
}

// Option configures a Driver.
type Option func(*Driver)

// WithDispatcher replaces the default retry dispatcher.
func WithDispatcher(disp *dispatch.Dispatcher) Option {
	return func(d *Driver) {
		d.disp = disp
	}
}

// WithGestureOptions overrides the drag synthesis tuning.
func WithGestureOptions(opts gesture.Options) Option {
	return func(d *Driver) {
		d.opts = opts
	}
}

// WithRand injects the randomness source for gesture jitter, fixed in
// tests for reproducible paths.
func WithRand(rng *rand.Rand) Option {
	return func(d *Driver) {
		d.rng = rng
	}
}

// New builds a Driver over the given session.
func New(session Session, opts ...Option) *Driver {
	d := &Driver{
		session: session,
		opts:    gesture.DefaultOptions(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.disp == nil {
		d.disp = dispatch.New(session)
	}
	return d
}

// Tap clicks the given screen coordinate.
func (d *Driver) Tap(x, y int) error {
	return d.disp.Do("tap", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		return client.Click(x, y)
	})
}

// LongPress holds the given coordinate for the given duration.
func (d *Driver) LongPress(x, y int, duration time.Duration) error {
	return d.disp.Do("long_press", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		return client.LongClick(x, y, int(duration.Milliseconds()))
	})
}

// Swipe performs a straight swipe between two points using the agent's
// native gesture, without path synthesis.
func (d *Driver) Swipe(x1, y1, x2, y2, speed int) error {
	return d.disp.Do("swipe", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		return client.Swipe(x1, y1, x2, y2, speed)
	})
}

// Drag synthesizes a humanized path between the two points and replays
// it on the device.
func (d *Driver) Drag(from, to gesture.Point) error {
	path := gesture.Synthesize(from, to, d.opts, d.rng)
	return d.DragAlong(path)
}

// DragAlong replays a prepared path. The whole path is one retryable
// unit: a failure mid-path abandons it and a retry replays it from the
// start, never resuming a half-delivered gesture.
func (d *Driver) DragAlong(path gesture.Path) error {
	return d.disp.Do("drag", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		return gesture.Run(client, path)
	})
}

// AppStart launches the app. An unknown package is an operator
// mistake, not a transient fault, so it surfaces immediately instead
// of burning the retry budget.
func (d *Driver) AppStart(pkg string) error {
	return d.disp.Do("app_start", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		if err := client.AppStart(pkg); err != nil {
			if errors.Is(err, core.ErrPackageNotFound) {
				hint := fmt.Sprintf("%q not found, please check setting Emulator.PackageName", pkg)
				return core.RequestHumanTakeover("app_start", hint, err)
			}
			return err
		}
		return nil
	})
}

// AppStop force-stops the app.
func (d *Driver) AppStop(pkg string) error {
	return d.disp.Do("app_stop", func() error {
		client, err := d.session.Client()
		if err != nil {
			return err
		}
		return client.AppStop(pkg)
	})
}

// AppCurrent reports the foreground app.
func (d *Driver) AppCurrent() (uia2.CurrentApp, error) {
	return dispatch.Call(d.disp, "app_current", func() (uia2.CurrentApp, error) {
		client, err := d.session.Client()
		if err != nil {
			return uia2.CurrentApp{}, err
		}
		return client.AppCurrent()
	})
}

// DumpHierarchy fetches and parses the UI hierarchy. Parsing happens
// inside the retryable unit, so a corrupt dump is handled like any
// other malformed agent payload.
func (d *Driver) DumpHierarchy() ([]*hierarchy.Element, error) {
	return dispatch.Call(d.disp, "dump_hierarchy", func() ([]*hierarchy.Element, error) {
		client, err := d.session.Client()
		if err != nil {
			return nil, err
		}
		xmlData, err := client.DumpHierarchy()
		if err != nil {
			return nil, err
		}
		return hierarchy.Parse(xmlData)
	})
}

// Screenshot captures the screen and returns the raw PNG bytes.
func (d *Driver) Screenshot() ([]byte, error) {
	return dispatch.Call(d.disp, "screenshot", func() ([]byte, error) {
		client, err := d.session.Client()
		if err != nil {
			return nil, err
		}
		return client.Screenshot()
	})
}

// ScreenshotImage captures the screen and decodes it. Decoding is part
// of the retryable unit so a truncated frame is recaptured.
func (d *Driver) ScreenshotImage() (image.Image, error) {
	return dispatch.Call(d.disp, "screenshot", func() (image.Image, error) {
		client, err := d.session.Client()
		if err != nil {
			return nil, err
		}
		data, err := client.Screenshot()
		if err != nil {
			return nil, err
		}
		return screenshot.Decode(data)
	})
}
