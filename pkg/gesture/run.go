package gesture

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Toucher issues raw touch events to a device.
type Toucher interface {
	TouchDown(x, y int) error
	TouchMove(x, y int) error
	TouchUp(x, y int) error
}

// sleepFn is replaced in tests.
var sleepFn = time.Sleep

// Run executes a path waypoint by waypoint: Down at the first point,
// Move at each interior point, Up at the last, sleeping each waypoint's
// hold time after the event. A failure aborts mid-path; the caller
// retries the whole path from the start, never resumes mid-gesture.
func Run(t Toucher, path Path) error {
	if len(path) < 2 {
		return fmt.Errorf("touch path needs at least a down and an up point, got %d", len(path))
	}

	for i, wp := range path {
		var err error
		switch {
		case i == 0:
			err = t.TouchDown(wp.X, wp.Y)
			logger.Debug("touch", "x", wp.X, "y", wp.Y, "phase", "down")
		case i == len(path)-1:
			err = t.TouchUp(wp.X, wp.Y)
			logger.Debug("touch", "x", wp.X, "y", wp.Y, "phase", "up")
		default:
			err = t.TouchMove(wp.X, wp.Y)
			logger.Debug("touch", "x", wp.X, "y", wp.Y, "phase", "move")
		}
		if err != nil {
			return err
		}
		sleepFn(time.Duration(wp.Hold * float64(time.Second)))
	}
	return nil
}
