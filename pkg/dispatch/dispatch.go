package dispatch

import (
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/devicelab-dev/droidpilot/pkg/core"
	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Retry bounds for every dispatched device action. Each action gets a
// fresh budget; the bounds are process-wide, not per-call state.
const (
	RetryTries = 5
	RetryDelay = 3 * time.Second
)

// Recoverer applies the recovery step a Verdict asks for. Both
// operations are idempotent and must not retry internally; retry is
// owned by the Dispatcher.
type Recoverer interface {
	Reconnect() error
	ReinstallAgent() error
}

// Dispatcher executes device actions with fault classification and
// bounded retry. One Dispatcher serves one device identity; actions
// against the same device are issued one at a time.
type Dispatcher struct {
	rec      Recoverer
	tries    uint
	delay    time.Duration
	classify ClassifyFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTries overrides the attempt bound.
func WithTries(tries uint) Option {
	return func(d *Dispatcher) {
		if tries > 0 {
			d.tries = tries
		}
	}
}

// WithDelay overrides the fixed delay between attempts.
func WithDelay(delay time.Duration) Option {
	return func(d *Dispatcher) {
		d.delay = delay
	}
}

// WithClassifier overrides the fault classifier.
func WithClassifier(fn ClassifyFunc) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.classify = fn
		}
	}
}

// New creates a Dispatcher recovering through rec.
func New(rec Recoverer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rec:      rec,
		tries:    RetryTries,
		delay:    RetryDelay,
		classify: Classify,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do executes a device action that returns no value.
func (d *Dispatcher) Do(action string, body func() error) error {
	_, err := Call(d, action, func() (struct{}, error) {
		return struct{}{}, body()
	})
	return err
}

// Call executes a device action through the retry driver.
//
// Each failed attempt is classified once; the verdict picks the
// recovery step applied before the next attempt. A HumanTakeoverError
// from the body, or a fatal verdict, stops remaining attempts. When the
// budget is exhausted the caller receives a single HumanTakeoverError
// carrying the action label, which no higher level may retry.
func Call[T any](d *Dispatcher, action string, body func() (T, error)) (T, error) {
	var verdict Verdict
	var reason string

	result, err := retry.NewWithData[T](
		retry.Attempts(d.tries),
		retry.Delay(d.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if core.IsHumanTakeover(err) {
				return false
			}
			return verdict != VerdictFatal
		}),
		retry.OnRetry(func(_ uint, err error) {
			switch verdict {
			case VerdictReconnect:
				if rerr := d.rec.Reconnect(); rerr != nil {
					logger.Warn("reconnect failed", "action", action, "err", rerr)
				}
			case VerdictReinstall:
				if rerr := d.rec.ReinstallAgent(); rerr != nil {
					logger.Warn("agent reinstall failed", "action", action, "err", rerr)
				}
			}
		}),
	).Do(func() (T, error) {
		v, err := body()
		if err != nil && !core.IsHumanTakeover(err) {
			verdict, reason = d.classify(err)
		}
		return v, err
	})

	if err == nil {
		return result, nil
	}
	if core.IsHumanTakeover(err) {
		// Already signaled upstream; pass through untouched.
		return result, err
	}

	logger.Critical("retry exhausted", "action", action, "err", err)
	return result, core.RequestHumanTakeover(action, reason, err)
}
