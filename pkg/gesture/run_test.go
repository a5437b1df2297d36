package gesture

import (
	"fmt"
	"testing"
	"time"
)

// recordingToucher records events in order.
type recordingToucher struct {
	events  []string
	failOn  string
	touches int
}

func (r *recordingToucher) record(kind string, x, y int) error {
	r.touches++
	r.events = append(r.events, fmt.Sprintf("%s(%d,%d)", kind, x, y))
	if r.failOn == kind {
		return fmt.Errorf("%s failed", kind)
	}
	return nil
}

func (r *recordingToucher) TouchDown(x, y int) error { return r.record("down", x, y) }
func (r *recordingToucher) TouchMove(x, y int) error { return r.record("move", x, y) }
func (r *recordingToucher) TouchUp(x, y int) error   { return r.record("up", x, y) }

func withInstantSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleepFn
	sleepFn = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleepFn = orig })
	return &slept
}

func TestRun_EventOrder(t *testing.T) {
	slept := withInstantSleep(t)
	toucher := &recordingToucher{}

	path := Path{
		{X: 1, Y: 2, Hold: 0.2, Phase: Down},
		{X: 3, Y: 4, Hold: 0.1, Phase: Move},
		{X: 5, Y: 6, Hold: 0, Phase: Up},
	}

	if err := Run(toucher, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"down(1,2)", "move(3,4)", "up(5,6)"}
	if len(toucher.events) != len(want) {
		t.Fatalf("events = %v, want %v", toucher.events, want)
	}
	for i := range want {
		if toucher.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, toucher.events[i], want[i])
		}
	}

	if len(*slept) != 3 {
		t.Fatalf("sleep count = %d, want one per waypoint", len(*slept))
	}
	if (*slept)[0] != 200*time.Millisecond {
		t.Errorf("first hold = %v, want 200ms", (*slept)[0])
	}
}

func TestRun_AbortsOnFailure(t *testing.T) {
	withInstantSleep(t)
	toucher := &recordingToucher{failOn: "move"}

	path := Path{
		{X: 1, Y: 1, Phase: Down},
		{X: 2, Y: 2, Phase: Move},
		{X: 3, Y: 3, Phase: Move},
		{X: 4, Y: 4, Phase: Up},
	}

	if err := Run(toucher, path); err == nil {
		t.Fatal("expected error from failing move")
	}
	// down + first move; the path is abandoned, not resumed.
	if toucher.touches != 2 {
		t.Errorf("touches = %d, want 2", toucher.touches)
	}
}

func TestRun_RejectsTooShortPath(t *testing.T) {
	withInstantSleep(t)
	if err := Run(&recordingToucher{}, Path{{X: 1, Y: 1, Phase: Down}}); err == nil {
		t.Error("expected error for single-waypoint path")
	}
	if err := Run(&recordingToucher{}, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestRun_SynthesizedPathExecutes(t *testing.T) {
	withInstantSleep(t)
	toucher := &recordingToucher{}

	path := Path{
		{X: 100, Y: 200, Hold: 0.25, Phase: Down},
		{X: 300, Y: 400, Hold: 0.25, Phase: Move},
		{X: 300, Y: 415, Hold: 0.1, Phase: Move},
		{X: 300, Y: 385, Hold: 0.1, Phase: Move},
		{X: 300, Y: 400, Hold: 0.1, Phase: Up},
	}

	if err := Run(toucher, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toucher.events[0] != "down(100,200)" {
		t.Errorf("first event = %q, want down at start", toucher.events[0])
	}
	if toucher.events[4] != "up(300,400)" {
		t.Errorf("last event = %q, want up at settle point", toucher.events[4])
	}
}
