package gesture

import (
	"math/rand"
	"testing"
)

// zeroJitterOptions makes the synthesizer fully deterministic without
// seeding: every jitter range collapses to a zero offset.
func zeroJitterOptions() Options {
	return Options{
		Segments:      1,
		Shake:         Point{X: 0, Y: 15},
		PointJitter:   Rect{},
		ShakeJitter:   Rect{},
		SwipeDuration: 0.25,
		ShakeDuration: 0.1,
	}
}

func TestSynthesize_MinimalPathShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	path := Synthesize(Point{X: 100, Y: 200}, Point{X: 300, Y: 400}, zeroJitterOptions(), rng)

	// start, end, overshoot, correction, settle
	if len(path) != 5 {
		t.Fatalf("len(path) = %d, want 5", len(path))
	}

	want := []Waypoint{
		{X: 100, Y: 200, Hold: 0.25, Phase: Down},
		{X: 300, Y: 400, Hold: 0.25, Phase: Move},
		{X: 300, Y: 415, Hold: 0.1, Phase: Move},
		{X: 300, Y: 385, Hold: 0.1, Phase: Move},
		{X: 300, Y: 400, Hold: 0.1, Phase: Up},
	}
	for i, wp := range want {
		if path[i] != wp {
			t.Errorf("path[%d] = %+v, want %+v", i, path[i], wp)
		}
	}
}

func TestSynthesize_PhaseTags(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	path := Synthesize(Point{X: 0, Y: 0}, Point{X: 500, Y: 0}, DefaultOptions(), rng)

	if path[0].Phase != Down {
		t.Error("first waypoint must be Down")
	}
	if path[len(path)-1].Phase != Up {
		t.Error("last waypoint must be Up")
	}
	for i := 1; i < len(path)-1; i++ {
		if path[i].Phase != Move {
			t.Errorf("path[%d].Phase = %v, want Move", i, path[i].Phase)
		}
	}
}

func TestSynthesize_SegmentsAddInteriorPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	opts := zeroJitterOptions()
	opts.Segments = 4

	path := Synthesize(Point{X: 0, Y: 0}, Point{X: 400, Y: 0}, opts, rng)

	// 5 interpolated points + overshoot + correction + settle
	if len(path) != 8 {
		t.Fatalf("len(path) = %d, want 8", len(path))
	}
	// Zero jitter: interior points land exactly on the line.
	for i, wantX := range []int{0, 100, 200, 300, 400} {
		if path[i].X != wantX || path[i].Y != 0 {
			t.Errorf("path[%d] = (%d,%d), want (%d,0)", i, path[i].X, path[i].Y, wantX)
		}
	}
}

func TestSynthesize_DeterministicUnderSeed(t *testing.T) {
	opts := DefaultOptions()

	a := Synthesize(Point{X: 50, Y: 60}, Point{X: 700, Y: 900}, opts, rand.New(rand.NewSource(42)))
	b := Synthesize(Point{X: 50, Y: 60}, Point{X: 700, Y: 900}, opts, rand.New(rand.NewSource(42)))

	if len(a) != len(b) {
		t.Fatalf("path lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("path[%d] differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSynthesize_JitterStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	opts := DefaultOptions()

	for run := 0; run < 100; run++ {
		path := Synthesize(Point{X: 100, Y: 100}, Point{X: 500, Y: 500}, opts, rng)

		start := path[0]
		if start.X < 90 || start.X > 110 || start.Y < 90 || start.Y > 110 {
			t.Fatalf("start point %+v outside jitter range of (100,100)", start)
		}

		settle := path[len(path)-1]
		if settle.X < 490 || settle.X > 510 || settle.Y < 490 || settle.Y > 510 {
			t.Fatalf("settle point %+v outside jitter range of (500,500)", settle)
		}
	}
}

func TestSynthesize_ClampsSegments(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	opts := zeroJitterOptions()
	opts.Segments = 0

	path := Synthesize(Point{X: 1, Y: 1}, Point{X: 2, Y: 2}, opts, rng)
	if len(path) != 5 {
		t.Errorf("len(path) = %d, want 5 for clamped segments", len(path))
	}
}

func TestSample(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 1000; i++ {
		v := sample(-10, 10, rng)
		if v < -10 || v > 10 {
			t.Fatalf("sample = %d, outside [-10, 10]", v)
		}
	}
	if v := sample(5, 5, rng); v != 5 {
		t.Errorf("degenerate range should return lo, got %d", v)
	}
}
