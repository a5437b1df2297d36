// Package gesture synthesizes human-like multi-waypoint touch paths.
//
// A plain two-point drag is mechanically distinguishable from human
// input: the overshoot-correction-settle tail and per-call jitter
// approximate natural hand tremor.
package gesture

import (
	"math"
	"math/rand"
)

// Phase tags a waypoint's role in the touch sequence.
type Phase int

const (
	Down Phase = iota
	Move
	Up
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	default:
		return "invalid"
	}
}

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Rect is a jitter sampling range: offsets are drawn uniformly from
// [X1, X2] x [Y1, Y2].
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Waypoint is one step of a touch path. Hold is how long the finger
// rests at the point, in seconds.
type Waypoint struct {
	X, Y  int
	Hold  float64
	Phase Phase
}

// Path is an ordered, non-empty touch sequence: first waypoint is
// always Down, last is always Up, everything between is Move.
type Path []Waypoint

// Options tune the synthesized path.
type Options struct {
	Segments      int     // interpolation segments between the endpoints
	Shake         Point   // overshoot offset applied after arrival
	PointJitter   Rect    // random offset range for endpoints and interior points
	ShakeJitter   Rect    // random offset range for the shake points
	SwipeDuration float64 // hold seconds for the interpolated points
	ShakeDuration float64 // hold seconds for the shake tail
}

// DefaultOptions returns the drag tuning used by the bot.
func DefaultOptions() Options {
	return Options{
		Segments:      1,
		Shake:         Point{X: 0, Y: 15},
		PointJitter:   Rect{X1: -10, Y1: -10, X2: 10, Y2: 10},
		ShakeJitter:   Rect{X1: -5, Y1: -5, X2: 5, Y2: 5},
		SwipeDuration: 0.25,
		ShakeDuration: 0.1,
	}
}

// Synthesize expands a start/end pair into a jittered touch path:
// jittered endpoints, evenly spaced interior points, then an overshoot
// past the end, a correction back past it, and a settle on the end
// point. Identical inputs and rng state produce identical paths.
func Synthesize(p1, p2 Point, opts Options, rng *rand.Rand) Path {
	segments := opts.Segments
	if segments < 1 {
		segments = 1
	}

	start := jitter(p1, opts.PointJitter, rng)
	end := jitter(p2, opts.PointJitter, rng)

	points := interpolate(start, end, segments, opts.PointJitter, rng)

	path := make(Path, 0, len(points)+3)
	for _, pt := range points {
		path = append(path, Waypoint{X: pt.X, Y: pt.Y, Hold: opts.SwipeDuration, Phase: Move})
	}

	overshoot := jitter(Point{X: end.X + opts.Shake.X, Y: end.Y + opts.Shake.Y}, opts.ShakeJitter, rng)
	correction := jitter(Point{X: end.X - opts.Shake.X, Y: end.Y - opts.Shake.Y}, negate(opts.ShakeJitter), rng)
	path = append(path,
		Waypoint{X: overshoot.X, Y: overshoot.Y, Hold: opts.ShakeDuration, Phase: Move},
		Waypoint{X: correction.X, Y: correction.Y, Hold: opts.ShakeDuration, Phase: Move},
		Waypoint{X: end.X, Y: end.Y, Hold: opts.ShakeDuration, Phase: Move},
	)

	path[0].Phase = Down
	path[len(path)-1].Phase = Up
	return path
}

// jitter offsets p by a uniform random point from r.
func jitter(p Point, r Rect, rng *rand.Rand) Point {
	return Point{
		X: p.X + sample(r.X1, r.X2, rng),
		Y: p.Y + sample(r.Y1, r.Y2, rng),
	}
}

// negate mirrors a jitter range, so the correction point is displaced
// opposite to the overshoot.
func negate(r Rect) Rect {
	return Rect{X1: -r.X2, Y1: -r.Y2, X2: -r.X1, Y2: -r.Y1}
}

// sample draws a uniform integer from [lo, hi].
func sample(lo, hi int, rng *rand.Rand) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// interpolate returns segments+1 points from start to end inclusive,
// evenly spaced, with interior points jittered. Coordinates are rounded
// to the nearest integer pixel since device touch APIs take ints.
func interpolate(start, end Point, segments int, jitterRange Rect, rng *rand.Rand) []Point {
	points := make([]Point, 0, segments+1)
	points = append(points, start)
	for i := 1; i < segments; i++ {
		t := float64(i) / float64(segments)
		p := Point{
			X: int(math.Round(float64(start.X) + t*float64(end.X-start.X))),
			Y: int(math.Round(float64(start.Y) + t*float64(end.Y-start.Y))),
		}
		points = append(points, jitter(p, jitterRange, rng))
	}
	points = append(points, end)
	return points
}
