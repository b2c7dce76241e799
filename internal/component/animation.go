package component

import (
	"math"
	"time"

	"github.com/visuscript/liveviz/internal/core/ecs"
)

// Seconds converts wire and config seconds to a Duration, rounded to the
// microsecond so float32 noise (0.1 is 0.100000001) cannot outlast whole ticks.
func Seconds(s float32) time.Duration {
	return time.Duration(math.Round(float64(s)*1e6)) * time.Microsecond
}

func progress(elapsed, duration time.Duration) float32 {
	if elapsed >= duration {
		return 1
	}
	return float32(float64(elapsed) / float64(duration))
}

// TargetTransform drives an entity toward a fixed goal. It is removed by the
// interpolation system once progress reaches 1.
type TargetTransform struct {
	Goal     Transform
	Duration time.Duration
	Elapsed  time.Duration
}

// Advance adds dt to the elapsed time and returns the new progress in [0,1].
// Time is counted in whole nanoseconds, so duration worth of ticks always
// reaches exactly 1.
func (t *TargetTransform) Advance(dt time.Duration) float32 {
	t.Elapsed += dt
	return progress(t.Elapsed, t.Duration)
}

func (t *TargetTransform) Progress() float32 { return progress(t.Elapsed, t.Duration) }

// TargetEntity drives an entity toward another entity's live translation.
type TargetEntity struct {
	Goal     ecs.EntityID
	Duration time.Duration
	Elapsed  time.Duration
}

func (t *TargetEntity) Advance(dt time.Duration) float32 {
	t.Elapsed += dt
	return progress(t.Elapsed, t.Duration)
}

func (t *TargetEntity) Progress() float32 { return progress(t.Elapsed, t.Duration) }

// Blend moves current toward goal by p. Called once per tick with the
// current translation, so the motion decelerates rather than being a
// fixed-endpoint lerp.
func Blend(current, goal Vec3, p float32) Vec3 {
	return goal.Scale(p).Add(current.Scale(1 - p))
}
