package anim

import (
	"fmt"
	"time"
)

// EasingFunc maps progress [0,1] to eased progress [0,1].
// Implementations must be monotonic with f(0) == 0 and f(1) == 1.
type EasingFunc func(t float64) float64

var (
	// EaseLinear moves at constant speed.
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	// EaseSmoothstep accelerates at the start and decelerates at the end.
	EaseSmoothstep EasingFunc = func(t float64) float64 {
		return t * t * (3.0 - 2.0*t)
	}

	// EaseInOutCubic is a steeper S-curve than smoothstep.
	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4.0 * t * t * t
		}
		t1 := 2.0*t - 2.0
		return 1.0 + t1*t1*t1*0.5
	}
)

// EasingByName resolves a configured easing name.
func EasingByName(name string) (EasingFunc, error) {
	switch name {
	case "", "smoothstep":
		return EaseSmoothstep, nil
	case "linear":
		return EaseLinear, nil
	case "cubic":
		return EaseInOutCubic, nil
	default:
		return nil, fmt.Errorf("unknown easing %q", name)
	}
}

// Value is a scalar interpolated from start to target over a duration.
// It is advanced explicitly with Tick, never by wall clock.
type Value struct {
	current  float64
	start    float64
	target   float64
	elapsed  time.Duration
	duration time.Duration
	easing   EasingFunc
}

// NewValue returns a settled value at v.
func NewValue(v float64, duration time.Duration, easing EasingFunc) Value {
	if easing == nil {
		easing = EaseSmoothstep
	}
	return Value{
		current:  v,
		start:    v,
		target:   v,
		elapsed:  duration,
		duration: duration,
		easing:   easing,
	}
}

// Animate starts moving toward target from the current value.
// An in-flight interpolation restarts from where it is now, not from its
// original start.
func (v *Value) Animate(target float64) {
	v.start = v.current
	v.target = target
	v.elapsed = 0
	if v.duration <= 0 {
		v.current = target
	}
}

// Set jumps to x and stops any running interpolation.
func (v *Value) Set(x float64) {
	v.current = x
	v.start = x
	v.target = x
	v.elapsed = v.duration
}

// SetDuration changes the duration used by the next Animate call.
func (v *Value) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	running := v.Running()
	v.duration = d
	if !running {
		v.elapsed = d
	} else if v.elapsed > d {
		v.elapsed = d
		v.current = v.target
	}
}

// Tick advances elapsed time by dt, clamped to the duration.
func (v *Value) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	v.elapsed += dt
	if v.elapsed >= v.duration {
		v.elapsed = v.duration
		v.current = v.target
		return
	}

	progress := float64(v.elapsed) / float64(v.duration)
	eased := v.ease()(progress)
	v.current = v.start + (v.target-v.start)*eased
}

// Current returns the interpolated value.
func (v *Value) Current() float64 { return v.current }

// Target returns the value being animated toward.
func (v *Value) Target() float64 { return v.target }

// Running reports whether the interpolation has time left.
func (v *Value) Running() bool { return v.elapsed < v.duration }

func (v *Value) ease() EasingFunc {
	if v.easing == nil {
		return EaseSmoothstep
	}
	return v.easing
}
