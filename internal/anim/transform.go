package anim

import "time"

// Transform is the animated visual state of one window: scale around the
// window centre, translation, and opacity.
type Transform struct {
	ScaleX     Value
	ScaleY     Value
	TranslateX Value
	TranslateY Value
	Opacity    Value
}

// NewTransform returns a settled identity transform.
func NewTransform(duration time.Duration, easing EasingFunc) Transform {
	return Transform{
		ScaleX:     NewValue(1, duration, easing),
		ScaleY:     NewValue(1, duration, easing),
		TranslateX: NewValue(0, duration, easing),
		TranslateY: NewValue(0, duration, easing),
		Opacity:    NewValue(1, duration, easing),
	}
}

func (t *Transform) values() []*Value {
	return []*Value{&t.ScaleX, &t.ScaleY, &t.TranslateX, &t.TranslateY, &t.Opacity}
}

// AnimateTo starts every component toward the given targets.
func (t *Transform) AnimateTo(scaleX, scaleY, translateX, translateY float64) {
	t.ScaleX.Animate(scaleX)
	t.ScaleY.Animate(scaleY)
	t.TranslateX.Animate(translateX)
	t.TranslateY.Animate(translateY)
}

// SetDuration applies d to every component.
func (t *Transform) SetDuration(d time.Duration) {
	for _, v := range t.values() {
		v.SetDuration(d)
	}
}

// Tick advances every component by dt.
func (t *Transform) Tick(dt time.Duration) {
	for _, v := range t.values() {
		v.Tick(dt)
	}
}

// Running reports whether any component is still interpolating.
func (t *Transform) Running() bool {
	for _, v := range t.values() {
		if v.Running() {
			return true
		}
	}
	return false
}

// IsIdentity reports whether the current values are scale 1, translate 0,
// opacity 1.
func (t *Transform) IsIdentity() bool {
	return t.ScaleX.Current() == 1 && t.ScaleY.Current() == 1 &&
		t.TranslateX.Current() == 0 && t.TranslateY.Current() == 0 &&
		t.Opacity.Current() == 1
}
