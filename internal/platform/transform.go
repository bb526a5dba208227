package platform

import "sort"

// Priorities order contributions in a window's transform stack. Higher
// priorities are applied later, on top of lower ones.
const (
	PriorityWindowManager = 100
	PriorityHighLevel     = 500
)

// Transform is a mutable render-transform handle. The renderer reads it once
// per frame; the owner writes it whenever its animation advances.
type Transform struct {
	ScaleX     float64
	ScaleY     float64
	TranslateX float64
	TranslateY float64
	Opacity    float64
}

// Identity returns the transform that leaves a window unchanged.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1, Opacity: 1}
}

// IsIdentity reports whether t leaves a window unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Then returns t followed by next. Scales and opacities multiply and
// translations add; every contribution scales around the window centre.
func (t Transform) Then(next Transform) Transform {
	return Transform{
		ScaleX:     t.ScaleX * next.ScaleX,
		ScaleY:     t.ScaleY * next.ScaleY,
		TranslateX: t.TranslateX + next.TranslateX,
		TranslateY: t.TranslateY + next.TranslateY,
		Opacity:    t.Opacity * next.Opacity,
	}
}

// Apply maps a rectangle through t, scaling around its centre.
func (t Transform) Apply(r Rect) Rect {
	w := float64(r.Width) * t.ScaleX
	h := float64(r.Height) * t.ScaleY
	cx := float64(r.X) + float64(r.Width)/2 + t.TranslateX
	cy := float64(r.Y) + float64(r.Height)/2 + t.TranslateY
	return Rect{
		X:      roundInt(cx - w/2),
		Y:      roundInt(cy - h/2),
		Width:  roundInt(w),
		Height: roundInt(h),
	}
}

type namedTransform struct {
	name     string
	priority int
	handle   *Transform
}

// TransformStack is the ordered set of named transforms attached to one
// window.
type TransformStack struct {
	entries []namedTransform
}

// Attach adds a named contribution, or returns the existing handle when the
// name is already attached.
func (s *TransformStack) Attach(name string, priority int) (*Transform, bool) {
	if h, ok := s.Get(name); ok {
		return h, false
	}
	h := Identity()
	s.entries = append(s.entries, namedTransform{name: name, priority: priority, handle: &h})
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].priority < s.entries[j].priority
	})
	return &h, true
}

// Get returns the handle attached under name.
func (s *TransformStack) Get(name string) (*Transform, bool) {
	for _, e := range s.entries {
		if e.name == name {
			return e.handle, true
		}
	}
	return nil, false
}

// Detach removes the named contribution. It reports whether one was removed.
func (s *TransformStack) Detach(name string) bool {
	for i, e := range s.entries {
		if e.name == name {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of attached contributions.
func (s *TransformStack) Len() int {
	return len(s.entries)
}

// Names lists contributions in application order.
func (s *TransformStack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

// Compose folds every contribution in priority order.
func (s *TransformStack) Compose() Transform {
	out := Identity()
	for _, e := range s.entries {
		out = out.Then(*e.handle)
	}
	return out
}

// TransformSet keeps a stack per window.
type TransformSet struct {
	stacks map[WindowID]*TransformStack
}

// Attach adds a named transform to a window's stack.
func (ts *TransformSet) Attach(id WindowID, name string, priority int) (*Transform, bool) {
	if ts.stacks == nil {
		ts.stacks = make(map[WindowID]*TransformStack)
	}
	stack, ok := ts.stacks[id]
	if !ok {
		stack = &TransformStack{}
		ts.stacks[id] = stack
	}
	return stack.Attach(name, priority)
}

// Get returns a named transform of a window.
func (ts *TransformSet) Get(id WindowID, name string) (*Transform, bool) {
	stack, ok := ts.stacks[id]
	if !ok {
		return nil, false
	}
	return stack.Get(name)
}

// Detach removes a named transform. It reports whether the window has no
// transforms left.
func (ts *TransformSet) Detach(id WindowID, name string) (removed, empty bool) {
	stack, ok := ts.stacks[id]
	if !ok {
		return false, true
	}
	removed = stack.Detach(name)
	if stack.Len() == 0 {
		delete(ts.stacks, id)
		return removed, true
	}
	return removed, false
}

// Composed returns the folded transform of a window and whether it has any.
func (ts *TransformSet) Composed(id WindowID) (Transform, bool) {
	stack, ok := ts.stacks[id]
	if !ok {
		return Identity(), false
	}
	return stack.Compose(), true
}

// Windows lists windows carrying at least one transform.
func (ts *TransformSet) Windows() []WindowID {
	out := make([]WindowID, 0, len(ts.stacks))
	for id := range ts.stacks {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Forget drops every transform of a window, e.g. once it is destroyed.
func (ts *TransformSet) Forget(id WindowID) {
	delete(ts.stacks, id)
}

func roundInt(f float64) int {
	if f < 0 {
		return -int(-f + 0.5)
	}
	return int(f + 0.5)
}
