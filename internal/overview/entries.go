package overview

import (
	"sort"

	"github.com/1broseidon/winscale/internal/anim"
	"github.com/1broseidon/winscale/internal/platform"
)

// TransformName is the name of the overview contribution in every window's
// transform stack.
const TransformName = "scale"

// TransformPriority places the overview above window-manager transforms.
const TransformPriority = platform.PriorityHighLevel + 1

// Entry is the overview state of one window.
type Entry struct {
	Window platform.WindowID
	Parent platform.WindowID // top-level ancestor, 0 for top-level windows
	Cell   Cell
	// InGrid is false for entries animating back to identity after leaving
	// the candidate set.
	InGrid    bool
	Transform anim.Transform

	handle   *platform.Transform
	geometry *platform.Subscription
}

// add attaches the overview transform to a window and creates its entry.
// It reports whether a new entry was created.
func (c *Controller) add(id, parent platform.WindowID) (*Entry, bool) {
	if e, ok := c.session.Entries[id]; ok {
		return e, false
	}

	handle, ok := c.output.Transform(id, TransformName)
	if !ok {
		handle = c.output.AttachTransform(id, TransformName, TransformPriority)
	}

	e := &Entry{
		Window:    id,
		Parent:    parent,
		Transform: anim.NewTransform(c.opts.Duration, c.opts.Easing),
		handle:    handle,
	}
	e.geometry = c.output.SubscribeWindow(platform.EventGeometryChanged, id, c.onGeometryChanged)
	c.session.Entries[id] = e
	return e, true
}

// remove detaches the transform and geometry subscription of an entry and
// drops it from the map.
func (c *Controller) remove(id platform.WindowID) {
	e, ok := c.session.Entries[id]
	if !ok {
		return
	}
	e.geometry.Unsubscribe()
	c.output.DetachTransform(id, TransformName)
	delete(c.session.Entries, id)
}

// apply starts an entry toward a target transform.
func (c *Controller) apply(e *Entry, scale, tx, ty, opacity float64) {
	// a relayout with unchanged targets must not restart the interpolation
	t := &e.Transform
	if t.ScaleX.Target() != scale || t.ScaleY.Target() != scale ||
		t.TranslateX.Target() != tx || t.TranslateY.Target() != ty {
		t.AnimateTo(scale, scale, tx, ty)
	}
	if t.Opacity.Target() != opacity {
		t.Opacity.Animate(opacity)
	}
	e.sync()
}

// sync copies the animated values into the renderer's handle.
func (e *Entry) sync() {
	if e.handle == nil {
		return
	}
	e.handle.ScaleX = e.Transform.ScaleX.Current()
	e.handle.ScaleY = e.Transform.ScaleY.Current()
	e.handle.TranslateX = e.Transform.TranslateX.Current()
	e.handle.TranslateY = e.Transform.TranslateY.Current()
	e.handle.Opacity = e.Transform.Opacity.Current()
}

// sortedEntries returns entries ordered by window id, children before
// their parents so that hit testing finds dialogs on top.
func (c *Controller) sortedEntries() []*Entry {
	out := make([]*Entry, 0, len(c.session.Entries))
	for _, e := range c.session.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Parent != 0, out[j].Parent != 0
		if ci != cj {
			return ci
		}
		return out[i].Window < out[j].Window
	})
	return out
}

// tree returns the top-level ancestor of an entry's window.
func (e *Entry) tree() platform.WindowID {
	if e.Parent != 0 {
		return e.Parent
	}
	return e.Window
}
