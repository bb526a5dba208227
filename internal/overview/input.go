package overview

import (
	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/tiling"
)

var _ platform.InputHandler = (*Controller)(nil)

// HandleButton processes pointer buttons. A selection needs the press and
// the release of the same button over the same window; anything else
// cancels it.
func (c *Controller) HandleButton(ev platform.ButtonEvent) {
	c.processInput(ev.Button, ev.Pressed, ev.X, ev.Y)
}

// HandleTouch treats the first contact as the left button. Other contacts
// are ignored.
func (c *Controller) HandleTouch(ev platform.TouchEvent) {
	if ev.ID != 0 {
		return
	}
	c.processInput(platform.ButtonLeft, ev.Down, ev.X, ev.Y)
}

func (c *Controller) processInput(button platform.Button, pressed bool, x, y int) {
	if !c.session.Active {
		return
	}

	id := c.windowAt(x, y)
	if pressed {
		c.session.LastPressed = id
		c.session.LastButton = button
		return
	}

	if id == 0 || id != c.session.LastPressed || button != c.session.LastButton {
		// dragged off the window, or a different button came up
		c.session.LastPressed = 0
		return
	}
	c.session.LastPressed = 0

	switch button {
	case platform.ButtonLeft:
		c.session.CurrentFocus = id
		if err := c.output.Focus(id); err != nil {
			c.logger.Debug("overview: focus failed", "window", id, "error", err)
		}
		c.emphasize(id)
		if !c.opts.Interact {
			c.session.InitialFocus = 0
			c.deactivate()
			c.selectWindow(id)
		}
	case platform.ButtonMiddle:
		if c.opts.MiddleClickClose {
			c.logger.Debug("overview: closing window", "window", id)
			if err := c.output.Close(id); err != nil {
				c.logger.Warn("overview: close failed", "window", id, "error", err)
			}
		}
	}
}

// windowAt hit tests the animated rectangles of grid entries, children
// first.
func (c *Controller) windowAt(x, y int) platform.WindowID {
	for _, e := range c.sortedEntries() {
		if !e.InGrid {
			continue
		}
		w, ok := c.output.Window(e.Window)
		if !ok {
			continue
		}
		t := &e.Transform
		r := tiling.ScaledRect(tilingRect(w.Geometry),
			t.ScaleX.Current(), t.ScaleY.Current(),
			t.TranslateX.Current(), t.TranslateY.Current())
		if r.Contains(x, y) {
			return e.Window
		}
	}
	return 0
}

// HandleKey processes keyboard input, which only arrives while grabbed.
func (c *Controller) HandleKey(ev platform.KeyEvent) {
	if !c.session.Active {
		// the key that ended the session is being released
		c.finishInput()
		return
	}

	focused, _ := c.output.Focused()
	e, ok := c.session.Entries[focused]
	if !ok {
		// focus left the overview, e.g. to a window mapped on another
		// workspace; take it back and act on the overview's own focus
		e = c.session.Entries[c.session.CurrentFocus]
		if c.session.CurrentFocus != 0 {
			c.emphasize(c.session.CurrentFocus)
			if err := c.output.Focus(c.session.CurrentFocus); err != nil {
				c.logger.Debug("overview: focus failed", "window", c.session.CurrentFocus, "error", err)
			}
		}
	}

	if !ev.Pressed && (ev.Key == platform.KeyEnter || ev.Key == platform.KeyEscape) {
		c.session.InputReleasePending = false
	}
	if !ev.Pressed || ev.Modifiers != 0 {
		return
	}

	var dir Direction
	switch ev.Key {
	case platform.KeyUp:
		dir = DirUp
	case platform.KeyDown:
		dir = DirDown
	case platform.KeyLeft:
		dir = DirLeft
	case platform.KeyRight:
		dir = DirRight

	case platform.KeyEnter:
		c.session.InputReleasePending = true
		selected := c.session.CurrentFocus
		c.deactivate()
		c.selectWindow(selected)
		return

	case platform.KeyEscape:
		c.session.InputReleasePending = true
		initialFocus := c.session.InitialFocus
		initialWorkspace := c.session.InitialWorkspace
		c.session.CurrentFocus = initialFocus
		c.deactivate()
		if initialFocus != 0 {
			if err := c.output.Focus(initialFocus); err != nil {
				c.logger.Debug("overview: focus failed", "window", initialFocus, "error", err)
			}
		}
		c.session.InitialFocus = 0
		if err := c.output.RequestWorkspace(initialWorkspace, nil); err != nil {
			c.logger.Debug("overview: workspace restore failed", "workspace", initialWorkspace, "error", err)
		}
		return

	default:
		return
	}

	var target platform.WindowID
	if e != nil {
		target = c.windowInCell(Navigate(c.session.Grid, e.Cell, dir))
	} else {
		target = c.firstCandidate()
	}
	if target != 0 && target != c.session.CurrentFocus {
		if err := c.output.Focus(target); err != nil {
			c.logger.Debug("overview: focus failed", "window", target, "error", err)
		}
	}
}

// windowInCell returns the top-level window in a grid cell, or the first
// candidate when the cell is empty.
func (c *Controller) windowInCell(cell Cell) platform.WindowID {
	for _, e := range c.session.Entries {
		if e.Parent == 0 && e.InGrid && e.Cell == cell {
			return e.Window
		}
	}
	return c.firstCandidate()
}

func (c *Controller) firstCandidate() platform.WindowID {
	candidates := c.candidates(c.session.Scope)
	if len(candidates) == 0 {
		return 0
	}
	return candidates[0].ID
}

// finishInput releases the grab held for a pending key release.
func (c *Controller) finishInput() {
	c.session.InputReleasePending = false
	c.ungrab()
	if !c.Animating() {
		c.finalize()
	}
}
