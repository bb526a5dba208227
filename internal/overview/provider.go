package overview

import (
	"github.com/samber/lo"

	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/tiling"
)

// maxParentDepth bounds parent walks so a cyclic transient chain cannot hang
// the loop.
const maxParentDepth = 16

// listWindows queries the output afresh. Errors are logged and treated as an
// empty window set.
func (c *Controller) listWindows() []platform.Window {
	windows, err := c.output.Windows()
	if err != nil {
		c.logger.Warn("overview: failed to list windows", "output", c.output.Name(), "error", err)
		return nil
	}
	return windows
}

// candidates returns the top-level windows that belong in the grid for the
// given scope.
func (c *Controller) candidates(scope Scope) []platform.Window {
	return c.filterCandidates(c.listWindows(), scope)
}

func (c *Controller) filterCandidates(windows []platform.Window, scope Scope) []platform.Window {
	current := c.output.CurrentWorkspace()
	return lo.Filter(windows, func(w platform.Window, _ int) bool {
		if w.Parent != 0 || w.Role != platform.RoleToplevel || !w.Mapped {
			return false
		}
		if w.Minimized() && !c.opts.ShowMinimized {
			return false
		}
		if scope == ScopeCurrentWorkspace {
			return w.Workspace == current
		}
		return true
	})
}

// allSameAsCurrentWorkspace reports whether both scopes select the same
// windows, in which case switching between them would change nothing.
func (c *Controller) allSameAsCurrentWorkspace() bool {
	windows := c.listWindows()
	return len(c.filterCandidates(windows, ScopeAllWorkspaces)) ==
		len(c.filterCandidates(windows, ScopeCurrentWorkspace))
}

// isCandidate reports whether a window, or its top-level ancestor, is in the
// current candidate set.
func (c *Controller) isCandidate(id platform.WindowID) bool {
	top := c.topParent(id)
	return lo.ContainsBy(c.candidates(c.session.Scope), func(w platform.Window) bool {
		return w.ID == top
	})
}

// topParent walks parent links up to the top-level window. Windows the
// output no longer knows fall back to the entry's recorded parent.
func (c *Controller) topParent(id platform.WindowID) platform.WindowID {
	if id == 0 {
		return 0
	}
	current := id
	for i := 0; i < maxParentDepth; i++ {
		w, ok := c.output.Window(current)
		if !ok {
			if e, known := c.session.Entries[current]; known {
				return e.tree()
			}
			return current
		}
		if w.Parent == 0 {
			return current
		}
		current = w.Parent
	}
	return current
}

// layoutInput builds the layout engine's view of the candidates, attaching
// every mapped descendant to its top-level window.
func (c *Controller) layoutInput(windows, candidates []platform.Window) []tiling.Window {
	children := make(map[platform.WindowID][]tiling.Window)
	for _, w := range windows {
		if w.Parent == 0 || !w.Mapped {
			continue
		}
		top := c.topParent(w.ID)
		children[top] = append(children[top], tiling.Window{
			ID:       uint32(w.ID),
			Geometry: tilingRect(w.Geometry),
		})
	}

	return lo.Map(candidates, func(w platform.Window, _ int) tiling.Window {
		return tiling.Window{
			ID:       uint32(w.ID),
			Geometry: tilingRect(w.Geometry),
			Children: children[w.ID],
		}
	})
}

// promote moves minimized candidates into the workspace layer and tags them.
func (c *Controller) promote(candidates []platform.Window) {
	if !c.opts.ShowMinimized {
		return
	}
	for _, w := range candidates {
		if !w.Minimized() {
			continue
		}
		if err := c.output.MoveToLayer(w.ID, platform.LayerWorkspace); err != nil {
			c.logger.Warn("overview: failed to restore minimized window", "window", w.ID, "error", err)
			continue
		}
		c.session.promoted[w.ID] = true
	}
}

// demote minimizes promoted windows again, except the one being selected.
// Windows destroyed while promoted have already lost their tag.
func (c *Controller) demote() {
	for id := range c.session.promoted {
		delete(c.session.promoted, id)
		if id == c.session.CurrentFocus {
			continue
		}
		if _, ok := c.output.Window(id); !ok {
			continue
		}
		if err := c.output.MoveToLayer(id, platform.LayerMinimized); err != nil {
			c.logger.Warn("overview: failed to re-minimize window", "window", id, "error", err)
		}
	}
}

func tilingRect(r platform.Rect) tiling.Rect {
	return tiling.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
