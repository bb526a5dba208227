package overview

import (
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/1broseidon/winscale/internal/platform"
	"github.com/1broseidon/winscale/internal/tiling"
)

// FeatureName identifies the overview when claiming an output.
const FeatureName = "scale"

// Controller runs the overview on one output. All methods must be called
// from the daemon loop goroutine.
type Controller struct {
	output platform.Output
	opts   Options
	logger *slog.Logger

	session Session

	// lifecycle subscriptions dropped on deactivate
	lifecycle []*platform.Subscription
	// detached stays connected until finalize
	detached *platform.Subscription
}

// NewController creates an inactive controller for output.
func NewController(output platform.Output, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		output:  output,
		opts:    opts,
		logger:  logger,
		session: newSession(),
	}
}

// Output returns the output this controller runs on.
func (c *Controller) Output() platform.Output { return c.output }

// Session returns a copy of the session for inspection.
func (c *Controller) Session() Session { return c.session }

// Active reports whether the overview is showing or animating in.
func (c *Controller) Active() bool { return c.session.Active }

// Animating reports whether any entry is still interpolating.
func (c *Controller) Animating() bool {
	for _, e := range c.session.Entries {
		if e.Transform.Running() {
			return true
		}
	}
	return false
}

// NeedsFrame reports whether Tick has work to do: an animation is running
// or a phase change is waiting for the next frame.
func (c *Controller) NeedsFrame() bool {
	switch c.session.Phase {
	case PhaseActivating, PhaseDeactivating:
		return true
	}
	return c.Animating()
}

// Toggle shows the overview for scope, or hides it when it is already
// showing that scope. Toggling with the other scope while active switches
// scope in place. It reports whether anything changed.
func (c *Controller) Toggle(scope Scope) bool {
	if c.session.Active && (scope == c.session.Scope || c.allSameAsCurrentWorkspace()) {
		c.deactivate()
		return true
	}

	previous := c.session.Scope
	c.session.Scope = scope
	if c.session.Active {
		c.switchScope()
		return true
	}
	if !c.activate() {
		c.session.Scope = previous
		return false
	}
	return true
}

func (c *Controller) activate() bool {
	if c.session.Active {
		return false
	}

	c.setPassthrough(c.opts.Interact)
	if !c.output.Activate(FeatureName) {
		c.logger.Debug("overview: output busy", "output", c.output.Name())
		return false
	}

	candidates := c.candidates(c.session.Scope)
	if len(candidates) == 0 {
		if !c.session.activated {
			c.output.Deactivate(FeatureName)
		}
		c.logger.Debug("overview: nothing to show", "output", c.output.Name(), "scope", c.session.Scope)
		return false
	}

	if !c.opts.Interact && !c.session.grabbed {
		if !c.output.Grab() {
			if !c.session.activated {
				c.output.Deactivate(FeatureName)
			}
			c.logger.Warn("overview: input grab denied", "output", c.output.Name())
			return false
		}
		c.session.grabbed = true
	}
	c.session.activated = true

	c.session.InitialWorkspace = c.output.CurrentWorkspace()
	c.session.InitialFocus, _ = c.output.Focused()
	c.session.CurrentFocus = candidates[0].ID
	if c.session.InitialFocus != 0 {
		top := c.topParent(c.session.InitialFocus)
		if lo.ContainsBy(candidates, func(w platform.Window) bool { return w.ID == top }) {
			c.session.CurrentFocus = c.session.InitialFocus
		}
	}
	c.session.LastPressed = 0
	c.session.InputReleasePending = false

	if focused, _ := c.output.Focused(); focused != c.session.CurrentFocus {
		if err := c.output.Focus(c.session.CurrentFocus); err != nil {
			c.logger.Debug("overview: focus failed", "window", c.session.CurrentFocus, "error", err)
		}
	}

	c.session.Active = true
	c.session.Phase = PhaseActivating

	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
		c.finalize()
		return false
	}
	if !c.session.Active {
		return false
	}

	c.connect()
	c.output.SetInputHandler(c)
	c.emphasize(c.session.CurrentFocus)

	c.logger.Info("overview activated",
		"output", c.output.Name(),
		"scope", c.session.Scope,
		"windows", len(candidates),
		"rows", c.session.Grid.Rows,
		"cols", c.session.Grid.Cols,
	)
	return true
}

// connect subscribes to lifecycle notifications for the active session.
func (c *Controller) connect() {
	c.disconnectLifecycle()
	c.lifecycle = []*platform.Subscription{
		c.output.Subscribe(platform.EventWindowAttached, c.onAttached),
		c.output.Subscribe(platform.EventWindowMinimized, c.onMinimized),
		c.output.Subscribe(platform.EventWindowUnmapped, c.onUnmapped),
		c.output.Subscribe(platform.EventFocusChanged, c.onFocusChanged),
		c.output.Subscribe(platform.EventWorkspaceChanged, c.onWorkspaceChanged),
	}
	if c.detached == nil {
		c.detached = c.output.Subscribe(platform.EventWindowDetached, c.onDetached)
	}
}

func (c *Controller) disconnectLifecycle() {
	for _, sub := range c.lifecycle {
		sub.Unsubscribe()
	}
	c.lifecycle = nil
}

// switchScope re-runs the layout after the scope changed while active.
// Windows that drop out of the set animate back to their real geometry.
func (c *Controller) switchScope() {
	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
		return
	}
	c.logger.Debug("overview: scope switched", "output", c.output.Name(), "scope", c.session.Scope)
}

// relayout recomputes the grid from a fresh candidate list and animates
// every entry toward its new placement. An empty set ends the session.
func (c *Controller) relayout() error {
	if !c.session.Active {
		return nil
	}

	windows := c.listWindows()
	candidates := c.filterCandidates(windows, c.session.Scope)
	if len(candidates) == 0 {
		c.deactivate()
		return nil
	}

	c.promote(candidates)

	grid, placements, err := tiling.LayoutGrid(c.layoutInput(windows, candidates), tilingRect(c.output.WorkArea()), c.opts.layout())
	if err != nil {
		return err
	}
	c.session.Grid = grid

	for _, e := range c.session.Entries {
		e.InGrid = false
	}

	focusTree := c.topParent(c.session.CurrentFocus)
	parents := make(map[platform.WindowID]*Entry)
	for _, p := range placements {
		id := platform.WindowID(p.ID)
		parent := platform.WindowID(p.Parent)

		e, created := c.add(id, parent)
		e.Parent = parent
		if created && parent != 0 {
			if pe, ok := parents[parent]; ok {
				e.Transform.TranslateX.Set(pe.Transform.TranslateX.Current())
				e.Transform.TranslateY.Set(pe.Transform.TranslateY.Current())
			}
		}
		if parent == 0 {
			parents[id] = e
		}

		e.Cell = Cell{Row: p.Row, Col: p.Col}
		e.InGrid = true

		opacity := c.opts.InactiveAlpha
		if e.tree() == focusTree {
			opacity = 1
		}
		c.apply(e, p.Scale, p.TranslateX, p.TranslateY, opacity)
	}

	for _, e := range c.session.Entries {
		if !e.InGrid {
			c.apply(e, 1, 0, 0, 1)
		}
	}
	return nil
}

// Deactivate animates the overview out. It is a no-op when inactive.
func (c *Controller) Deactivate() {
	if !c.session.Active {
		return
	}
	c.deactivate()
}

func (c *Controller) deactivate() {
	c.session.Active = false
	c.session.Phase = PhaseDeactivating

	c.disconnectLifecycle()
	c.demote()

	if !c.session.InputReleasePending {
		c.ungrab()
		c.release()
	}

	for _, e := range c.session.Entries {
		c.apply(e, 1, 0, 0, 1)
	}

	c.refocus()
	c.logger.Info("overview deactivated", "output", c.output.Name())

	if len(c.session.Entries) == 0 || !c.Animating() {
		if !c.session.InputReleasePending {
			c.finalize()
		}
	}
}

// refocus focuses the current window and switches to its workspace.
func (c *Controller) refocus() {
	if c.session.CurrentFocus == 0 {
		return
	}
	if err := c.output.Focus(c.session.CurrentFocus); err != nil {
		c.logger.Debug("overview: refocus failed", "window", c.session.CurrentFocus, "error", err)
		return
	}
	c.selectWindow(c.session.CurrentFocus)
}

// selectWindow switches to the workspace holding a window's top-level
// ancestor.
func (c *Controller) selectWindow(id platform.WindowID) {
	if id == 0 {
		return
	}
	w, ok := c.output.Window(c.topParent(id))
	if !ok {
		return
	}
	if w.Workspace == c.output.CurrentWorkspace() {
		return
	}
	if err := c.output.RequestWorkspace(w.Workspace, nil); err != nil {
		c.logger.Debug("overview: workspace switch failed", "workspace", w.Workspace, "error", err)
	}
}

// Finalize ends the session immediately. It is safe in any state.
func (c *Controller) Finalize() {
	c.finalize()
}

func (c *Controller) finalize() {
	if c.session.Phase != PhaseInactive {
		c.session.Phase = PhaseFinalizing
	}
	c.session.Active = false
	c.session.InputReleasePending = false

	for _, e := range c.sortedEntries() {
		c.remove(e.Window)
	}
	c.demote()
	c.ungrab()

	c.disconnectLifecycle()
	if c.detached != nil {
		c.detached.Unsubscribe()
		c.detached = nil
	}
	c.output.SetInputHandler(nil)
	c.release()

	c.session.Reset()
}

func (c *Controller) ungrab() {
	if !c.session.grabbed {
		return
	}
	c.output.Ungrab()
	c.session.grabbed = false
}

func (c *Controller) release() {
	if !c.session.activated {
		return
	}
	c.output.Deactivate(FeatureName)
	c.session.activated = false
}

// Tick advances every animation by dt and pushes the values to the
// renderer. It reports whether another frame is needed.
func (c *Controller) Tick(dt time.Duration) bool {
	running := false
	for _, e := range c.session.Entries {
		e.Transform.Tick(dt)
		e.sync()
		if e.Transform.Running() {
			running = true
		}
	}
	if running {
		return true
	}

	switch c.session.Phase {
	case PhaseActivating:
		c.session.Phase = PhaseActive
	case PhaseDeactivating:
		c.finalize()
	}
	return false
}

// SwitchWorkspace moves the output to a neighbouring workspace while the
// overview is showing. In current-workspace scope the focused window travels
// along. It reports whether the request was consumed.
func (c *Controller) SwitchWorkspace(dx, dy int) bool {
	if !c.session.Active {
		return false
	}
	if dx == 0 && dy == 0 {
		return true
	}

	target := c.output.CurrentWorkspace().Add(dx, dy)
	var pinned []platform.WindowID
	if c.session.Scope == ScopeCurrentWorkspace && c.session.CurrentFocus != 0 {
		pinned = []platform.WindowID{c.session.CurrentFocus}
	}
	if err := c.output.RequestWorkspace(target, pinned); err != nil {
		c.logger.Debug("overview: workspace switch rejected", "workspace", target, "error", err)
	}
	return true
}

// UpdateOptions applies new options. An active session picks up changes to
// input grabbing and layout immediately.
func (c *Controller) UpdateOptions(opts Options) {
	old := c.opts
	c.opts = opts

	for _, e := range c.session.Entries {
		e.Transform.SetDuration(opts.Duration)
	}

	if !c.session.Active {
		return
	}

	if old.Interact != opts.Interact {
		c.setPassthrough(opts.Interact)
		if opts.Interact {
			c.ungrab()
		} else if !c.session.grabbed {
			c.session.grabbed = c.output.Grab()
		}
	}

	if old.AllowZoom != opts.AllowZoom || old.Spacing != opts.Spacing ||
		old.ChildScaleCeiling != opts.ChildScaleCeiling || old.ShowMinimized != opts.ShowMinimized {
		if err := c.relayout(); err != nil {
			c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
		}
	}
}

// setPassthrough lets clicks reach the windows in interactive mode.
func (c *Controller) setPassthrough(on bool) {
	if p, ok := c.output.(platform.PointerPassthrough); ok {
		p.SetPointerPassthrough(on)
	}
}

// emphasize fades every window outside the focused tree to the inactive
// opacity and the focused tree to full opacity.
func (c *Controller) emphasize(id platform.WindowID) {
	if id == 0 {
		return
	}
	focusTree := c.topParent(id)
	for _, e := range c.session.Entries {
		if !e.InGrid {
			continue
		}
		target := c.opts.InactiveAlpha
		if e.tree() == focusTree {
			target = 1
		}
		if e.Transform.Opacity.Target() != target {
			e.Transform.Opacity.Animate(target)
		}
	}
}

// checkFocus moves focus bookkeeping off a window that is going away.
func (c *Controller) checkFocus(id platform.WindowID) {
	if id == c.session.CurrentFocus {
		c.session.CurrentFocus, _ = c.output.Focused()
		if c.session.CurrentFocus == id {
			c.session.CurrentFocus = 0
		}
	}
	if id == c.session.InitialFocus {
		c.session.InitialFocus = 0
	}
	if id == c.session.LastPressed {
		c.session.LastPressed = 0
	}
}

func (c *Controller) onAttached(ev platform.Event) {
	if !c.isCandidate(ev.Window) {
		return
	}
	c.logger.Debug("overview: window attached", "window", ev.Window)
	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
	}
}

func (c *Controller) onDetached(ev platform.Event) {
	c.checkFocus(ev.Window)
	c.windowDisappeared(ev.Window)
}

func (c *Controller) onMinimized(ev platform.Event) {
	if c.opts.ShowMinimized {
		return
	}
	if ev.Minimized {
		c.windowDisappeared(ev.Window)
		return
	}
	if c.isCandidate(ev.Window) {
		if err := c.relayout(); err != nil {
			c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
		}
	}
}

func (c *Controller) onUnmapped(ev platform.Event) {
	c.checkFocus(ev.Window)
	c.windowDisappeared(ev.Window)
}

func (c *Controller) onGeometryChanged(ev platform.Event) {
	if !c.session.Active {
		return
	}
	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
	}
}

func (c *Controller) onFocusChanged(ev platform.Event) {
	if _, ok := c.session.Entries[ev.Window]; !ok {
		return
	}
	c.session.CurrentFocus = ev.Window
	c.emphasize(ev.Window)
}

func (c *Controller) onWorkspaceChanged(platform.Event) {
	if c.session.CurrentFocus != 0 {
		if err := c.output.Focus(c.session.CurrentFocus); err != nil {
			c.logger.Debug("overview: refocus failed", "window", c.session.CurrentFocus, "error", err)
		}
	}
	// window geometry is relative to the visible workspace, so every
	// placement moved
	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
	}
}

// windowDisappeared drops a window and its descendants from the overview.
func (c *Controller) windowDisappeared(id platform.WindowID) {
	delete(c.session.promoted, id)
	e, ok := c.session.Entries[id]
	if !ok {
		return
	}

	topLevel := e.Parent == 0
	for _, other := range c.sortedEntries() {
		if other.Window == id || (topLevel && other.Parent == id) {
			c.checkFocus(other.Window)
			c.remove(other.Window)
		}
	}

	if len(c.session.Entries) == 0 {
		c.finalize()
		return
	}
	if err := c.relayout(); err != nil {
		c.logger.Warn("overview: layout failed", "output", c.output.Name(), "error", err)
	}
}

// Status is a snapshot of the controller for reporting.
type Status struct {
	Output       string         `json:"output"`
	Phase        string         `json:"phase"`
	Scope        string         `json:"scope"`
	Active       bool           `json:"active"`
	Rows         int            `json:"rows"`
	Cols         int            `json:"cols"`
	LastRowCols  int            `json:"last_row_cols"`
	CurrentFocus uint32         `json:"current_focus,omitempty"`
	InitialFocus uint32         `json:"initial_focus,omitempty"`
	Windows      []WindowStatus `json:"windows,omitempty"`
}

// WindowStatus describes one entry.
type WindowStatus struct {
	ID     uint32 `json:"id"`
	Parent uint32 `json:"parent,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	InGrid bool   `json:"in_grid"`
	Title  string `json:"title,omitempty"`
}

// Status reports the current session.
func (c *Controller) Status() Status {
	st := Status{
		Output:       c.output.Name(),
		Phase:        c.session.Phase.String(),
		Scope:        c.session.Scope.String(),
		Active:       c.session.Active,
		Rows:         c.session.Grid.Rows,
		Cols:         c.session.Grid.Cols,
		LastRowCols:  c.session.Grid.LastRowCols,
		CurrentFocus: uint32(c.session.CurrentFocus),
		InitialFocus: uint32(c.session.InitialFocus),
	}
	for _, e := range c.sortedEntries() {
		ws := WindowStatus{
			ID:     uint32(e.Window),
			Parent: uint32(e.Parent),
			Row:    e.Cell.Row,
			Col:    e.Cell.Col,
			InGrid: e.InGrid,
		}
		if w, ok := c.output.Window(e.Window); ok {
			ws.Title = w.Title
		}
		st.Windows = append(st.Windows, ws)
	}
	return st
}
