package platform

import (
	"fmt"
	"math"
	"sort"
)

// MemoryBackend is an in-process window system. It models one or more
// outputs with a workspace grid, layers, focus and transform stacks, and
// emits the same notifications as a real backend.
type MemoryBackend struct {
	outputs []*MemoryOutput
	active  int
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend with the given outputs. The first one
// is active.
func NewMemoryBackend(outputs ...*MemoryOutput) *MemoryBackend {
	return &MemoryBackend{outputs: outputs}
}

// Outputs returns every output.
func (b *MemoryBackend) Outputs() ([]Output, error) {
	out := make([]Output, len(b.outputs))
	for i, o := range b.outputs {
		out[i] = o
	}
	return out, nil
}

// ActiveOutput returns the output that receives toggles.
func (b *MemoryBackend) ActiveOutput() (Output, error) {
	if len(b.outputs) == 0 {
		return nil, fmt.Errorf("no outputs")
	}
	return b.outputs[b.active], nil
}

// SetActive selects the active output by name.
func (b *MemoryBackend) SetActive(name string) error {
	for i, o := range b.outputs {
		if o.name == name {
			b.active = i
			return nil
		}
	}
	return fmt.Errorf("output %q not found", name)
}

// MemoryOutput is one simulated display.
type MemoryOutput struct {
	Emitter

	name      string
	geometry  Rect
	workArea  Rect
	gridCols  int
	gridRows  int
	workspace Workspace

	windows map[WindowID]*Window
	order   []WindowID
	focused WindowID

	transforms TransformSet

	feature     string
	grabbed     bool
	passthrough bool
	input       InputHandler

	// DenyGrab makes Grab fail, as when another client holds the keyboard.
	DenyGrab bool

	GrabCalls   int
	UngrabCalls int
	Closed      []WindowID
	Requests    []WorkspaceRequest
}

// WorkspaceRequest records a RequestWorkspace call.
type WorkspaceRequest struct {
	Workspace Workspace
	Pinned    []WindowID
}

var (
	_ Output             = (*MemoryOutput)(nil)
	_ PointerPassthrough = (*MemoryOutput)(nil)
)

// NewMemoryOutput creates an output with a cols x rows workspace grid.
func NewMemoryOutput(name string, geometry Rect, cols, rows int) *MemoryOutput {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &MemoryOutput{
		name:     name,
		geometry: geometry,
		workArea: geometry,
		gridCols: cols,
		gridRows: rows,
		windows:  make(map[WindowID]*Window),
	}
}

// SetWorkArea overrides the usable area.
func (o *MemoryOutput) SetWorkArea(r Rect) { o.workArea = r }

func (o *MemoryOutput) Name() string   { return o.name }
func (o *MemoryOutput) Geometry() Rect { return o.geometry }
func (o *MemoryOutput) WorkArea() Rect { return o.workArea }

// Windows lists windows in creation order with their workspace derived from
// geometry relative to the current workspace.
func (o *MemoryOutput) Windows() ([]Window, error) {
	out := make([]Window, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.snapshot(o.windows[id]))
	}
	return out, nil
}

// Window returns one window.
func (o *MemoryOutput) Window(id WindowID) (Window, bool) {
	w, ok := o.windows[id]
	if !ok {
		return Window{}, false
	}
	return o.snapshot(w), true
}

func (o *MemoryOutput) snapshot(w *Window) Window {
	out := *w
	out.Workspace = o.workspaceOf(w.Geometry)
	return out
}

func (o *MemoryOutput) workspaceOf(r Rect) Workspace {
	cx, cy := r.Center()
	dx := int(math.Floor(float64(cx-o.geometry.X) / float64(o.geometry.Width)))
	dy := int(math.Floor(float64(cy-o.geometry.Y) / float64(o.geometry.Height)))
	return o.workspace.Add(dx, dy)
}

// AddWindow maps a new window and emits EventWindowAttached. A zero Role is
// a top-level window.
func (o *MemoryOutput) AddWindow(w Window) {
	if _, exists := o.windows[w.ID]; exists {
		return
	}
	win := w
	o.windows[w.ID] = &win
	o.order = append(o.order, w.ID)
	o.Emit(Event{Kind: EventWindowAttached, Window: w.ID})
}

// RemoveWindow destroys a window and emits EventWindowDetached.
func (o *MemoryOutput) RemoveWindow(id WindowID) {
	if _, ok := o.windows[id]; !ok {
		return
	}
	delete(o.windows, id)
	for i, existing := range o.order {
		if existing == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	o.transforms.Forget(id)
	if o.focused == id {
		o.focused = 0
	}
	o.Emit(Event{Kind: EventWindowDetached, Window: id})
}

// SetGeometry resizes or moves a window and emits EventGeometryChanged.
func (o *MemoryOutput) SetGeometry(id WindowID, r Rect) {
	w, ok := o.windows[id]
	if !ok {
		return
	}
	w.Geometry = r
	o.Emit(Event{Kind: EventGeometryChanged, Window: id})
}

// Unmap hides a window and emits EventWindowUnmapped.
func (o *MemoryOutput) Unmap(id WindowID) {
	w, ok := o.windows[id]
	if !ok {
		return
	}
	w.Mapped = false
	o.Emit(Event{Kind: EventWindowUnmapped, Window: id})
}

// SetMinimized minimizes or restores a window as a client request would.
func (o *MemoryOutput) SetMinimized(id WindowID, minimized bool) {
	layer := LayerWorkspace
	if minimized {
		layer = LayerMinimized
	}
	_ = o.MoveToLayer(id, layer)
}

// MoveToLayer moves a window between layers and emits EventWindowMinimized
// when the minimized state changes.
func (o *MemoryOutput) MoveToLayer(id WindowID, layer Layer) error {
	w, ok := o.windows[id]
	if !ok {
		return fmt.Errorf("window %d not found", id)
	}
	if w.Layer == layer {
		return nil
	}
	w.Layer = layer
	o.Emit(Event{Kind: EventWindowMinimized, Window: id, Minimized: layer == LayerMinimized})
	return nil
}

func (o *MemoryOutput) AttachTransform(id WindowID, name string, priority int) *Transform {
	h, _ := o.transforms.Attach(id, name, priority)
	return h
}

func (o *MemoryOutput) Transform(id WindowID, name string) (*Transform, bool) {
	return o.transforms.Get(id, name)
}

func (o *MemoryOutput) DetachTransform(id WindowID, name string) {
	o.transforms.Detach(id, name)
}

// TransformCount returns the number of transforms attached to a window.
func (o *MemoryOutput) TransformCount(id WindowID) int {
	if o.transforms.stacks == nil {
		return 0
	}
	if stack, ok := o.transforms.stacks[id]; ok {
		return stack.Len()
	}
	return 0
}

// Rendered returns where the window would be drawn and with what opacity.
func (o *MemoryOutput) Rendered(id WindowID) (Rect, float64, bool) {
	w, ok := o.windows[id]
	if !ok {
		return Rect{}, 0, false
	}
	t, _ := o.transforms.Composed(id)
	return t.Apply(w.Geometry), t.Opacity, true
}

// Focus focuses a window and emits EventFocusChanged.
func (o *MemoryOutput) Focus(id WindowID) error {
	if _, ok := o.windows[id]; !ok {
		return fmt.Errorf("window %d not found", id)
	}
	if o.focused == id {
		return nil
	}
	o.focused = id
	o.Emit(Event{Kind: EventFocusChanged, Window: id})
	return nil
}

func (o *MemoryOutput) Focused() (WindowID, bool) {
	return o.focused, o.focused != 0
}

func (o *MemoryOutput) CurrentWorkspace() Workspace { return o.workspace }

// RequestWorkspace switches workspace, shifting every unpinned window by the
// workspace delta so that geometry stays relative to the visible workspace.
func (o *MemoryOutput) RequestWorkspace(ws Workspace, pinned []WindowID) error {
	o.Requests = append(o.Requests, WorkspaceRequest{Workspace: ws, Pinned: append([]WindowID(nil), pinned...)})
	if ws.X < 0 || ws.Y < 0 || ws.X >= o.gridCols || ws.Y >= o.gridRows {
		return fmt.Errorf("workspace %v outside %dx%d grid", ws, o.gridCols, o.gridRows)
	}
	if ws == o.workspace {
		return nil
	}

	dx := (ws.X - o.workspace.X) * o.geometry.Width
	dy := (ws.Y - o.workspace.Y) * o.geometry.Height
	isPinned := make(map[WindowID]bool, len(pinned))
	for _, id := range pinned {
		isPinned[id] = true
	}
	ids := make([]WindowID, 0, len(o.windows))
	for id := range o.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if isPinned[id] {
			continue
		}
		w := o.windows[id]
		w.Geometry.X -= dx
		w.Geometry.Y -= dy
	}

	o.workspace = ws
	o.Emit(Event{Kind: EventWorkspaceChanged})
	return nil
}

func (o *MemoryOutput) Activate(name string) bool {
	if o.feature != "" && o.feature != name {
		return false
	}
	o.feature = name
	return true
}

func (o *MemoryOutput) Deactivate(name string) {
	if o.feature == name {
		o.feature = ""
	}
}

func (o *MemoryOutput) SetPointerPassthrough(on bool) { o.passthrough = on }

// Passthrough reports the last mode set with SetPointerPassthrough.
func (o *MemoryOutput) Passthrough() bool { return o.passthrough }

// ActiveFeature returns the feature holding the output.
func (o *MemoryOutput) ActiveFeature() string { return o.feature }

func (o *MemoryOutput) Grab() bool {
	if o.DenyGrab {
		return false
	}
	o.GrabCalls++
	o.grabbed = true
	return true
}

func (o *MemoryOutput) Ungrab() {
	if !o.grabbed {
		return
	}
	o.UngrabCalls++
	o.grabbed = false
}

// Grabbed reports whether input is grabbed.
func (o *MemoryOutput) Grabbed() bool { return o.grabbed }

// Close closes a window as if the client honoured the request.
func (o *MemoryOutput) Close(id WindowID) error {
	if _, ok := o.windows[id]; !ok {
		return fmt.Errorf("window %d not found", id)
	}
	o.Closed = append(o.Closed, id)
	o.RemoveWindow(id)
	return nil
}

func (o *MemoryOutput) SetInputHandler(h InputHandler) { o.input = h }

// InputHandler returns the installed handler, if any.
func (o *MemoryOutput) InputHandler() InputHandler { return o.input }

// Present is a no-op: Rendered reads the transform stacks directly.
func (o *MemoryOutput) Present() error { return nil }

// SendButton delivers a pointer event to the installed handler.
func (o *MemoryOutput) SendButton(ev ButtonEvent) {
	if o.input != nil {
		o.input.HandleButton(ev)
	}
}

// SendTouch delivers a touch event to the installed handler.
func (o *MemoryOutput) SendTouch(ev TouchEvent) {
	if o.input != nil {
		o.input.HandleTouch(ev)
	}
}

// SendKey delivers a key event. Keys only reach the handler while grabbed.
func (o *MemoryOutput) SendKey(ev KeyEvent) {
	if o.input != nil && o.grabbed {
		o.input.HandleKey(ev)
	}
}
