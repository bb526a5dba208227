package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Workspace is a coordinate on an output's workspace grid.
type Workspace struct {
	X int
	Y int
}

// Add offsets a workspace by a delta.
func (w Workspace) Add(dx, dy int) Workspace {
	return Workspace{X: w.X + dx, Y: w.Y + dy}
}

// Role classifies a window.
type Role int

const (
	RoleToplevel Role = iota
	RoleUnmanaged
	RoleDesktopEnvironment
)

// Layer is the stacking layer a window lives in.
type Layer int

const (
	LayerWorkspace Layer = iota
	LayerMinimized
)

// Window contains metadata and geometry for a window.
type Window struct {
	ID        WindowID
	Parent    WindowID // 0 for top-level windows
	AppID     string
	Title     string
	Role      Role
	Mapped    bool
	Layer     Layer
	Geometry  Rect
	Workspace Workspace
}

// Minimized reports whether the window sits in the minimized layer.
func (w Window) Minimized() bool {
	return w.Layer == LayerMinimized
}

// Output is one display and everything the overview needs from it.
type Output interface {
	Name() string
	// Geometry is the output rectangle in global coordinates.
	Geometry() Rect
	// WorkArea is the usable part of Geometry (panels and docks excluded).
	WorkArea() Rect

	// Windows lists the windows on this output across all workspaces.
	Windows() ([]Window, error)
	Window(id WindowID) (Window, bool)

	MoveToLayer(id WindowID, layer Layer) error

	AttachTransform(id WindowID, name string, priority int) *Transform
	Transform(id WindowID, name string) (*Transform, bool)
	DetachTransform(id WindowID, name string)

	Focus(id WindowID) error
	Focused() (WindowID, bool)

	CurrentWorkspace() Workspace
	// RequestWorkspace switches workspace. Pinned windows travel along.
	RequestWorkspace(ws Workspace, pinned []WindowID) error

	// Activate claims the output for a named feature. It fails while another
	// feature holds it.
	Activate(name string) bool
	Deactivate(name string)
	Grab() bool
	Ungrab()

	Close(id WindowID) error

	Subscribe(kind EventKind, fn func(Event)) *Subscription
	SubscribeWindow(kind EventKind, id WindowID, fn func(Event)) *Subscription

	// SetInputHandler routes pointer, touch and key input. Nil disconnects.
	SetInputHandler(h InputHandler)
}

// PointerPassthrough is implemented by outputs that can keep delivering
// pointer input to windows while a feature holds the output. With
// passthrough on, clicks are reported to the input handler and then replayed
// to the window under the pointer.
type PointerPassthrough interface {
	SetPointerPassthrough(on bool)
}

// Presenter is implemented by outputs that must push transform state to the
// display after every animation frame.
type Presenter interface {
	Present() error
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Outputs() ([]Output, error)
	ActiveOutput() (Output, error)
}
