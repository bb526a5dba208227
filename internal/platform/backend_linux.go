//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/1broseidon/winscale/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend exposes X11 monitors as outputs. All methods must be called
// from the goroutine that drives the X event loop pings.
type LinuxBackend struct {
	conn  *x11.Connection
	input *x11.InputWindow

	outputs map[string]*X11Output
	names   []string

	clients map[xproto.Window]*clientState
	order   []xproto.Window

	keyOwner  *X11Output
	pointer   pointerGrabs
	keyFilter func(state uint16, detail xproto.Keycode) bool
}

type clientState struct {
	hidden bool
}

var (
	_ Backend        = (*LinuxBackend)(nil)
	_ pointerGrabber = (*x11.InputWindow)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11
// connection and starts tracking clients.
func NewLinuxBackend(conn *x11.Connection) (*LinuxBackend, error) {
	b := &LinuxBackend{
		conn:    conn,
		outputs: make(map[string]*X11Output),
		clients: make(map[xproto.Window]*clientState),
	}

	input, err := conn.NewInputWindow(x11.InputCallbacks{
		KeyPress:      func(keysym xproto.Keysym, state uint16, detail xproto.Keycode) { b.handleKey(keysym, state, detail, true) },
		KeyRelease:    func(keysym xproto.Keysym, state uint16, detail xproto.Keycode) { b.handleKey(keysym, state, detail, false) },
		ButtonPress:   func(button xproto.Button, x, y int) { b.handleButton(button, true, x, y) },
		ButtonRelease: func(button xproto.Button, x, y int) { b.handleButton(button, false, x, y) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create input window: %w", err)
	}
	b.input = input
	b.pointer.grabber = input

	err = conn.WatchRoot(x11.RootHandlers{
		ClientList:     func() { b.syncClients(true) },
		ActiveWindow:   b.handleActiveWindow,
		CurrentDesktop: func() { b.emit(Event{Kind: EventWorkspaceChanged}) },
		Monitors:       b.refreshMonitors,
	})
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to watch root window: %w", err)
	}

	b.refreshMonitors()
	b.syncClients(false)
	return b, nil
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection. An empty display
// uses $DISPLAY; xauthority, when set, overrides $XAUTHORITY.
func NewLinuxBackendFromDisplay(display, xauthority string) (*LinuxBackend, error) {
	if xauthority != "" {
		if err := os.Setenv("XAUTHORITY", xauthority); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	b, err := NewLinuxBackend(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

// Disconnect restores every transformed window and closes the connection.
func (b *LinuxBackend) Disconnect() {
	if b == nil || b.conn == nil {
		return
	}
	for _, name := range b.names {
		b.outputs[name].restoreAll()
	}
	if b.input != nil {
		b.input.Destroy()
	}
	b.conn.Close()
}

// Connection returns the X11 connection, e.g. to drive MainPing.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// MainPing starts X event processing; see x11.Connection.MainPing.
func (b *LinuxBackend) MainPing() (before, after, quit chan struct{}) {
	return b.conn.MainPing()
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// SetKeyFilter installs a function that sees grabbed key presses first.
// Returning true consumes the key, which lets global hotkeys keep working
// while the keyboard is grabbed.
func (b *LinuxBackend) SetKeyFilter(fn func(state uint16, detail xproto.Keycode) bool) {
	b.keyFilter = fn
}

// Outputs returns one output per active monitor.
func (b *LinuxBackend) Outputs() ([]Output, error) {
	if len(b.names) == 0 {
		b.refreshMonitors()
	}
	if len(b.names) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}
	out := make([]Output, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, b.outputs[name])
	}
	return out, nil
}

// ActiveOutput returns the output holding the focused window.
func (b *LinuxBackend) ActiveOutput() (Output, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	active, err := b.conn.ActiveMonitor(monitors)
	if err != nil {
		return nil, err
	}
	o, ok := b.outputs[active.Name]
	if !ok {
		b.refreshMonitors()
		if o, ok = b.outputs[active.Name]; !ok {
			return nil, fmt.Errorf("output %q not found", active.Name)
		}
	}
	return o, nil
}

func (b *LinuxBackend) refreshMonitors() {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		log.Printf("Overview: failed to list monitors: %v", err)
		return
	}

	seen := make(map[string]bool, len(monitors))
	names := make([]string, 0, len(monitors))
	for _, m := range monitors {
		area := b.conn.WorkArea(m)
		o, ok := b.outputs[m.Name]
		if !ok {
			o = &X11Output{
				backend: b,
				name:    m.Name,
				saved:   make(map[WindowID]*savedWindow),
			}
			b.outputs[m.Name] = o
		}
		o.geometry = Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		o.workArea = Rect{X: area.X, Y: area.Y, Width: area.Width, Height: area.Height}
		seen[m.Name] = true
		names = append(names, m.Name)
	}

	for name, o := range b.outputs {
		if !seen[name] {
			o.restoreAll()
			delete(b.outputs, name)
		}
	}
	b.names = names
}

func (b *LinuxBackend) syncClients(notify bool) {
	ids, err := b.conn.ClientList()
	if err != nil {
		log.Printf("Overview: failed to read client list: %v", err)
		return
	}

	current := make(map[xproto.Window]bool, len(ids))
	for _, id := range ids {
		current[id] = true
		if _, ok := b.clients[id]; ok {
			continue
		}
		err := b.conn.WatchClient(id, x11.ClientHandlers{
			Configure: b.handleConfigure,
			Unmap:     b.handleUnmap,
			State:     b.handleState,
		})
		if err != nil {
			// The client vanished between the list read and the watch.
			continue
		}
		b.clients[id] = &clientState{hidden: b.conn.IsHidden(id)}
		if notify {
			b.emit(Event{Kind: EventWindowAttached, Window: WindowID(id)})
		}
	}

	for id := range b.clients {
		if current[id] {
			continue
		}
		b.conn.UnwatchClient(id)
		delete(b.clients, id)
		for _, o := range b.outputs {
			o.forget(WindowID(id))
		}
		b.emit(Event{Kind: EventWindowDetached, Window: WindowID(id)})
	}

	b.order = ids[:0:0]
	for _, id := range ids {
		if _, ok := b.clients[id]; ok {
			b.order = append(b.order, id)
		}
	}
}

func (b *LinuxBackend) emit(ev Event) {
	for _, name := range b.names {
		b.outputs[name].Emit(ev)
	}
}

func (b *LinuxBackend) handleActiveWindow() {
	active, err := b.conn.GetActiveWindow()
	if err != nil || active == 0 {
		return
	}
	b.emit(Event{Kind: EventFocusChanged, Window: WindowID(active)})
}

func (b *LinuxBackend) handleConfigure(id xproto.Window) {
	for _, o := range b.outputs {
		// Transformed windows are moved by Present; their own geometry is
		// the saved one.
		if _, ok := o.saved[WindowID(id)]; ok {
			return
		}
	}
	b.emit(Event{Kind: EventGeometryChanged, Window: WindowID(id)})
}

func (b *LinuxBackend) handleUnmap(id xproto.Window) {
	// Desktop switches and iconify unmap windows too; only withdrawal counts.
	if !b.conn.IsWithdrawn(id) {
		return
	}
	b.emit(Event{Kind: EventWindowUnmapped, Window: WindowID(id)})
}

func (b *LinuxBackend) handleState(id xproto.Window) {
	st, ok := b.clients[id]
	if !ok {
		return
	}
	hidden := b.conn.IsHidden(id)
	if hidden == st.hidden {
		return
	}
	st.hidden = hidden
	b.emit(Event{Kind: EventWindowMinimized, Window: WindowID(id), Minimized: hidden})
}

// handleKey forwards a grabbed key event to the output holding the keyboard.
// Presses matching a global hotkey go to the key filter instead.
func (b *LinuxBackend) handleKey(keysym xproto.Keysym, state uint16, detail xproto.Keycode, pressed bool) {
	if pressed && b.keyFilter != nil && b.keyFilter(state, detail) {
		return
	}
	owner := b.keyOwner
	if owner == nil || owner.input == nil {
		return
	}
	owner.input.HandleKey(KeyEvent{
		Key:       keyFromKeysym(keysym),
		Pressed:   pressed,
		Modifiers: modifiersFromState(state),
	})
}

func (b *LinuxBackend) handleButton(button xproto.Button, pressed bool, x, y int) {
	var btn Button
	switch button {
	case 1:
		btn = ButtonLeft
	case 2:
		btn = ButtonMiddle
	case 3:
		btn = ButtonRight
	default:
		return
	}

	var target *X11Output
	for _, name := range b.names {
		o := b.outputs[name]
		if o.input == nil {
			continue
		}
		if target == nil || o.geometry.Contains(x, y) {
			target = o
		}
	}
	if target != nil {
		target.input.HandleButton(ButtonEvent{Button: btn, Pressed: pressed, X: x, Y: y})
	}
}

// pointerGrabber is the part of x11.InputWindow that pointer arbitration
// drives.
type pointerGrabber interface {
	GrabPointer() error
	UngrabPointer()
	GrabButtons() error
	UngrabButtons()
}

type pointerMode int

const (
	pointerNone pointerMode = iota
	// pointerGrab sends every click to the overview only.
	pointerGrab
	// pointerPassthrough reports clicks and replays them to the windows.
	pointerPassthrough
)

// pointerGrabs counts the outputs wanting each pointer mode and holds the
// matching X grab. The active grab wins while any output needs it.
type pointerGrabs struct {
	grabber pointerGrabber
	users   [3]int
	current pointerMode
}

func (p *pointerGrabs) acquire(mode pointerMode) {
	if mode == pointerNone {
		return
	}
	p.users[mode]++
	p.update()
}

func (p *pointerGrabs) release(mode pointerMode) {
	if mode == pointerNone || p.users[mode] == 0 {
		return
	}
	p.users[mode]--
	p.update()
}

func (p *pointerGrabs) wanted() pointerMode {
	switch {
	case p.users[pointerGrab] > 0:
		return pointerGrab
	case p.users[pointerPassthrough] > 0:
		return pointerPassthrough
	}
	return pointerNone
}

func (p *pointerGrabs) update() {
	want := p.wanted()
	if want == p.current {
		return
	}
	switch p.current {
	case pointerGrab:
		p.grabber.UngrabPointer()
	case pointerPassthrough:
		p.grabber.UngrabButtons()
	}
	p.current = pointerNone

	var err error
	switch want {
	case pointerGrab:
		err = p.grabber.GrabPointer()
	case pointerPassthrough:
		err = p.grabber.GrabButtons()
	}
	if err != nil {
		log.Printf("Overview: pointer grab failed: %v", err)
		return
	}
	p.current = want
}

func (b *LinuxBackend) desktopGrid() x11.DesktopGrid {
	grid, err := b.conn.GetDesktopGrid()
	if err != nil {
		return x11.DesktopGrid{Columns: 1, Rows: 1}
	}
	return grid
}

func (b *LinuxBackend) currentDesktop() int {
	desktop, err := b.conn.GetCurrentDesktop()
	if err != nil {
		return 0
	}
	return desktop
}

func (b *LinuxBackend) workspaceOf(desktop int) Workspace {
	if desktop < 0 {
		desktop = b.currentDesktop()
	}
	col, row := b.desktopGrid().Coord(desktop)
	return Workspace{X: col, Y: row}
}

// X11Output is one RandR monitor. Render transforms are emulated by moving
// and resizing the real window and setting its opacity hint.
type X11Output struct {
	Emitter

	backend  *LinuxBackend
	name     string
	geometry Rect
	workArea Rect

	transforms TransformSet
	saved      map[WindowID]*savedWindow

	feature     string
	passthrough bool
	pointer     pointerMode
	input       InputHandler
}

// savedWindow is the untransformed state of a window carrying transforms.
type savedWindow struct {
	geometry Rect
	desktop  int
	stuck    bool
	applied  Rect
	opacity  float64
}

var (
	_ Output             = (*X11Output)(nil)
	_ Presenter          = (*X11Output)(nil)
	_ PointerPassthrough = (*X11Output)(nil)
)

func (o *X11Output) Name() string   { return o.name }
func (o *X11Output) Geometry() Rect { return o.geometry }
func (o *X11Output) WorkArea() Rect { return o.workArea }

// Windows lists managed clients whose centre lies on this monitor.
func (o *X11Output) Windows() ([]Window, error) {
	out := make([]Window, 0, len(o.backend.order))
	for _, id := range o.backend.order {
		w, ok := o.Window(WindowID(id))
		if !ok {
			continue
		}
		if !o.geometry.Contains(w.Geometry.Center()) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Window returns a client. Transformed windows report their saved geometry
// and desktop. Managed clients count as mapped even while iconic.
func (o *X11Output) Window(id WindowID) (Window, bool) {
	conn := o.backend.conn
	client, err := conn.QueryClient(xproto.Window(id))
	if err != nil {
		return Window{}, false
	}

	w := Window{
		ID:     id,
		Parent: WindowID(client.TransientFor),
		AppID:  client.Class,
		Title:  client.Title,
		Role:   roleFromKind(client.Kind),
		Mapped: true,
		Layer:  LayerWorkspace,
		Geometry: Rect{
			X:      client.X,
			Y:      client.Y,
			Width:  client.Width,
			Height: client.Height,
		},
	}
	if client.Hidden {
		w.Layer = LayerMinimized
	}

	desktop := client.Desktop
	if s, ok := o.saved[id]; ok {
		w.Geometry = s.geometry
		if s.stuck {
			desktop = s.desktop
		}
	}
	w.Workspace = o.backend.workspaceOf(desktop)
	return w, true
}

func (o *X11Output) MoveToLayer(id WindowID, layer Layer) error {
	conn := o.backend.conn
	switch layer {
	case LayerMinimized:
		return conn.Minimize(xproto.Window(id))
	default:
		return conn.Unminimize(xproto.Window(id))
	}
}

// AttachTransform saves the window's state on the first contribution.
// Windows on another desktop are made sticky so they can be shown.
func (o *X11Output) AttachTransform(id WindowID, name string, priority int) *Transform {
	h, _ := o.transforms.Attach(id, name, priority)
	if _, ok := o.saved[id]; !ok {
		o.save(id)
	}
	return h
}

func (o *X11Output) Transform(id WindowID, name string) (*Transform, bool) {
	return o.transforms.Get(id, name)
}

// DetachTransform restores the window immediately once its last
// contribution is gone.
func (o *X11Output) DetachTransform(id WindowID, name string) {
	if _, empty := o.transforms.Detach(id, name); empty {
		o.restore(id)
	}
}

// Present pushes the composed transforms to the X server.
func (o *X11Output) Present() error {
	conn := o.backend.conn
	var errs []error
	for _, id := range o.transforms.Windows() {
		t, _ := o.transforms.Composed(id)
		s, ok := o.saved[id]
		if !ok {
			s = o.save(id)
		}

		r := t.Apply(s.geometry)
		if r != s.applied {
			conn.MoveResizeWindow(xproto.Window(id), r.X, r.Y, r.Width, r.Height)
			s.applied = r
		}
		if math.Abs(t.Opacity-s.opacity) > 1e-3 {
			if err := conn.SetOpacity(xproto.Window(id), t.Opacity); err != nil {
				errs = append(errs, fmt.Errorf("window %d: %w", id, err))
			}
			s.opacity = t.Opacity
		}
	}
	return errors.Join(errs...)
}

func (o *X11Output) save(id WindowID) *savedWindow {
	conn := o.backend.conn
	s := &savedWindow{desktop: -1, opacity: 1}
	if x, y, w, h, err := conn.WindowRect(xproto.Window(id)); err == nil {
		s.geometry = Rect{X: x, Y: y, Width: w, Height: h}
	}
	s.applied = s.geometry

	if desktop, err := conn.GetWindowDesktop(xproto.Window(id)); err == nil {
		s.desktop = desktop
		if desktop >= 0 && desktop != o.backend.currentDesktop() {
			if err := conn.SetSticky(xproto.Window(id), true); err != nil {
				log.Printf("Overview: failed to make window %d sticky: %v", id, err)
			} else {
				s.stuck = true
			}
		}
	}
	o.saved[id] = s
	return s
}

func (o *X11Output) restore(id WindowID) {
	s, ok := o.saved[id]
	if !ok {
		return
	}
	delete(o.saved, id)

	conn := o.backend.conn
	win := xproto.Window(id)
	if s.applied != s.geometry {
		conn.MoveResizeWindow(win, s.geometry.X, s.geometry.Y, s.geometry.Width, s.geometry.Height)
	}
	if s.opacity != 1 {
		if err := conn.SetOpacity(win, 1); err != nil {
			log.Printf("Overview: failed to reset opacity of window %d: %v", id, err)
		}
	}
	if s.stuck {
		if err := conn.SetSticky(win, false); err != nil {
			log.Printf("Overview: failed to unstick window %d: %v", id, err)
		}
		if err := conn.SetWindowDesktop(win, s.desktop); err != nil {
			log.Printf("Overview: failed to return window %d to desktop %d: %v", id, s.desktop, err)
		}
	}
}

func (o *X11Output) restoreAll() {
	for _, id := range o.transforms.Windows() {
		o.transforms.Forget(id)
		o.restore(id)
	}
}

// forget drops state of a destroyed window without touching the server.
func (o *X11Output) forget(id WindowID) {
	o.transforms.Forget(id)
	delete(o.saved, id)
}

func (o *X11Output) Focus(id WindowID) error {
	return o.backend.conn.FocusWindow(xproto.Window(id))
}

func (o *X11Output) Focused() (WindowID, bool) {
	active, err := o.backend.conn.GetActiveWindow()
	if err != nil || active == 0 {
		return 0, false
	}
	return WindowID(active), true
}

func (o *X11Output) CurrentWorkspace() Workspace {
	return o.backend.workspaceOf(o.backend.currentDesktop())
}

// RequestWorkspace switches the desktop. Pinned windows are moved first;
// transformed ones are only re-targeted and move when restored.
func (o *X11Output) RequestWorkspace(ws Workspace, pinned []WindowID) error {
	conn := o.backend.conn
	grid := o.backend.desktopGrid()
	desktop, ok := grid.Index(ws.X, ws.Y)
	if !ok {
		return fmt.Errorf("workspace %v outside %dx%d desktop grid", ws, grid.Columns, grid.Rows)
	}

	for _, id := range pinned {
		if s, ok := o.saved[id]; ok && s.stuck {
			s.desktop = desktop
			continue
		}
		if err := conn.SetWindowDesktop(xproto.Window(id), desktop); err != nil {
			log.Printf("Overview: failed to move window %d to desktop %d: %v", id, desktop, err)
		}
	}
	return conn.SetCurrentDesktop(desktop)
}

// Activate claims the output and takes the pointer so clicks reach the
// input handler. In passthrough mode the windows still get the clicks.
func (o *X11Output) Activate(name string) bool {
	if o.feature != "" && o.feature != name {
		return false
	}
	if o.feature == "" {
		o.takePointer()
	}
	o.feature = name
	return true
}

func (o *X11Output) Deactivate(name string) {
	if o.feature != name {
		return
	}
	o.feature = ""
	o.dropPointer()
}

// SetPointerPassthrough selects how the pointer is taken on the next
// Activate, and switches the held grab when the output is claimed.
func (o *X11Output) SetPointerPassthrough(on bool) {
	if o.passthrough == on {
		return
	}
	o.passthrough = on
	if o.pointer != pointerNone {
		o.dropPointer()
		o.takePointer()
	}
}

func (o *X11Output) takePointer() {
	o.pointer = pointerModeFor(o.passthrough)
	o.backend.pointer.acquire(o.pointer)
}

func (o *X11Output) dropPointer() {
	o.backend.pointer.release(o.pointer)
	o.pointer = pointerNone
}

func pointerModeFor(passthrough bool) pointerMode {
	if passthrough {
		return pointerPassthrough
	}
	return pointerGrab
}

// Grab takes the keyboard. Only one output can hold it at a time.
func (o *X11Output) Grab() bool {
	b := o.backend
	if b.keyOwner == o {
		return true
	}
	if b.keyOwner != nil {
		return false
	}
	if err := b.input.GrabKeyboard(); err != nil {
		log.Printf("Overview: %v", err)
		return false
	}
	b.keyOwner = o
	return true
}

func (o *X11Output) Ungrab() {
	b := o.backend
	if b.keyOwner != o {
		return
	}
	b.input.UngrabKeyboard()
	b.keyOwner = nil
}

func (o *X11Output) Close(id WindowID) error {
	return o.backend.conn.CloseWindow(xproto.Window(id))
}

func (o *X11Output) SetInputHandler(h InputHandler) {
	o.input = h
}

func roleFromKind(kind x11.Kind) Role {
	switch kind {
	case x11.KindNormal:
		return RoleToplevel
	case x11.KindDesktop:
		return RoleDesktopEnvironment
	default:
		return RoleUnmanaged
	}
}

func keyFromKeysym(keysym xproto.Keysym) Key {
	switch keysym {
	case x11.KeysymUp:
		return KeyUp
	case x11.KeysymDown:
		return KeyDown
	case x11.KeysymLeft:
		return KeyLeft
	case x11.KeysymRight:
		return KeyRight
	case x11.KeysymReturn, x11.KeysymKPEnter:
		return KeyEnter
	case x11.KeysymEscape:
		return KeyEscape
	default:
		return KeyOther
	}
}

func modifiersFromState(state uint16) Modifier {
	var mods Modifier
	if state&xproto.ModMaskShift != 0 {
		mods |= ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		mods |= ModCtrl
	}
	if state&xproto.ModMask1 != 0 {
		mods |= ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		mods |= ModSuper
	}
	return mods
}
