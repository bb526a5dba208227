package x11

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Keysyms the overview reacts to.
const (
	KeysymUp      = 0xff52
	KeysymDown    = 0xff54
	KeysymLeft    = 0xff51
	KeysymRight   = 0xff53
	KeysymReturn  = 0xff0d
	KeysymEscape  = 0xff1b
	KeysymKPEnter = 0xff8d
)

// InputCallbacks receive events from the input window while grabbed.
type InputCallbacks struct {
	KeyPress      func(keysym xproto.Keysym, state uint16, detail xproto.Keycode)
	KeyRelease    func(keysym xproto.Keysym, state uint16, detail xproto.Keycode)
	ButtonPress   func(button xproto.Button, rootX, rootY int)
	ButtonRelease func(button xproto.Button, rootX, rootY int)
}

// passthroughButtons are grabbed on the root in passthrough mode.
var passthroughButtons = []xproto.Button{1, 2, 3}

// InputWindow is an InputOnly window used as the target of keyboard and
// pointer grabs, so handlers can be detached without touching the root.
type InputWindow struct {
	conn       *Connection
	id         xproto.Window
	callbacks  InputCallbacks
	keyboard   bool
	pointer    bool
	buttons    bool
	keysActive bool
	rootActive bool
}

// NewInputWindow creates and maps the InputOnly window.
func (c *Connection) NewInputWindow(callbacks InputCallbacks) (*InputWindow, error) {
	conn := c.XUtil.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}

	// InputOnly window that never draws anything.
	err = xproto.CreateWindowChecked(
		conn,
		0, // depth (must be 0 for InputOnly)
		wid,
		c.Root,
		0, 0, // x, y
		1, 1, // width, height
		0, // border_width
		xproto.WindowClassInputOnly,
		xproto.Visualid(0), // CopyFromParent
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease | xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease)},
	).Check()
	if err != nil {
		return nil, err
	}
	xproto.MapWindow(conn, wid)

	w := &InputWindow{conn: c, id: wid, callbacks: callbacks}
	xevent.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		if w.callbacks.ButtonPress != nil {
			w.callbacks.ButtonPress(ev.Detail, int(ev.RootX), int(ev.RootY))
		}
	}).Connect(c.XUtil, wid)
	xevent.ButtonReleaseFun(func(xu *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		if w.callbacks.ButtonRelease != nil {
			w.callbacks.ButtonRelease(ev.Detail, int(ev.RootX), int(ev.RootY))
		}
	}).Connect(c.XUtil, wid)
	return w, nil
}

// GrabKeyboard grabs the keyboard and redirects key events to the window.
func (w *InputWindow) GrabKeyboard() error {
	xu := w.conn.XUtil

	grab := func() (*xproto.GrabKeyboardReply, error) {
		cookie := xproto.GrabKeyboard(
			xu.Conn(),
			false,                  // owner_events (report events to grab_window)
			w.conn.Root,            // grab_window (must be viewable)
			xproto.TimeCurrentTime, // time
			xproto.GrabModeAsync,   // pointer_mode
			xproto.GrabModeAsync,   // keyboard_mode
		)
		return cookie.Reply()
	}

	reply, err := grab()
	if err != nil {
		return err
	}

	// When the overview is toggled from a globally grabbed hotkey, the
	// keyboard may already be grabbed by this client. If so, ungrab and retry.
	if reply.Status == xproto.GrabStatusAlreadyGrabbed {
		xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)
		reply, err = grab()
		if err != nil {
			return err
		}
	}

	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("keyboard grab failed with status %d", reply.Status)
	}

	xevent.RedirectKeyEvents(xu, w.id)
	if !w.keysActive {
		xevent.KeyPressFun(w.handleKeyPress).Connect(xu, w.id)
		xevent.KeyReleaseFun(w.handleKeyRelease).Connect(xu, w.id)
		w.keysActive = true
	}
	w.keyboard = true

	log.Println("Overview: keyboard grabbed")
	return nil
}

// UngrabKeyboard releases the keyboard grab. It is a no-op when not grabbed.
func (w *InputWindow) UngrabKeyboard() {
	if !w.keyboard {
		return
	}
	xu := w.conn.XUtil

	xproto.UngrabKeyboard(xu.Conn(), xproto.TimeCurrentTime)
	xevent.RedirectKeyEvents(xu, 0)
	w.keyboard = false

	log.Println("Overview: keyboard released")
}

// GrabPointer routes button events to the window.
func (w *InputWindow) GrabPointer() error {
	ok, err := mousebind.GrabPointer(w.conn.XUtil, w.id, xproto.WindowNone, xproto.CursorNone)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pointer grab failed")
	}
	w.pointer = true
	return nil
}

// UngrabPointer releases the pointer grab. It is a no-op when not grabbed.
func (w *InputWindow) UngrabPointer() {
	if !w.pointer {
		return
	}
	mousebind.UngrabPointer(w.conn.XUtil)
	w.pointer = false
}

// GrabButtons takes a synchronous passive grab of the main buttons on the
// root. Every click is reported to the callbacks and then replayed to the
// window under the pointer, so windows keep receiving input.
func (w *InputWindow) GrabButtons() error {
	if w.buttons {
		return nil
	}
	xu := w.conn.XUtil
	if !w.rootActive {
		xevent.ButtonPressFun(w.handleRootButton).Connect(xu, w.conn.Root)
		w.rootActive = true
	}

	for i, button := range passthroughButtons {
		err := xproto.GrabButtonChecked(
			xu.Conn(),
			false, // owner_events
			w.conn.Root,
			uint16(xproto.EventMaskButtonPress),
			xproto.GrabModeSync,  // pointer_mode: freeze until AllowEvents
			xproto.GrabModeAsync, // keyboard_mode
			xproto.WindowNone,
			xproto.CursorNone,
			byte(button),
			xproto.ModMaskAny,
		).Check()
		if err != nil {
			for _, grabbed := range passthroughButtons[:i] {
				xproto.UngrabButton(xu.Conn(), byte(grabbed), w.conn.Root, xproto.ModMaskAny)
			}
			return fmt.Errorf("button %d grab failed: %w", button, err)
		}
	}
	w.buttons = true
	return nil
}

// UngrabButtons drops the passive grabs. It is a no-op when not grabbed.
func (w *InputWindow) UngrabButtons() {
	if !w.buttons {
		return
	}
	for _, button := range passthroughButtons {
		xproto.UngrabButton(w.conn.XUtil.Conn(), byte(button), w.conn.Root, xproto.ModMaskAny)
	}
	w.buttons = false
}

// handleRootButton sees a click caught by the passive grab. Replaying the
// press ends the grab, so the release goes to the window and is reported
// here right away.
func (w *InputWindow) handleRootButton(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
	if !w.buttons {
		return
	}
	xproto.AllowEvents(xu.Conn(), xproto.AllowReplayPointer, ev.Time)
	x, y := int(ev.RootX), int(ev.RootY)
	if w.callbacks.ButtonPress != nil {
		w.callbacks.ButtonPress(ev.Detail, x, y)
	}
	if w.callbacks.ButtonRelease != nil {
		w.callbacks.ButtonRelease(ev.Detail, x, y)
	}
}

// Destroy releases grabs and destroys the window.
func (w *InputWindow) Destroy() {
	w.UngrabKeyboard()
	w.UngrabPointer()
	w.UngrabButtons()
	xevent.Detach(w.conn.XUtil, w.id)
	xproto.DestroyWindow(w.conn.XUtil.Conn(), w.id)
}

func (w *InputWindow) handleKeyPress(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
	if !w.keyboard || w.callbacks.KeyPress == nil {
		return
	}
	keysym := keybind.KeysymGet(xu, ev.Detail, 0)
	w.callbacks.KeyPress(keysym, ev.State, ev.Detail)
}

func (w *InputWindow) handleKeyRelease(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
	if !w.keyboard || w.callbacks.KeyRelease == nil {
		return
	}
	keysym := keybind.KeysymGet(xu, ev.Detail, 0)
	w.callbacks.KeyRelease(keysym, ev.State, ev.Detail)
}
