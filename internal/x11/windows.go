package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Kind is the coarse EWMH classification of a client.
type Kind int

const (
	KindNormal Kind = iota
	KindDesktop
	KindOther
)

// Client is a snapshot of a managed window.
type Client struct {
	ID           xproto.Window
	TransientFor xproto.Window
	Title        string
	Class        string
	Kind         Kind
	Hidden       bool
	Desktop      int // -1 when sticky
	X, Y         int
	Width        int
	Height       int
}

// ClientList returns the managed windows in mapping order.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// QueryClient reads everything the overview needs about a client. Only the
// geometry query is fatal; other properties fall back to zero values.
func (c *Connection) QueryClient(windowID xproto.Window) (Client, error) {
	x, y, w, h, err := c.WindowRect(windowID)
	if err != nil {
		return Client{}, err
	}

	client := Client{
		ID:     windowID,
		Title:  c.windowTitle(windowID),
		Kind:   c.windowKind(windowID),
		Hidden: c.IsHidden(windowID),
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	}
	if class, err := icccm.WmClassGet(c.XUtil, windowID); err == nil {
		client.Class = strings.TrimSpace(class.Class)
	}
	if parent, err := icccm.WmTransientForGet(c.XUtil, windowID); err == nil && parent != c.Root && parent != windowID {
		client.TransientFor = parent
	}
	if desktop, err := c.GetWindowDesktop(windowID); err == nil {
		client.Desktop = desktop
	}
	return client, nil
}

// WindowRect returns a window's geometry in root coordinates.
func (c *Connection) WindowRect(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) {
	width = max(width, 1)
	height = max(height, 1)

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY. Fully opaque removes the property
// so the compositor default applies again.
func (c *Connection) SetOpacity(windowID xproto.Window, opacity float64) error {
	if opacity >= 1 {
		atom, err := c.Atom("_NET_WM_WINDOW_OPACITY")
		if err != nil {
			return err
		}
		return xproto.DeletePropertyChecked(c.XUtil.Conn(), windowID, atom).Check()
	}
	return ewmh.WmWindowOpacitySet(c.XUtil, windowID, max(opacity, 0))
}

// IsHidden reports _NET_WM_STATE_HIDDEN, i.e. the window is minimized.
func (c *Connection) IsHidden(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

// IsWithdrawn reports whether the client has withdrawn itself (ICCCM
// WM_STATE), as opposed to being unmapped for a desktop switch or iconify.
func (c *Connection) IsWithdrawn(windowID xproto.Window) bool {
	state, err := icccm.WmStateGet(c.XUtil, windowID)
	if err != nil {
		// The window manager removes WM_STATE on withdrawal.
		return true
	}
	return state.State == icccm.StateWithdrawn
}

// Minimize minimizes a window via WM_CHANGE_STATE.
func (c *Connection) Minimize(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(windowID, "WM_CHANGE_STATE", iconicState)
}

// Unminimize maps an iconic window again, which ICCCM window managers treat
// as a request for the normal state.
func (c *Connection) Unminimize(windowID xproto.Window) error {
	if err := xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_HIDDEN")
}

// CloseWindow requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	deleteAtom, err := c.Atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.Atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// windowKind classifies a window by _NET_WM_WINDOW_TYPE.
func (c *Connection) windowKind(windowID xproto.Window) Kind {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil || len(types) == 0 {
		// If we can't determine type, assume it's normal
		return KindNormal
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG", "_NET_WM_WINDOW_TYPE_UTILITY":
			return KindNormal
		case "_NET_WM_WINDOW_TYPE_DESKTOP", "_NET_WM_WINDOW_TYPE_DOCK":
			return KindDesktop
		}
	}
	return KindOther
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
