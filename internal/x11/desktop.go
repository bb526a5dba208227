package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// StickyDesktop is the _NET_WM_DESKTOP value of windows shown on every
// desktop. WindowDesktop reports it as -1.
const StickyDesktop = 0xFFFFFFFF

const sourcePager = 2 // _NET_* source indication: pager/direct action

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom. Returns 0 with an error if detection fails.
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// GetWindowDesktop returns the desktop number a window is on.
// Uses _NET_WM_DESKTOP atom. Returns -1 for "sticky" windows (visible on all desktops).
func (c *Connection) GetWindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	if desktop == StickyDesktop {
		return -1, nil
	}
	return int(desktop), nil
}

// GetDesktopCount returns the number of virtual desktops.
func (c *Connection) GetDesktopCount() (int, error) {
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get desktop count: %w", err)
	}
	return int(count), nil
}

// DesktopGrid is the arrangement of virtual desktops in a pager.
type DesktopGrid struct {
	Columns int
	Rows    int
}

// GetDesktopGrid derives the desktop grid from _NET_DESKTOP_LAYOUT. Without
// a layout hint all desktops form a single row.
func (c *Connection) GetDesktopGrid() (DesktopGrid, error) {
	count, err := c.GetDesktopCount()
	if err != nil {
		return DesktopGrid{}, err
	}
	if count < 1 {
		count = 1
	}

	grid := DesktopGrid{Columns: count, Rows: 1}
	layout, err := ewmh.DesktopLayoutGet(c.XUtil)
	if err != nil || layout == nil {
		return grid, nil
	}

	cols, rows := layout.Columns, layout.Rows
	switch {
	case cols > 0:
		rows = (count + cols - 1) / cols
	case rows > 0:
		cols = (count + rows - 1) / rows
	default:
		return grid, nil
	}
	return DesktopGrid{Columns: cols, Rows: rows}, nil
}

// Index maps a grid coordinate to a desktop number.
func (g DesktopGrid) Index(col, row int) (int, bool) {
	if col < 0 || row < 0 || col >= g.Columns || row >= g.Rows {
		return 0, false
	}
	return row*g.Columns + col, true
}

// Coord maps a desktop number to its grid coordinate.
func (g DesktopGrid) Coord(desktop int) (col, row int) {
	if g.Columns < 1 || desktop < 0 {
		return 0, 0
	}
	return desktop % g.Columns, desktop / g.Columns
}

// SetCurrentDesktop asks the window manager to switch desktops.
func (c *Connection) SetCurrentDesktop(desktop int) error {
	return c.sendRootMessage(c.Root, "_NET_CURRENT_DESKTOP", uint32(desktop), uint32(xproto.TimeCurrentTime))
}

// SetWindowDesktop moves a window to the specified virtual desktop.
// Sends a _NET_WM_DESKTOP client message to the root window per EWMH spec.
func (c *Connection) SetWindowDesktop(windowID xproto.Window, desktop int) error {
	return c.sendRootMessage(windowID, "_NET_WM_DESKTOP", uint32(desktop), sourcePager)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	return c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourcePager)
}

// GetActiveWindow returns the focused client, or 0.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// SetSticky adds or removes _NET_WM_STATE_STICKY.
func (c *Connection) SetSticky(windowID xproto.Window, sticky bool) error {
	action := ewmh.StateRemove
	if sticky {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_STICKY")
}
