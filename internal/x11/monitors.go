package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/samber/lo"
)

// Box is a rectangle in root window coordinates.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside b.
func (b Box) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Intersect returns the overlap of a and b, or the zero Box.
func (b Box) Intersect(o Box) Box {
	x1, y1 := max(b.X, o.X), max(b.Y, o.Y)
	x2, y2 := min(b.X+b.Width, o.X+o.Width), min(b.Y+b.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Box{}
	}
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Empty reports whether b has no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Monitor is a connected RandR output driven by an enabled CRTC.
type Monitor struct {
	Name string
	Box
}

// GetMonitors lists connected outputs ordered left to right, top to bottom.
// Outputs mirroring the same CRTC are reported once.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	res, err := randr.GetScreenResourcesCurrent(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	seen := make(map[randr.Crtc]bool)
	var monitors []Monitor
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 || seen[info.Crtc] {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil || crtc.Width == 0 || crtc.Height == 0 {
			continue
		}
		seen[info.Crtc] = true
		monitors = append(monitors, Monitor{
			Name: string(info.Name),
			Box:  Box{X: int(crtc.X), Y: int(crtc.Y), Width: int(crtc.Width), Height: int(crtc.Height)},
		})
	}

	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].X != monitors[j].X {
			return monitors[i].X < monitors[j].X
		}
		return monitors[i].Y < monitors[j].Y
	})
	return monitors, nil
}

// ActiveMonitor picks the monitor holding the centre of the focused window,
// then the one under the pointer, then the first.
func (c *Connection) ActiveMonitor(monitors []Monitor) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}

	if active, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && active != 0 {
		if x, y, w, h, err := c.WindowRect(active); err == nil {
			if m, ok := monitorAt(monitors, x+w/2, y+h/2); ok {
				return m, nil
			}
		}
	}
	if p, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		if m, ok := monitorAt(monitors, int(p.RootX), int(p.RootY)); ok {
			return m, nil
		}
	}
	return monitors[0], nil
}

func monitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	return lo.Find(monitors, func(m Monitor) bool { return m.Contains(x, y) })
}

// WorkArea returns the part of m not reserved by docks. Dock struts are
// measured per monitor; _NET_WORKAREA, which spans the whole screen, is
// only the fallback.
func (c *Connection) WorkArea(m Monitor) Box {
	if reserved := c.dockReservations(); len(reserved) > 0 {
		return insetByReservations(m.Box, reserved)
	}

	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return m.Box
	}
	desktop := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(areas) {
		desktop = int(current)
	}
	wa := areas[desktop]
	if isect := m.Intersect(Box{X: wa.X, Y: wa.Y, Width: int(wa.Width), Height: int(wa.Height)}); !isect.Empty() {
		return isect
	}
	return m.Box
}

// edge is the root window side a strut is attached to.
type edge int

const (
	edgeTop edge = iota
	edgeBottom
	edgeLeft
	edgeRight
)

// reservation is the root area a dock claims along one edge.
type reservation struct {
	edge edge
	Box
}

func (c *Connection) dockReservations() []reservation {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil
	}
	rootW, rootH := int(geom.Width), int(geom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}

	var out []reservation
	for _, id := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, id)
		if err != nil || !lo.Contains(types, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}
		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, id); err == nil {
			out = append(out, strutReservations(*sp, rootW, rootH)...)
			continue
		}
		// _NET_WM_STRUT covers the whole edge
		if s, err := ewmh.WmStrutGet(c.XUtil, id); err == nil {
			out = append(out, strutReservations(ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}, rootW, rootH)...)
		}
	}
	return out
}

// strutReservations converts a partial strut into root-relative boxes.
func strutReservations(sp ewmh.WmStrutPartial, rootW, rootH int) []reservation {
	var out []reservation
	span := func(start, end uint) (int, int) { return int(start), int(end) - int(start) + 1 }

	if sp.Top > 0 {
		x, w := span(sp.TopStartX, sp.TopEndX)
		out = append(out, reservation{edgeTop, Box{X: x, Y: 0, Width: w, Height: int(sp.Top)}})
	}
	if sp.Bottom > 0 {
		x, w := span(sp.BottomStartX, sp.BottomEndX)
		out = append(out, reservation{edgeBottom, Box{X: x, Y: rootH - int(sp.Bottom), Width: w, Height: int(sp.Bottom)}})
	}
	if sp.Left > 0 {
		y, h := span(sp.LeftStartY, sp.LeftEndY)
		out = append(out, reservation{edgeLeft, Box{X: 0, Y: y, Width: int(sp.Left), Height: h}})
	}
	if sp.Right > 0 {
		y, h := span(sp.RightStartY, sp.RightEndY)
		out = append(out, reservation{edgeRight, Box{X: rootW - int(sp.Right), Y: y, Width: int(sp.Right), Height: h}})
	}
	return out
}

// insetByReservations shrinks m by the reservations overlapping it. Each
// inset is measured from the monitor's own edge, so a strut on a taller
// neighbour only takes what reaches into m.
func insetByReservations(m Box, reserved []reservation) Box {
	var top, bottom, left, right int
	for _, r := range reserved {
		isect := m.Intersect(r.Box)
		if isect.Empty() {
			continue
		}
		switch r.edge {
		case edgeTop:
			top = max(top, isect.Y+isect.Height-m.Y)
		case edgeBottom:
			bottom = max(bottom, m.Y+m.Height-isect.Y)
		case edgeLeft:
			left = max(left, isect.X+isect.Width-m.X)
		case edgeRight:
			right = max(right, m.X+m.Width-isect.X)
		}
	}
	return Box{
		X:      m.X + left,
		Y:      m.Y + top,
		Width:  max(m.Width-left-right, 1),
		Height: max(m.Height-top-bottom, 1),
	}
}
