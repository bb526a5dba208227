package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestBoxIntersect(t *testing.T) {
	a := Box{X: 0, Y: 0, Width: 100, Height: 100}

	if got := a.Intersect(Box{X: 50, Y: 80, Width: 100, Height: 100}); got != (Box{X: 50, Y: 80, Width: 50, Height: 20}) {
		t.Fatalf("overlap = %+v", got)
	}
	if got := a.Intersect(Box{X: 100, Y: 0, Width: 10, Height: 10}); !got.Empty() {
		t.Fatalf("touching boxes should not overlap, got %+v", got)
	}
	if !a.Contains(0, 99) || a.Contains(100, 0) {
		t.Fatalf("Contains should be inclusive at the origin and exclusive at the far edge")
	}
}

func TestMonitorAt(t *testing.T) {
	monitors := []Monitor{
		{Name: "DP-1", Box: Box{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{Name: "HDMI-1", Box: Box{X: 1920, Y: 0, Width: 1280, Height: 720}},
	}

	if m, ok := monitorAt(monitors, 1920, 10); !ok || m.Name != "HDMI-1" {
		t.Fatalf("monitorAt(1920, 10) = %q, %v; want HDMI-1", m.Name, ok)
	}
	if _, ok := monitorAt(monitors, 2000, 900); ok {
		t.Fatalf("point below the shorter monitor should not match")
	}
}

func TestStrutReservations(t *testing.T) {
	got := strutReservations(ewmh.WmStrutPartial{
		Top: 30, TopStartX: 0, TopEndX: 1919,
		Right: 48, RightStartY: 100, RightEndY: 299,
	}, 3840, 1080)

	if len(got) != 2 {
		t.Fatalf("got %d reservations, want 2", len(got))
	}
	if got[0].edge != edgeTop || got[0].Box != (Box{X: 0, Y: 0, Width: 1920, Height: 30}) {
		t.Fatalf("top reservation = %+v", got[0])
	}
	if got[1].edge != edgeRight || got[1].Box != (Box{X: 3792, Y: 100, Width: 48, Height: 200}) {
		t.Fatalf("right reservation = %+v", got[1])
	}
}

func TestInsetByReservationsPerMonitor(t *testing.T) {
	left := Box{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Box{X: 1920, Y: 0, Width: 1280, Height: 720}
	const rootW, rootH = 3200, 1080

	var reserved []reservation
	// top bar on the left monitor only
	reserved = append(reserved, strutReservations(ewmh.WmStrutPartial{
		Top: 30, TopStartX: 0, TopEndX: 1919,
	}, rootW, rootH)...)
	// 40px bottom bar on the shorter right monitor, measured from the root bottom
	reserved = append(reserved, strutReservations(ewmh.WmStrutPartial{
		Bottom: uint(rootH - 720 + 40), BottomStartX: 1920, BottomEndX: 3199,
	}, rootW, rootH)...)

	if got := insetByReservations(left, reserved); got != (Box{X: 0, Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("left work area = %+v", got)
	}
	if got := insetByReservations(right, reserved); got != (Box{X: 1920, Y: 0, Width: 1280, Height: 680}) {
		t.Fatalf("right work area = %+v", got)
	}
}

func TestInsetByReservationsKeepsPositiveSize(t *testing.T) {
	m := Box{X: 0, Y: 0, Width: 100, Height: 100}
	reserved := []reservation{
		{edge: edgeLeft, Box: Box{X: 0, Y: 0, Width: 80, Height: 100}},
		{edge: edgeRight, Box: Box{X: 10, Y: 0, Width: 90, Height: 100}},
	}

	got := insetByReservations(m, reserved)
	if got.Width != 1 || got.Height != 100 {
		t.Fatalf("inset = %+v; want width clamped to 1", got)
	}
}
