package tiling

import (
	"errors"
	"math"
	"testing"
)

func TestGridFor_Dimensions(t *testing.T) {
	tests := []struct {
		n    int
		want Grid
	}{
		{0, Grid{}},
		{1, Grid{Rows: 1, Cols: 1, LastRowCols: 1}},
		{2, Grid{Rows: 1, Cols: 2, LastRowCols: 2}},
		{3, Grid{Rows: 2, Cols: 2, LastRowCols: 1}},
		{4, Grid{Rows: 2, Cols: 2, LastRowCols: 2}},
		{5, Grid{Rows: 2, Cols: 3, LastRowCols: 2}},
		{8, Grid{Rows: 3, Cols: 3, LastRowCols: 2}},
		{10, Grid{Rows: 3, Cols: 4, LastRowCols: 2}},
	}

	for _, tt := range tests {
		got := GridFor(tt.n)
		if got != tt.want {
			t.Errorf("GridFor(%d) = %+v, want %+v", tt.n, got, tt.want)
		}
	}
}

func TestGridFor_CoversEveryWindow(t *testing.T) {
	for n := 1; n <= 200; n++ {
		g := GridFor(n)
		if g.Rows*g.Cols < n {
			t.Fatalf("n=%d: rows*cols=%d < n", n, g.Rows*g.Cols)
		}
		if (g.Rows-1)*g.Cols >= n {
			t.Fatalf("n=%d: last row would be empty (rows=%d cols=%d)", n, g.Rows, g.Cols)
		}
		if g.LastRowCols < 1 || g.LastRowCols > g.Cols {
			t.Fatalf("n=%d: last_row_cols=%d outside [1,%d]", n, g.LastRowCols, g.Cols)
		}
		if (g.Rows-1)*g.Cols+g.LastRowCols != n {
			t.Fatalf("n=%d: cells=%d", n, (g.Rows-1)*g.Cols+g.LastRowCols)
		}
	}
}

func TestLayoutGrid_FiveWindowScenario(t *testing.T) {
	area := Rect{X: 0, Y: 0, Width: 1000, Height: 800}
	var windows []Window
	for i := 1; i <= 5; i++ {
		windows = append(windows, Window{ID: uint32(i), Geometry: Rect{X: 0, Y: 0, Width: 800, Height: 600}})
	}

	grid, placements, err := LayoutGrid(windows, area, Options{Spacing: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grid != (Grid{Rows: 2, Cols: 3, LastRowCols: 2}) {
		t.Fatalf("grid = %+v", grid)
	}
	if len(placements) != 5 {
		t.Fatalf("expected 5 placements, got %d", len(placements))
	}

	for _, p := range placements[:3] {
		if p.Row != 0 || p.Cell.Width != 320 {
			t.Fatalf("row 0 placement %+v: want width 320", p)
		}
	}
	for _, p := range placements[3:] {
		if p.Row != 1 || p.Cell.Width != 485 {
			t.Fatalf("row 1 placement %+v: want width 485", p)
		}
	}
	// (800 - 3*10) / 2 = 385
	if placements[0].Cell.Height != 385 {
		t.Fatalf("cell height = %d, want 385", placements[0].Cell.Height)
	}
	if placements[3].Cell.X != 10 || placements[4].Cell.X != 505 {
		t.Fatalf("row 1 cells start at %d and %d", placements[3].Cell.X, placements[4].Cell.X)
	}
}

func TestLayoutGrid_SortsByID(t *testing.T) {
	area := Rect{Width: 1000, Height: 800}
	geom := Rect{Width: 100, Height: 100}
	windows := []Window{{ID: 30, Geometry: geom}, {ID: 10, Geometry: geom}, {ID: 20, Geometry: geom}}

	_, placements, err := LayoutGrid(windows, area, Options{Spacing: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint32{10, 20, 30}
	for i, p := range placements {
		if p.ID != want[i] {
			t.Fatalf("placement %d has id %d, want %d", i, p.ID, want[i])
		}
	}
}

func TestLayoutGrid_ScaleClampedAndInsideCell(t *testing.T) {
	area := Rect{X: 100, Y: 50, Width: 1920, Height: 1080}
	windows := []Window{
		{ID: 1, Geometry: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
		{ID: 2, Geometry: Rect{X: 300, Y: 200, Width: 200, Height: 150}},
		{ID: 3, Geometry: Rect{X: -400, Y: 900, Width: 640, Height: 1200}},
		{ID: 4, Geometry: Rect{X: 50, Y: 60, Width: 3000, Height: 400}},
	}

	_, placements, err := LayoutGrid(windows, area, Options{Spacing: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	geoms := map[uint32]Rect{}
	for _, w := range windows {
		geoms[w.ID] = w.Geometry
	}

	for _, p := range placements {
		if p.Scale > 1.0 {
			t.Fatalf("window %d scale %f exceeds 1 with zoom disabled", p.ID, p.Scale)
		}
		r := ScaledRect(geoms[p.ID], p.Scale, p.Scale, p.TranslateX, p.TranslateY)
		if r.X < p.Cell.X-1 || r.Y < p.Cell.Y-1 ||
			r.X+r.Width > p.Cell.X+p.Cell.Width+1 || r.Y+r.Height > p.Cell.Y+p.Cell.Height+1 {
			t.Fatalf("window %d rect %+v escapes cell %+v", p.ID, r, p.Cell)
		}
		left := r.X - p.Cell.X
		right := p.Cell.X + p.Cell.Width - (r.X + r.Width)
		if math.Abs(float64(left-right)) > 2 {
			t.Fatalf("window %d not centred horizontally: left=%d right=%d", p.ID, left, right)
		}
	}
}

func TestLayoutGrid_AllowZoom(t *testing.T) {
	area := Rect{Width: 1000, Height: 1000}
	windows := []Window{{ID: 1, Geometry: Rect{Width: 100, Height: 100}}}

	_, placements, err := LayoutGrid(windows, area, Options{Spacing: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placements[0].Scale != 1 {
		t.Fatalf("scale = %f, want 1 without zoom", placements[0].Scale)
	}

	_, placements, err = LayoutGrid(windows, area, Options{Spacing: 0, AllowZoom: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placements[0].Scale != 10 {
		t.Fatalf("scale = %f, want 10 with zoom", placements[0].Scale)
	}
}

func TestLayoutGrid_ChildrenInheritCellAndCeiling(t *testing.T) {
	area := Rect{Width: 1000, Height: 800}
	parent := Window{
		ID:       1,
		Geometry: Rect{Width: 2000, Height: 1600},
		Children: []Window{{ID: 5, Geometry: Rect{X: 100, Y: 100, Width: 200, Height: 100}}},
	}

	_, placements, err := LayoutGrid([]Window{parent}, area, Options{Spacing: 0, ChildScaleCeiling: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(placements) != 2 {
		t.Fatalf("expected parent and child placements, got %d", len(placements))
	}
	p, c := placements[0], placements[1]
	if c.Parent != p.ID || c.Row != p.Row || c.Col != p.Col {
		t.Fatalf("child %+v does not inherit parent cell %+v", c, p)
	}
	if p.Scale != 0.5 {
		t.Fatalf("parent scale = %f, want 0.5", p.Scale)
	}
	// The child would fit at 1.0 but is capped by parent scale * ceiling.
	if c.Scale != 0.5 {
		t.Fatalf("child scale = %f, want 0.5", c.Scale)
	}
}

func TestLayoutGrid_Errors(t *testing.T) {
	_, _, err := LayoutGrid(nil, Rect{Width: 100, Height: 100}, Options{})
	if !errors.Is(err, ErrNoWindows) {
		t.Fatalf("expected ErrNoWindows, got %v", err)
	}

	windows := []Window{{ID: 1, Geometry: Rect{Width: 10, Height: 10}}, {ID: 2, Geometry: Rect{Width: 10, Height: 10}}}
	_, _, err = LayoutGrid(windows, Rect{Width: 20, Height: 10}, Options{Spacing: 20})
	if err == nil {
		t.Fatalf("expected error for insufficient space")
	}
}
