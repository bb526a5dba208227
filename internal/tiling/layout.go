package tiling

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoWindows is returned when there is nothing to lay out. Callers treat it
// as the end of the overview session rather than a failure.
var ErrNoWindows = errors.New("no windows to lay out")

// Rect represents a window position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Window is a top-level window to be placed, with its transient children.
type Window struct {
	ID       uint32
	Geometry Rect
	Children []Window
}

// Options tune the grid.
type Options struct {
	Spacing   int
	AllowZoom bool
	// ChildScaleCeiling caps a child's scale at parent scale times this
	// factor. Zero or negative disables the cap.
	ChildScaleCeiling float64
}

// Grid holds the dimensions chosen for a window count.
type Grid struct {
	Rows        int
	Cols        int
	LastRowCols int
}

// Placement is the target transform of one window.
type Placement struct {
	ID         uint32
	Parent     uint32 // 0 for top-level windows
	Row        int
	Col        int
	Cell       Rect
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// GridFor determines the grid dimensions for the given number of windows.
func GridFor(numWindows int) Grid {
	if numWindows <= 0 {
		return Grid{}
	}

	rows := int(math.Floor(math.Sqrt(float64(numWindows + 1))))
	cols := int(math.Ceil(float64(numWindows) / float64(rows)))

	last := cols - (rows*cols - numWindows)
	if last < 1 {
		last = 1
	}
	if last > cols {
		last = cols
	}

	return Grid{Rows: rows, Cols: cols, LastRowCols: last}
}

// ColsInRow returns how many cells the given row holds.
func (g Grid) ColsInRow(row int) int {
	if row == g.Rows-1 {
		return g.LastRowCols
	}
	return g.Cols
}

// CellRect returns the rectangle of a grid cell inside area.
//
// Rows split the height equally after subtracting (rows+1) spacings; each
// row splits the width by its own column count in the same way, so a short
// last row gets wider cells.
func (g Grid) CellRect(area Rect, spacing, row, col int) Rect {
	height := (area.Height - (g.Rows+1)*spacing) / g.Rows
	n := g.ColsInRow(row)
	width := (area.Width - (n+1)*spacing) / n

	return Rect{
		X:      area.X + spacing + col*(width+spacing),
		Y:      area.Y + spacing + row*(height+spacing),
		Width:  width,
		Height: height,
	}
}

// LayoutGrid computes a placement for every window and child.
//
// Top-level windows are ordered by ID before slotting so the same set always
// produces the same grid. The returned placements list each top-level window
// followed by its children.
func LayoutGrid(windows []Window, area Rect, opts Options) (Grid, []Placement, error) {
	if len(windows) == 0 {
		return Grid{}, nil, ErrNoWindows
	}

	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	grid := GridFor(len(sorted))

	first := grid.CellRect(area, opts.Spacing, 0, 0)
	short := grid.CellRect(area, opts.Spacing, grid.Rows-1, 0)
	if first.Width <= 0 || first.Height <= 0 || short.Width <= 0 {
		return Grid{}, nil, fmt.Errorf(
			"insufficient space for overview grid: area=%dx%d rows=%d cols=%d spacing=%d (cell=%dx%d)",
			area.Width, area.Height, grid.Rows, grid.Cols, opts.Spacing, first.Width, first.Height,
		)
	}

	placements := make([]Placement, 0, len(sorted))
	slot := 0
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.ColsInRow(row); col++ {
			if slot >= len(sorted) {
				break
			}
			win := sorted[slot]
			slot++

			cell := grid.CellRect(area, opts.Spacing, row, col)
			scale := fitScale(cell, win.Geometry, opts.AllowZoom)
			tx, ty := centerTranslation(cell, win.Geometry)

			placements = append(placements, Placement{
				ID:         win.ID,
				Row:        row,
				Col:        col,
				Cell:       cell,
				Scale:      scale,
				TranslateX: tx,
				TranslateY: ty,
			})

			for _, child := range win.Children {
				childScale := fitScale(cell, child.Geometry, opts.AllowZoom)
				if opts.ChildScaleCeiling > 0 && childScale > scale*opts.ChildScaleCeiling {
					childScale = scale * opts.ChildScaleCeiling
				}
				cx, cy := centerTranslation(cell, child.Geometry)
				placements = append(placements, Placement{
					ID:         child.ID,
					Parent:     win.ID,
					Row:        row,
					Col:        col,
					Cell:       cell,
					Scale:      childScale,
					TranslateX: cx,
					TranslateY: cy,
				})
			}
		}
	}

	return grid, placements, nil
}

func fitScale(cell, geom Rect, allowZoom bool) float64 {
	if geom.Width <= 0 || geom.Height <= 0 {
		return 1
	}
	scale := math.Min(
		float64(cell.Width)/float64(geom.Width),
		float64(cell.Height)/float64(geom.Height),
	)
	if !allowZoom && scale > 1 {
		scale = 1
	}
	return scale
}

// centerTranslation moves the window centre onto the cell centre. Scaling
// happens around the window centre, so this holds for any scale.
func centerTranslation(cell, geom Rect) (float64, float64) {
	tx := float64(cell.X-geom.X) + float64(cell.Width-geom.Width)/2
	ty := float64(cell.Y-geom.Y) + float64(cell.Height-geom.Height)/2
	return tx, ty
}

// ScaledRect returns the on-screen rectangle of geom after scaling around its
// centre and translating.
func ScaledRect(geom Rect, scaleX, scaleY, tx, ty float64) Rect {
	w := float64(geom.Width) * scaleX
	h := float64(geom.Height) * scaleY
	cx := float64(geom.X) + float64(geom.Width)/2 + tx
	cy := float64(geom.Y) + float64(geom.Height)/2 + ty
	return Rect{
		X:      int(math.Round(cx - w/2)),
		Y:      int(math.Round(cy - h/2)),
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
}
