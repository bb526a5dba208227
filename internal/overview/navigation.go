package overview

import (
	"math"

	"github.com/1broseidon/winscale/internal/tiling"
)

// Direction represents an arrow key direction
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Navigate returns the cell reached by moving one step from cell.
//
// Rows wrap modulo the row count and columns wrap within the actual column
// count of the row. The last row may hold fewer columns than the others, so
// vertical moves into or out of it map the column proportionally.
func Navigate(grid tiling.Grid, cell Cell, dir Direction) Cell {
	if grid.Rows <= 0 || grid.Cols <= 0 {
		return cell
	}

	row, col := cell.Row, cell.Col

	switch dir {
	case DirUp, DirDown:
		fromLast := row == grid.Rows-1
		if dir == DirUp {
			row = (row - 1 + grid.Rows) % grid.Rows
		} else {
			row = (row + 1) % grid.Rows
		}
		toLast := row == grid.Rows-1

		if grid.Rows > 1 && fromLast != toLast && grid.LastRowCols != grid.Cols {
			if toLast {
				col = int(math.Round(float64(col*grid.LastRowCols) / float64(grid.Cols)))
			} else {
				col = int(math.Round(float64(col*grid.Cols) / float64(grid.LastRowCols)))
			}
		}
		col = clamp(col, 0, grid.ColsInRow(row)-1)

	case DirLeft:
		n := grid.ColsInRow(row)
		col = (col - 1 + n) % n
	case DirRight:
		n := grid.ColsInRow(row)
		col = (col + 1) % n
	}

	return Cell{Row: row, Col: col}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
