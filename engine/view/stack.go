package view

import (
	"github.com/1siamBot/tilepatch/engine/geometry"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// Stack lays committed sheets out top to bottom, the way the stacked
// logical height is counted
type Stack struct {
	Sheets    []inject.SheetLayout
	Grid      geometry.Grid
	MaxHeight int
	Width     int
}

// Height is the total stacked height
func (s *Stack) Height() int {
	if len(s.Sheets) == 0 {
		return 0
	}
	last := s.Sheets[len(s.Sheets)-1]
	return last.Offset + last.Height
}

// Hit is what lies under a content position
type Hit struct {
	Sheet inject.SheetLayout
	X, Y  int // in-sheet pixel
	Index int // logical grid cell, -1 outside the grid
}

// At resolves a stacked content position to its sheet and logical cell
func (s *Stack) At(x, y int) (Hit, bool) {
	if x < 0 || x >= s.Width || y < 0 {
		return Hit{}, false
	}
	for _, sh := range s.Sheets {
		if y >= sh.Offset && y < sh.Offset+sh.Height {
			h := Hit{Sheet: sh, X: x, Y: y - sh.Offset, Index: -1}
			if s.Grid.Valid() && x < s.Grid.RowWidth() {
				logicalY := sh.Index*s.MaxHeight + h.Y
				h.Index = (logicalY/s.Grid.CellHeight)*s.Grid.CellsPerRow + x/s.Grid.CellWidth
			}
			return h, true
		}
	}
	return Hit{}, false
}

// Locate returns the stacked content position of a placement
func (s *Stack) Locate(p inject.Placement) (int, int, bool) {
	for _, sh := range s.Sheets {
		if sh.Name == p.Sheet {
			return p.X, sh.Offset + p.Y, true
		}
	}
	return 0, 0, false
}
