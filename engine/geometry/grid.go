package geometry

import "image"

// Grid is the fixed cell layout the host bakes into one atlas type
type Grid struct {
	CellWidth   int
	CellHeight  int
	CellsPerRow int
}

// Host grids. These must match the host's own sprite lookup exactly.
var (
	ObjectGrid       = Grid{CellWidth: 16, CellHeight: 16, CellsPerRow: 24}
	CropGrid         = Grid{CellWidth: 128, CellHeight: 32, CellsPerRow: 2}
	FruitTreeGrid    = Grid{CellWidth: 432, CellHeight: 80, CellsPerRow: 1}
	BigCraftableGrid = Grid{CellWidth: 16, CellHeight: 32, CellsPerRow: 8}
	HatGrid          = Grid{CellWidth: 20, CellHeight: 80, CellsPerRow: 12}
	WeaponGrid       = Grid{CellWidth: 16, CellHeight: 16, CellsPerRow: 8}
	ShirtGrid        = Grid{CellWidth: 8, CellHeight: 32, CellsPerRow: 8}
	PantsGrid        = Grid{CellWidth: 192, CellHeight: 688, CellsPerRow: 10}
	BootsGrid        = Grid{CellWidth: 4, CellHeight: 1, CellsPerRow: 1}
)

// ShirtDyeShift is how many cells right of the plain shirt the dye mask sits
const ShirtDyeShift = 16

// ShirtSheetWidth spans the plain cells and the dye masks beside them
var ShirtSheetWidth = (ShirtDyeShift + ShirtGrid.CellsPerRow) * ShirtGrid.CellWidth

// Valid reports whether the grid can address any cell
func (g Grid) Valid() bool {
	return g.CellsPerRow >= 1 && g.CellWidth > 0 && g.CellHeight > 0
}

// Rect returns the cell rectangle for index
func (g Grid) Rect(index int) image.Rectangle {
	row, col := index/g.CellsPerRow, index%g.CellsPerRow
	x, y := col*g.CellWidth, row*g.CellHeight
	return image.Rect(x, y, x+g.CellWidth, y+g.CellHeight)
}

// RowWidth is the pixel width of one full grid row
func (g Grid) RowWidth() int {
	return g.CellWidth * g.CellsPerRow
}

// Shift moves a cell rectangle right by n cell widths
func (g Grid) Shift(r image.Rectangle, cells int) image.Rectangle {
	return r.Add(image.Pt(cells*g.CellWidth, 0))
}

// ObjectRect is the springobjects cell for an object id
func ObjectRect(index int) image.Rectangle { return ObjectGrid.Rect(index) }

// CropRect is the crop sprite row for a crop sprite index
func CropRect(index int) image.Rectangle { return CropGrid.Rect(index) }

// FruitTreeRect is the full-width fruit tree strip
func FruitTreeRect(index int) image.Rectangle { return FruitTreeGrid.Rect(index) }

// BigCraftableRect is the craftables cell for a big craftable id
func BigCraftableRect(index int) image.Rectangle { return BigCraftableGrid.Rect(index) }

// HatRect is the four-facing hat column
func HatRect(index int) image.Rectangle { return HatGrid.Rect(index) }

// WeaponRect is the weapons cell
func WeaponRect(index int) image.Rectangle { return WeaponGrid.Rect(index) }

// ShirtRectPlain is the undyed shirt cell
func ShirtRectPlain(index int) image.Rectangle { return ShirtGrid.Rect(index) }

// ShirtRectDye is the dye mask next to the plain shirt
func ShirtRectDye(index int) image.Rectangle {
	return ShirtGrid.Shift(ShirtGrid.Rect(index), ShirtDyeShift)
}

// PantsRect is the pants animation block
func PantsRect(index int) image.Rectangle { return PantsGrid.Rect(index) }

// BootsRect is the shoe color row
func BootsRect(index int) image.Rectangle { return BootsGrid.Rect(index) }
