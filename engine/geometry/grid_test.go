package geometry

import (
	"image"
	"testing"
)

var allGrids = map[string]Grid{
	"objects":       ObjectGrid,
	"crops":         CropGrid,
	"fruit_trees":   FruitTreeGrid,
	"big_craftable": BigCraftableGrid,
	"hats":          HatGrid,
	"weapons":       WeaponGrid,
	"shirts":        ShirtGrid,
	"pants":         PantsGrid,
	"boots":         BootsGrid,
}

func TestRectScenarios(t *testing.T) {
	g := Grid{CellWidth: 16, CellHeight: 16, CellsPerRow: 24}
	tests := []struct {
		index int
		want  image.Rectangle
	}{
		{0, image.Rect(0, 0, 16, 16)},
		{1, image.Rect(16, 0, 32, 16)},
		{23, image.Rect(368, 0, 384, 16)},
		{24, image.Rect(0, 16, 16, 32)},
		{49, image.Rect(16, 32, 32, 48)},
	}
	for _, tt := range tests {
		if got := g.Rect(tt.index); got != tt.want {
			t.Errorf("Rect(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestRectDeterministic(t *testing.T) {
	for name, g := range allGrids {
		for i := 0; i < 500; i++ {
			if g.Rect(i) != g.Rect(i) {
				t.Fatalf("%s: Rect(%d) not deterministic", name, i)
			}
		}
	}
}

func TestRectsDoNotOverlap(t *testing.T) {
	for name, g := range allGrids {
		const n = 120
		rects := make([]image.Rectangle, n)
		for i := range rects {
			rects[i] = g.Rect(i)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rects[i].Overlaps(rects[j]) {
					t.Fatalf("%s: Rect(%d)=%v overlaps Rect(%d)=%v", name, i, rects[i], j, rects[j])
				}
			}
		}
	}
}

func TestGridsValid(t *testing.T) {
	for name, g := range allGrids {
		if !g.Valid() {
			t.Errorf("%s grid invalid: %+v", name, g)
		}
	}
	if (Grid{CellWidth: 1, CellHeight: 1}).Valid() {
		t.Errorf("zero cells per row must be invalid")
	}
}

func TestShirtDyeSitsRightOfPlain(t *testing.T) {
	for _, i := range []int{0, 7, 8, 750} {
		plain, dye := ShirtRectPlain(i), ShirtRectDye(i)
		if dye.Min.Y != plain.Min.Y || dye.Size() != plain.Size() {
			t.Fatalf("dye rect %v must share row and size with %v", dye, plain)
		}
		if dye.Min.X-plain.Min.X != 128 {
			t.Fatalf("dye offset = %d, want 128", dye.Min.X-plain.Min.X)
		}
	}
}

func TestFullRowTypes(t *testing.T) {
	if r := FruitTreeRect(3); r != image.Rect(0, 240, 432, 320) {
		t.Fatalf("FruitTreeRect(3) = %v", r)
	}
	if r := BootsRect(101); r != image.Rect(0, 101, 4, 102) {
		t.Fatalf("BootsRect(101) = %v", r)
	}
	if HatGrid.RowWidth() != 240 {
		t.Fatalf("hat row width = %d", HatGrid.RowWidth())
	}
}
