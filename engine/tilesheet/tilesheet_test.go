package tilesheet

import (
	"errors"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/geometry"
	"github.com/1siamBot/tilepatch/engine/pixel"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "Maps/springobjects"},
		{1, "Maps/springobjects2"},
		{4, "Maps/springobjects5"},
	}
	for _, tt := range tests {
		if got := SheetName("Maps/springobjects", tt.n); got != tt.want {
			t.Errorf("SheetName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestResolveProperty(t *testing.T) {
	r := NewResolver(2048, nil, quietLogger())
	for y := 0; y < 3*2048+17; y += 7 {
		got := r.Resolve(image.Rect(0, y, 16, y+16))
		if got.TileSheet != y/2048 {
			t.Fatalf("y=%d: sheet %d, want %d", y, got.TileSheet, y/2048)
		}
		if got.Y < 0 || got.Y >= 2048 {
			t.Fatalf("y=%d: in-sheet row %d outside [0,2048)", y, got.Y)
		}
	}
}

func TestResolveScenario(t *testing.T) {
	r := NewResolver(2048, nil, quietLogger())
	got := r.Resolve(image.Rect(0, 2096, 20, 2176))
	if got != (Target{TileSheet: 1, Y: 48}) {
		t.Fatalf("Resolve(y=2096) = %+v, want sheet 1 row 48", got)
	}
}

func TestResolveBoundary(t *testing.T) {
	r := NewResolver(2048, nil, quietLogger())
	last := image.Rect(0, 2048-32, 16, 2048)
	if got := r.Resolve(last); got.TileSheet != 0 {
		t.Fatalf("rect ending on the ceiling belongs to sheet 0, got %+v", got)
	}
	next := image.Rect(0, 2048, 16, 2048+32)
	if got := r.Resolve(next); got != (Target{TileSheet: 1, Y: 0}) {
		t.Fatalf("rect starting at the ceiling belongs to sheet 1 row 0, got %+v", got)
	}
}

func TestAdjusted(t *testing.T) {
	r := NewResolver(4096, nil, quietLogger())
	// object 6200 lives on row 258, which is past 4096 px
	rect := geometry.ObjectRect(6200)
	tgt, adj := r.Adjusted(rect)
	if tgt.TileSheet != 1 {
		t.Fatalf("sheet = %d, want 1", tgt.TileSheet)
	}
	if adj.Min.X != rect.Min.X || adj.Min.Y != rect.Min.Y-4096 || adj.Size() != rect.Size() {
		t.Fatalf("adjusted %v from %v", adj, rect)
	}
}

func TestDefaultMaxHeight(t *testing.T) {
	if r := NewResolver(0, nil, nil); r.MaxHeight != DefaultMaxHeight {
		t.Fatalf("MaxHeight = %d", r.MaxHeight)
	}
}

func TestLoadExistingMissing(t *testing.T) {
	r := NewResolver(64, NewRegistry(nil), quietLogger())
	if _, err := r.LoadExisting("TileSheets/crops", 1); !errors.Is(err, ErrMissingOverflowAtlas) {
		t.Fatalf("got %v, want ErrMissingOverflowAtlas", err)
	}
	r = NewResolver(64, nil, quietLogger())
	if _, err := r.LoadExisting("TileSheets/crops", 1); !errors.Is(err, ErrMissingOverflowAtlas) {
		t.Fatalf("nil store: got %v", err)
	}
}

func TestPublishThenLoad(t *testing.T) {
	reg := NewRegistry(nil)
	r := NewResolver(64, reg, quietLogger())
	img := pixel.New(4, 4)
	img.Set(1, 1, color.RGBA{5, 5, 5, 255})
	r.Publish("TileSheets/crops", 2, img)

	got, err := r.LoadExisting("TileSheets/crops", 2)
	if err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}
	if !got.Equal(img) {
		t.Fatalf("loaded sheet differs")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "TileSheets/crops3" {
		t.Fatalf("Names = %v", names)
	}
	reg.Reset()
	if _, err := reg.Load("TileSheets/crops3"); !errors.Is(err, ErrMissingOverflowAtlas) {
		t.Fatalf("after Reset: %v", err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	img := pixel.New(8, 3)
	img.Set(7, 2, color.RGBA{1, 2, 3, 255})
	if err := pixel.Save(filepath.Join(dir, "Characters", "Farmer", "hats2.png"), img); err != nil {
		t.Fatalf("Save: %v", err)
	}

	src, err := NewDirSource(dir, 1<<20)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	defer src.Close()

	if !src.Exists("Characters/Farmer/hats2") {
		t.Fatalf("expected sheet file to exist")
	}
	for i := 0; i < 2; i++ {
		got, err := src.Load("Characters/Farmer/hats2")
		if err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
		if !got.Equal(img) {
			t.Fatalf("Load #%d returned different pixels", i)
		}
	}
	src.Forget("Characters/Farmer/hats2")

	if _, err := src.Load("Characters/Farmer/hats3"); !errors.Is(err, ErrMissingOverflowAtlas) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestRegistryFallsBackToDir(t *testing.T) {
	dir := t.TempDir()
	img := pixel.New(2, 2)
	if err := pixel.Save(filepath.Join(dir, "TileSheets", "weapons2.png"), img); err != nil {
		t.Fatalf("Save: %v", err)
	}
	src, err := NewDirSource(dir, 0)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	defer src.Close()

	r := NewResolver(16, NewRegistry(src), quietLogger())
	if _, err := r.LoadExisting("TileSheets/weapons", 1); err != nil {
		t.Fatalf("LoadExisting through fallback: %v", err)
	}
}
