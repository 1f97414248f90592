package inject

import (
	"fmt"
	"image"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/geometry"
	"github.com/1siamBot/tilepatch/engine/pixel"
)

// Sprite is one image an entity places at a logical atlas rectangle
type Sprite struct {
	Variant string
	Rect    image.Rectangle
	Image   *pixel.Image
}

// Layout lists an entity's sprites for one atlas, primary first
type Layout func(e *content.Entity) ([]Sprite, error)

// AtlasType describes one host atlas that receives sprites
type AtlasType struct {
	Key        string
	Asset      string
	Grid       geometry.Grid
	StartIndex int
	Kinds      []content.Kind
	Layout     Layout

	// SheetWidth is set when variants reach past one grid row
	SheetWidth int
}

// Width is the narrowest sheet that holds every sprite the layout places
func (t AtlasType) Width() int {
	return max(t.SheetWidth, t.Grid.RowWidth())
}

// Accepts reports whether entities of kind k are laid out into this atlas
func (t AtlasType) Accepts(k content.Kind) bool {
	for _, known := range t.Kinds {
		if known == k {
			return true
		}
	}
	return false
}

// StartRow is the first row reserved for injected sprites
func (t AtlasType) StartRow() int {
	return t.Grid.Rect(t.StartIndex).Min.Y
}

// Placement is where an entity's primary sprite ended up
type Placement struct {
	Entity string
	Kind   content.Kind
	ID     int
	Sheet  string
	X, Y   int
}

// SheetLayout describes one committed physical sheet of a pass
type SheetLayout struct {
	Index  int
	Name   string
	Offset int
	Height int
}

// Report summarizes one injection pass
type Report struct {
	Atlas         string
	Placements    []Placement
	Failures      []*EntityError
	Sheets        []SheetLayout
	Heights       map[int]int
	StackedHeight int
	Resized       bool
	Released      int
}

// Placement returns the recorded placement of the entity with kind and id.
// Names are not unique across kinds or packs, so they are not used.
func (r *Report) Placement(kind content.Kind, id int) (Placement, bool) {
	for _, p := range r.Placements {
		if p.Kind == kind && p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// EntityError isolates one entity's failure from the rest of the pass
type EntityError struct {
	Atlas  string
	Entity string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s: injecting sprite for %s: %v", e.Atlas, e.Entity, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }
