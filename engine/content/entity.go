package content

import (
	"errors"
	"fmt"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

// ErrMissingTexture means an entity claims a sprite variant it has no image for
var ErrMissingTexture = errors.New("missing texture")

// Kind is the entity category, which decides the atlases it lands in
type Kind string

const (
	KindObject       Kind = "object"
	KindBoots        Kind = "boots"
	KindCrop         Kind = "crop"
	KindFruitTree    Kind = "fruit_tree"
	KindBigCraftable Kind = "big_craftable"
	KindHat          Kind = "hat"
	KindWeapon       Kind = "weapon"
	KindShirt        Kind = "shirt"
	KindPants        Kind = "pants"
)

// Kinds lists every kind in catalogue order
var Kinds = []Kind{
	KindObject, KindBoots, KindCrop, KindFruitTree, KindBigCraftable,
	KindHat, KindWeapon, KindShirt, KindPants,
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Entity is one injected item with the sprites it contributes
type Entity struct {
	Name string
	Kind Kind
	Pack string

	// ID is the data-table key; SpriteIndex the primary cell index.
	// For most kinds they are equal.
	ID          int
	SpriteIndex int
	FemaleIndex int
	ColorIndex  int

	Texture            *pixel.Image
	TextureColor       *pixel.Image
	TextureFemale      *pixel.Image
	TextureFemaleColor *pixel.Image
	Extra              []*pixel.Image

	IsColored        bool
	Dyeable          bool
	HasFemaleVariant bool

	// Fields holds the per-kind data columns serialized into table rows
	Fields []string
}

// IDSpan is how many consecutive ids the entity occupies in its id space
func (e *Entity) IDSpan() int {
	switch e.Kind {
	case KindObject:
		if e.IsColored {
			return 2
		}
	case KindBigCraftable:
		return 1 + len(e.Extra)
	case KindShirt:
		if e.HasFemaleVariant {
			return 2
		}
	}
	return 1
}

// Require returns ErrMissingTexture when img is nil
func Require(img *pixel.Image, e *Entity, variant string) (*pixel.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%s %q %s sprite: %w", e.Kind, e.Name, variant, ErrMissingTexture)
	}
	return img, nil
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %q (%d)", e.Kind, e.Name, e.ID)
}
