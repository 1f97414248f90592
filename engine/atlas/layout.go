package atlas

import (
	"image"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/geometry"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// Variant names as they appear in logs and errors
const (
	VariantPrimary   = "primary"
	VariantColor     = "color"
	VariantDye       = "dye"
	VariantFemale    = "female"
	VariantFemaleDye = "female dye"
	VariantExtra     = "extra"
	VariantShoeColor = "shoe color"
)

func single(rect func(int) image.Rectangle) inject.Layout {
	return func(e *content.Entity) ([]inject.Sprite, error) {
		return []inject.Sprite{{Variant: VariantPrimary, Rect: rect(e.SpriteIndex), Image: e.Texture}}, nil
	}
}

// objectSprites covers springobjects: objects with an optional color overlay
// in the next cell, and the inventory icon of boots
func objectSprites(e *content.Entity) ([]inject.Sprite, error) {
	sprites := []inject.Sprite{{Variant: VariantPrimary, Rect: geometry.ObjectRect(e.SpriteIndex), Image: e.Texture}}
	if e.Kind == content.KindObject && e.IsColored {
		sprites = append(sprites, inject.Sprite{
			Variant: VariantColor, Rect: geometry.ObjectRect(e.SpriteIndex + 1), Image: e.TextureColor,
		})
	}
	return sprites, nil
}

func bigCraftableSprites(e *content.Entity) ([]inject.Sprite, error) {
	sprites := []inject.Sprite{{Variant: VariantPrimary, Rect: geometry.BigCraftableRect(e.SpriteIndex), Image: e.Texture}}
	for k, extra := range e.Extra {
		sprites = append(sprites, inject.Sprite{
			Variant: VariantExtra, Rect: geometry.BigCraftableRect(e.SpriteIndex + k + 1), Image: extra,
		})
	}
	return sprites, nil
}

// shirtSprites orders plain, dye, female plain, female dye
func shirtSprites(e *content.Entity) ([]inject.Sprite, error) {
	sprites := []inject.Sprite{{Variant: VariantPrimary, Rect: geometry.ShirtRectPlain(e.SpriteIndex), Image: e.Texture}}
	if e.Dyeable {
		sprites = append(sprites, inject.Sprite{
			Variant: VariantDye, Rect: geometry.ShirtRectDye(e.SpriteIndex), Image: e.TextureColor,
		})
	}
	if e.HasFemaleVariant {
		sprites = append(sprites, inject.Sprite{
			Variant: VariantFemale, Rect: geometry.ShirtRectPlain(e.FemaleIndex), Image: e.TextureFemale,
		})
		if e.Dyeable {
			sprites = append(sprites, inject.Sprite{
				Variant: VariantFemaleDye, Rect: geometry.ShirtRectDye(e.FemaleIndex), Image: e.TextureFemaleColor,
			})
		}
	}
	return sprites, nil
}

func shoeColorSprites(e *content.Entity) ([]inject.Sprite, error) {
	return []inject.Sprite{{Variant: VariantShoeColor, Rect: geometry.BootsRect(e.ColorIndex), Image: e.TextureColor}}, nil
}
