// Package atlas is the catalogue of host atlases that receive injected
// sprites, with the cell layout of every entity kind.
package atlas

import (
	"fmt"
	"sort"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/geometry"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// Atlas keys, also used for per-type config overrides
const (
	Objects       = "objects"
	Crops         = "crops"
	FruitTrees    = "fruit_trees"
	BigCraftables = "big_craftables"
	Hats          = "hats"
	Weapons       = "weapons"
	Shirts        = "shirts"
	Pants         = "pants"
	ShoeColors    = "shoe_colors"
)

// Catalogue returns every atlas type in pass order
func Catalogue() []inject.AtlasType {
	return []inject.AtlasType{
		{
			Key: Objects, Asset: "Maps/springobjects", Grid: geometry.ObjectGrid, StartIndex: 3000,
			Kinds: []content.Kind{content.KindObject, content.KindBoots}, Layout: objectSprites,
		},
		{
			Key: Crops, Asset: "TileSheets/crops", Grid: geometry.CropGrid, StartIndex: 100,
			Kinds: []content.Kind{content.KindCrop}, Layout: single(geometry.CropRect),
		},
		{
			Key: FruitTrees, Asset: "TileSheets/fruitTrees", Grid: geometry.FruitTreeGrid, StartIndex: 10,
			Kinds: []content.Kind{content.KindFruitTree}, Layout: single(geometry.FruitTreeRect),
		},
		{
			Key: BigCraftables, Asset: "TileSheets/Craftables", Grid: geometry.BigCraftableGrid, StartIndex: 300,
			Kinds: []content.Kind{content.KindBigCraftable}, Layout: bigCraftableSprites,
		},
		{
			Key: Hats, Asset: "Characters/Farmer/hats", Grid: geometry.HatGrid, StartIndex: 160,
			Kinds: []content.Kind{content.KindHat}, Layout: single(geometry.HatRect),
		},
		{
			Key: Weapons, Asset: "TileSheets/weapons", Grid: geometry.WeaponGrid, StartIndex: 128,
			Kinds: []content.Kind{content.KindWeapon}, Layout: single(geometry.WeaponRect),
		},
		{
			Key: Shirts, Asset: "Characters/Farmer/shirts", Grid: geometry.ShirtGrid, StartIndex: 750,
			Kinds: []content.Kind{content.KindShirt}, Layout: shirtSprites, SheetWidth: geometry.ShirtSheetWidth,
		},
		{
			Key: Pants, Asset: "Characters/Farmer/pants", Grid: geometry.PantsGrid, StartIndex: 20,
			Kinds: []content.Kind{content.KindPants}, Layout: single(geometry.PantsRect),
		},
		{
			Key: ShoeColors, Asset: "Characters/Farmer/shoeColors", Grid: geometry.BootsGrid, StartIndex: 100,
			Kinds: []content.Kind{content.KindBoots}, Layout: shoeColorSprites,
		},
	}
}

// counters maps atlas keys to the id counter that starts at their index
var counters = map[string]string{
	Objects:       string(content.KindObject),
	Crops:         string(content.KindCrop),
	FruitTrees:    string(content.KindFruitTree),
	BigCraftables: string(content.KindBigCraftable),
	Hats:          string(content.KindHat),
	Weapons:       string(content.KindWeapon),
	Shirts:        string(content.KindShirt),
	Pants:         string(content.KindPants),
	ShoeColors:    content.CounterShoeColors,
}

// Lookup finds an atlas type by key
func Lookup(types []inject.AtlasType, key string) (inject.AtlasType, bool) {
	for _, t := range types {
		if t.Key == key {
			return t, true
		}
	}
	return inject.AtlasType{}, false
}

// WithStartIndices returns types with start indices replaced by overrides.
// Unknown keys are an error.
func WithStartIndices(types []inject.AtlasType, overrides map[string]int) ([]inject.AtlasType, error) {
	out := make([]inject.AtlasType, len(types))
	copy(out, types)
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		found := false
		for i := range out {
			if out[i].Key == k {
				out[i].StartIndex = overrides[k]
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown atlas type %q", k)
		}
	}
	return out, nil
}

// Starts returns the id allocator start of every counter
func Starts(types []inject.AtlasType) map[string]int {
	out := make(map[string]int, len(types))
	for _, t := range types {
		if c, ok := counters[t.Key]; ok {
			out[c] = t.StartIndex
		}
	}
	return out
}

// Entities returns the entities a pass over t should place, in order
func Entities(t inject.AtlasType, all []*content.Entity) []*content.Entity {
	return content.OfKind(all, t.Kinds...)
}
