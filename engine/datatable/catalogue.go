package datatable

import (
	"github.com/1siamBot/tilepatch/engine/atlas"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// Schema names a host table, the kinds it stores and the atlases whose
// placements its rows reference
type Schema struct {
	Name    string
	Kinds   []content.Kind
	Atlases []string
}

// Catalogue lists the host data tables
func Catalogue() []Schema {
	return []Schema{
		{Name: "Data/ObjectInformation", Kinds: []content.Kind{content.KindObject}, Atlases: []string{atlas.Objects}},
		{Name: "Data/Boots", Kinds: []content.Kind{content.KindBoots}, Atlases: []string{atlas.Objects}},
		{Name: "Data/Crops", Kinds: []content.Kind{content.KindCrop}, Atlases: []string{atlas.Crops}},
		{Name: "Data/fruitTrees", Kinds: []content.Kind{content.KindFruitTree}, Atlases: []string{atlas.FruitTrees}},
		{Name: "Data/BigCraftablesInformation", Kinds: []content.Kind{content.KindBigCraftable}, Atlases: []string{atlas.BigCraftables}},
		{Name: "Data/hats", Kinds: []content.Kind{content.KindHat}, Atlases: []string{atlas.Hats}},
		{Name: "Data/weapons", Kinds: []content.Kind{content.KindWeapon}, Atlases: []string{atlas.Weapons}},
		{Name: "Data/ClothingInformation", Kinds: []content.Kind{content.KindShirt, content.KindPants}, Atlases: []string{atlas.Shirts, atlas.Pants}},
	}
}

// Rows builds the rows of schema from entities, looking placements up in the
// reports of the schema's atlas passes, keyed by atlas key
func Rows(schema Schema, entities []*content.Entity, reports map[string]*inject.Report) []Row {
	var rows []Row
	for _, e := range content.OfKind(entities, schema.Kinds...) {
		rows = append(rows, RowFor(e, placement(schema, e, reports)))
	}
	return rows
}

func placement(schema Schema, e *content.Entity, reports map[string]*inject.Report) *inject.Placement {
	for _, key := range schema.Atlases {
		rep := reports[key]
		if rep == nil {
			continue
		}
		if p, ok := rep.Placement(e.Kind, e.ID); ok {
			return &p
		}
	}
	return nil
}
