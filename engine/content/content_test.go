package content

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

func quietLoader() *Loader {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewLoader(l)
}

func writePack(t *testing.T, dir, manifest string, sprites ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for i, s := range sprites {
		img := pixel.New(16, 16)
		img.Set(0, 0, color.RGBA{uint8(i + 1), 0, 0, 255})
		if err := pixel.Save(filepath.Join(dir, filepath.FromSlash(s)), img); err != nil {
			t.Fatalf("Save %s: %v", s, err)
		}
	}
}

const fruitPack = `{
  "name": "Fruit",
  "entities": [
    {"kind": "object", "name": "Blue Apple", "sprite": "sprites/apple.png", "color_sprite": "sprites/apple_color.png", "colored": true},
    {"kind": "object", "name": "Pear", "sprite": "sprites/pear.png"},
    {"kind": "boots", "name": "Fruit Boots", "sprite": "sprites/boots.png", "color_sprite": "sprites/boots_color.png"},
    {"kind": "spaceship", "name": "Nope", "sprite": "sprites/pear.png"},
    {"kind": "hat", "name": "Missing Hat", "sprite": "sprites/hat.png"}
  ]
}`

func TestLoadKeepsOrderAndSkipsUnknownKinds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fruit")
	writePack(t, dir, fruitPack,
		"sprites/apple.png", "sprites/apple_color.png", "sprites/pear.png",
		"sprites/boots.png", "sprites/boots_color.png")

	p, err := quietLoader().Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"Blue Apple", "Pear", "Fruit Boots", "Missing Hat"}
	if len(p.Entities) != len(want) {
		t.Fatalf("got %d entities, want %d", len(p.Entities), len(want))
	}
	for i, name := range want {
		if p.Entities[i].Name != name {
			t.Fatalf("entity %d = %q, want %q", i, p.Entities[i].Name, name)
		}
	}

	apple := p.Entities[0]
	if apple.Texture == nil || apple.TextureColor == nil || !apple.IsColored {
		t.Fatalf("apple sprites not loaded: %+v", apple)
	}
	if apple.ID != -1 || apple.Pack != "Fruit" {
		t.Fatalf("apple id/pack = %d/%q", apple.ID, apple.Pack)
	}
	if boots := p.Entities[2]; !boots.IsColored {
		t.Fatalf("boots with a color sprite must be colored")
	}
	if hat := p.Entities[3]; hat.Texture != nil {
		t.Fatalf("missing sprite file must leave the texture empty")
	}
}

func TestLoadBadManifest(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, `{"name": `)
	if _, err := quietLoader().Load(dir); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestLoadAllSortsAndSkipsBroken(t *testing.T) {
	root := t.TempDir()
	writePack(t, filepath.Join(root, "b"), `{"name":"B","entities":[{"kind":"crop","name":"Bean","sprite":"s.png"}]}`, "s.png")
	writePack(t, filepath.Join(root, "a"), `{"entities":[{"kind":"weapon","name":"Stick","sprite":"s.png"}]}`, "s.png")
	writePack(t, filepath.Join(root, "c"), `not json`)
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	packs, err := quietLoader().LoadAll(root)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(packs) != 2 {
		t.Fatalf("got %d packs, want 2", len(packs))
	}
	if packs[0].Manifest.Name != "a" || packs[1].Manifest.Name != "B" {
		t.Fatalf("pack order = %q, %q", packs[0].Manifest.Name, packs[1].Manifest.Name)
	}
	all := Entities(packs)
	if len(all) != 2 || all[0].Name != "Stick" || all[1].Name != "Bean" {
		t.Fatalf("flattened = %v", all)
	}
	if got := OfKind(all, KindCrop); len(got) != 1 || got[0].Name != "Bean" {
		t.Fatalf("OfKind = %v", got)
	}
}

func TestAllocatorAssign(t *testing.T) {
	explicit := 3010
	entities := []*Entity{
		{Name: "colored", Kind: KindObject, ID: -1, SpriteIndex: -1, IsColored: true},
		{Name: "boots", Kind: KindBoots, ID: -1, SpriteIndex: -1, ColorIndex: -1},
		{Name: "pinned", Kind: KindObject, ID: explicit, SpriteIndex: -1},
		{Name: "after", Kind: KindObject, ID: -1, SpriteIndex: -1},
		{Name: "shirt", Kind: KindShirt, ID: -1, SpriteIndex: -1, FemaleIndex: -1, HasFemaleVariant: true},
		{Name: "bc", Kind: KindBigCraftable, ID: -1, SpriteIndex: -1, Extra: make([]*pixel.Image, 2)},
		{Name: "bc2", Kind: KindBigCraftable, ID: -1, SpriteIndex: -1},
	}
	a := NewAllocator(map[string]int{
		"object": 3000, "shirt": 750, "big_craftable": 300, CounterShoeColors: 100,
	})
	a.Assign(entities)

	tests := []struct {
		name            string
		id, sprite, fem int
		color           int
	}{
		{"colored", 3000, 3000, 0, 0},
		{"boots", 3002, 3002, 0, 100},
		{"pinned", 3010, 3010, 0, 0},
		{"after", 3011, 3011, 0, 0},
		{"shirt", 750, 750, 751, 0},
		{"bc", 300, 300, 0, 0},
		{"bc2", 303, 303, 0, 0},
	}
	for i, tt := range tests {
		e := entities[i]
		if e.ID != tt.id || e.SpriteIndex != tt.sprite {
			t.Errorf("%s: id=%d sprite=%d, want %d/%d", tt.name, e.ID, e.SpriteIndex, tt.id, tt.sprite)
		}
		if tt.fem != 0 && e.FemaleIndex != tt.fem {
			t.Errorf("%s: female=%d, want %d", tt.name, e.FemaleIndex, tt.fem)
		}
		if tt.color != 0 && e.ColorIndex != tt.color {
			t.Errorf("%s: color=%d, want %d", tt.name, e.ColorIndex, tt.color)
		}
	}
}

func TestRequire(t *testing.T) {
	e := &Entity{Name: "Hat", Kind: KindHat}
	if _, err := Require(nil, e, "primary"); !errors.Is(err, ErrMissingTexture) {
		t.Fatalf("got %v", err)
	}
	img := pixel.New(1, 1)
	if got, err := Require(img, e, "primary"); err != nil || got != img {
		t.Fatalf("Require returned %v, %v", got, err)
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
	}
	if Kind("ring").Valid() {
		t.Fatalf("ring is not a known kind")
	}
}
