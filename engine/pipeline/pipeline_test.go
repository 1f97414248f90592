package pipeline

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/datatable"
	"github.com/1siamBot/tilepatch/engine/ledger"
	"github.com/1siamBot/tilepatch/engine/logging"
	"github.com/1siamBot/tilepatch/engine/pixel"
)

func solid(w, h int, c color.RGBA) *pixel.Image {
	img := pixel.New(w, h)
	img.Fill(img.Bounds(), c)
	return img
}

func setupHost(t *testing.T) string {
	t.Helper()
	host := t.TempDir()
	if err := pixel.Save(filepath.Join(host, "Maps", "springobjects.png"), solid(384, 48, color.RGBA{10, 10, 10, 255})); err != nil {
		t.Fatalf("save host atlas: %v", err)
	}
	tbl := datatable.New("Data/ObjectInformation")
	tbl.TryAdd("95", "Vanilla Thing/0")
	if err := tbl.Save(filepath.Join(host, "Data", "ObjectInformation.json")); err != nil {
		t.Fatalf("save host table: %v", err)
	}
	return host
}

func objects(n int) []*content.Entity {
	var out []*content.Entity
	for i := 0; i < n; i++ {
		out = append(out, &content.Entity{
			Name: "Fruit " + strconv.Itoa(i), Kind: content.KindObject,
			ID: -1, SpriteIndex: -1, FemaleIndex: -1, ColorIndex: -1,
			Texture: solid(16, 16, color.RGBA{uint8(100 + i), 0, 0, 255}),
		})
	}
	return out
}

func TestRunWritesSheetsTablesAndLedger(t *testing.T) {
	host := setupHost(t)
	out := t.TempDir()
	led, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	defer led.Close()

	r, err := New(Options{
		HostDir:    host,
		OutDir:     out,
		MaxHeight:  64,
		StartIndex: map[string]int{"objects": 90, "weapons": 0},
		Ledger:     led,
		Log:        logging.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	entities := objects(10)
	entities = append(entities, &content.Entity{
		Name: "Ghost Sword", Kind: content.KindWeapon, ID: -1, SpriteIndex: -1, FemaleIndex: -1, ColorIndex: -1,
	})
	r.AssignIDs(entities)

	sum, err := r.Run(entities)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// ids 90..95 sit on row 3, ids 96..99 on row 4 which is past the ceiling
	sheet0, err := pixel.Load(filepath.Join(out, "Maps", "springobjects.png"))
	if err != nil {
		t.Fatalf("load sheet 0: %v", err)
	}
	if sheet0.Height != 64 {
		t.Fatalf("sheet 0 height = %d", sheet0.Height)
	}
	if sheet0.At(0, 0) != (color.RGBA{10, 10, 10, 255}) {
		t.Fatalf("host pixels lost")
	}
	if sheet0.At(18*16, 48) != (color.RGBA{100, 0, 0, 255}) {
		t.Fatalf("id 90 not at row 3 col 18")
	}
	sheet1, err := pixel.Load(filepath.Join(out, "Maps", "springobjects2.png"))
	if err != nil {
		t.Fatalf("load sheet 1: %v", err)
	}
	if sheet1.Height != 64 || sheet1.At(0, 0) != (color.RGBA{106, 0, 0, 255}) {
		t.Fatalf("id 96 not at the top of the overflow sheet")
	}

	objRep := sum.Reports["objects"]
	if objRep == nil || objRep.StackedHeight != 128 {
		t.Fatalf("objects report = %+v", objRep)
	}
	if r.Pool().Outstanding() != 0 {
		t.Fatalf("outstanding = %d", r.Pool().Outstanding())
	}

	// the weapon without a texture fails alone
	if wr := sum.Reports["weapons"]; wr == nil || len(wr.Failures) != 1 {
		t.Fatalf("weapons report = %+v", wr)
	}
	if !errors.Is(sum.Reports["weapons"].Failures[0], content.ErrMissingTexture) {
		t.Fatalf("weapon failure = %v", sum.Reports["weapons"].Failures[0])
	}
	if _, err := os.Stat(filepath.Join(out, "TileSheets", "weapons.png")); !os.IsNotExist(err) {
		t.Fatalf("an empty sheet was written: %v", err)
	}

	tbl, err := datatable.Load(filepath.Join(out, "Data", "ObjectInformation.json"), "Data/ObjectInformation")
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if v, _ := tbl.Get("95"); v != "Vanilla Thing/0" {
		t.Fatalf("host row replaced: %q", v)
	}
	if v, _ := tbl.Get("96"); !strings.HasSuffix(v, "Maps/springobjects2/0,0") {
		t.Fatalf("row 96 = %q", v)
	}
	if res := sum.Tables["Data/ObjectInformation"]; res.Added != 9 || len(res.Failures) != 1 {
		t.Fatalf("table result = %+v", res)
	}
	// one sprite failure and one duplicate row
	if sum.Failures != 2 {
		t.Fatalf("failures = %d", sum.Failures)
	}

	p, err := led.Lookup("Maps/springobjects", content.KindObject, 99)
	if err != nil {
		t.Fatalf("ledger lookup: %v", err)
	}
	if p.Entity != "Fruit 9" || p.Sheet != "Maps/springobjects2" || p.X != 48 || p.Y != 0 {
		t.Fatalf("ledger placement = %+v", p)
	}
}

func TestRunTwiceIsStable(t *testing.T) {
	host := setupHost(t)
	outA, outB := t.TempDir(), t.TempDir()
	for _, out := range []string{outA, outB} {
		r, err := New(Options{HostDir: host, OutDir: out, MaxHeight: 64, StartIndex: map[string]int{"objects": 90}, Log: logging.Discard()})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		ents := objects(10)
		r.AssignIDs(ents)
		if _, err := r.Run(ents); err != nil {
			t.Fatalf("Run: %v", err)
		}
		r.Close()
	}
	for _, name := range []string{"springobjects.png", "springobjects2.png"} {
		a, errA := pixel.Load(filepath.Join(outA, "Maps", name))
		b, errB := pixel.Load(filepath.Join(outB, "Maps", name))
		if errA != nil || errB != nil {
			t.Fatalf("load %s: %v %v", name, errA, errB)
		}
		if !a.Equal(b) {
			t.Fatalf("%s differs between runs", name)
		}
	}
}

func TestNewRejectsUnknownStartIndex(t *testing.T) {
	if _, err := New(Options{HostDir: t.TempDir(), StartIndex: map[string]int{"rings": 3}, Log: logging.Discard()}); err == nil {
		t.Fatalf("unknown atlas key accepted")
	}
}

func TestRunDyeableShirtWithoutHostAtlas(t *testing.T) {
	host := setupHost(t)
	out := t.TempDir()
	r, err := New(Options{HostDir: host, OutDir: out, MaxHeight: 64, StartIndex: map[string]int{"shirts": 0}, Log: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	plain, dye := color.RGBA{30, 60, 90, 255}, color.RGBA{200, 200, 200, 255}
	shirt := &content.Entity{
		Name: "Tee", Kind: content.KindShirt, ID: -1, SpriteIndex: -1, FemaleIndex: -1, ColorIndex: -1,
		Dyeable: true, Texture: solid(8, 32, plain), TextureColor: solid(8, 32, dye),
	}
	ents := []*content.Entity{shirt}
	r.AssignIDs(ents)

	sum, err := r.Run(ents)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rep := sum.Reports["shirts"]
	if rep == nil || len(rep.Failures) != 0 || len(rep.Placements) != 1 {
		t.Fatalf("shirts report = %+v", rep)
	}
	sheet, err := pixel.Load(filepath.Join(out, "Characters", "Farmer", "shirts.png"))
	if err != nil {
		t.Fatalf("load shirts: %v", err)
	}
	if sheet.Width != 192 {
		t.Fatalf("shirts width = %d", sheet.Width)
	}
	if sheet.At(0, 0) != plain || sheet.At(128, 0) != dye {
		t.Fatalf("plain %v dye %v", sheet.At(0, 0), sheet.At(128, 0))
	}
	if r.Pool().Outstanding() != 0 {
		t.Fatalf("outstanding = %d", r.Pool().Outstanding())
	}
}
