package ledger

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/inject"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func report(sheet string, y int) *inject.Report {
	return &inject.Report{
		Atlas: "Characters/Farmer/hats",
		Placements: []inject.Placement{
			{Entity: "Cap", Kind: content.KindHat, ID: 160, Sheet: sheet, X: 0, Y: y},
			{Entity: "Crown", Kind: content.KindHat, ID: 161, Sheet: sheet, X: 20, Y: y},
		},
		Sheets: []inject.SheetLayout{
			{Index: 0, Name: "Characters/Farmer/hats", Offset: 0, Height: 1200},
			{Index: 1, Name: "Characters/Farmer/hats2", Offset: 1200, Height: 4096},
		},
		Failures: []*inject.EntityError{
			{Atlas: "Characters/Farmer/hats", Entity: "Broken", Err: errors.New("missing texture")},
		},
	}
}

func TestRecordAndLookup(t *testing.T) {
	l := openTemp(t)
	run, err := l.BeginRun(time.Unix(100, 0))
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := l.Record(run, report("Characters/Farmer/hats", 1040)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	p, err := l.Lookup("Characters/Farmer/hats", content.KindHat, 161)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p != (inject.Placement{Entity: "Crown", Kind: content.KindHat, ID: 161, Sheet: "Characters/Farmer/hats", X: 20, Y: 1040}) {
		t.Fatalf("placement = %+v", p)
	}
	if n, err := l.FailureCount(run); err != nil || n != 1 {
		t.Fatalf("failures = %d, %v", n, err)
	}
	sheets, err := l.Sheets("Characters/Farmer/hats")
	if err != nil {
		t.Fatalf("Sheets: %v", err)
	}
	if len(sheets) != 2 || sheets[1].Offset != 1200 || sheets[1].Height != 4096 {
		t.Fatalf("sheets = %+v", sheets)
	}
}

func TestLatestRunWins(t *testing.T) {
	l := openTemp(t)
	first, _ := l.BeginRun(time.Unix(1, 0))
	if err := l.Record(first, report("Characters/Farmer/hats", 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, _ := l.BeginRun(time.Unix(2, 0))
	if second.ID <= first.ID {
		t.Fatalf("run ids not increasing: %d then %d", first.ID, second.ID)
	}
	if err := l.Record(second, report("Characters/Farmer/hats2", 80)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := l.Placements("Characters/Farmer/hats")
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	want := []inject.Placement{
		{Entity: "Cap", Kind: content.KindHat, ID: 160, Sheet: "Characters/Farmer/hats2", X: 0, Y: 80},
		{Entity: "Crown", Kind: content.KindHat, ID: 161, Sheet: "Characters/Farmer/hats2", X: 20, Y: 80},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("placements = %+v", got)
	}
}

func TestLookupMissing(t *testing.T) {
	l := openTemp(t)
	if _, err := l.Lookup("TileSheets/crops", content.KindCrop, 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, _ := l.BeginRun(time.Now())
	if err := l.Record(run, report("Characters/Farmer/hats", 5)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	if _, err := l.Lookup("Characters/Farmer/hats", content.KindHat, 160); err != nil {
		t.Fatalf("Lookup after reopen: %v", err)
	}
}

func TestLookupSharedNameByKind(t *testing.T) {
	l := openTemp(t)
	run, _ := l.BeginRun(time.Now())
	rep := &inject.Report{
		Atlas: "Maps/springobjects",
		Placements: []inject.Placement{
			{Entity: "Leather", Kind: content.KindObject, ID: 3000, Sheet: "Maps/springobjects", X: 0, Y: 2000},
			{Entity: "Leather", Kind: content.KindBoots, ID: 3001, Sheet: "Maps/springobjects", X: 16, Y: 2000},
		},
	}
	if err := l.Record(run, rep); err != nil {
		t.Fatalf("Record: %v", err)
	}

	boots, err := l.Lookup("Maps/springobjects", content.KindBoots, 3001)
	if err != nil {
		t.Fatalf("Lookup boots: %v", err)
	}
	if boots.X != 16 || boots.Kind != content.KindBoots {
		t.Fatalf("boots placement = %+v", boots)
	}
	object, err := l.Lookup("Maps/springobjects", content.KindObject, 3000)
	if err != nil || object.X != 0 {
		t.Fatalf("object placement = %+v, %v", object, err)
	}
	if _, err := l.Lookup("Maps/springobjects", content.KindBoots, 3000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("kind mismatch found a placement: %v", err)
	}
}

func TestOpenMigratesLedgerWithoutKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`
CREATE TABLE runs (id INTEGER PRIMARY KEY AUTOINCREMENT, started_at INTEGER NOT NULL);
CREATE TABLE placements (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    atlas TEXT NOT NULL,
    entity TEXT NOT NULL,
    entity_id INTEGER NOT NULL,
    sheet TEXT NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL
);
CREATE INDEX idx_placements_entity ON placements(atlas, entity);
INSERT INTO runs (started_at) VALUES (1);
INSERT INTO placements VALUES (1, 'TileSheets/crops', 'Old Crop', 100, 'TileSheets/crops', 0, 0);`); err != nil {
		t.Fatalf("seed old ledger: %v", err)
	}
	db.Close()

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	old, err := l.Placements("TileSheets/crops")
	if err != nil || len(old) != 1 || old[0].Kind != "" {
		t.Fatalf("old placements = %+v, %v", old, err)
	}
	run, _ := l.BeginRun(time.Now())
	rep := &inject.Report{Atlas: "TileSheets/crops", Placements: []inject.Placement{
		{Entity: "New Crop", Kind: content.KindCrop, ID: 101, Sheet: "TileSheets/crops", X: 128, Y: 0},
	}}
	if err := l.Record(run, rep); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if p, err := l.Lookup("TileSheets/crops", content.KindCrop, 101); err != nil || p.X != 128 {
		t.Fatalf("Lookup = %+v, %v", p, err)
	}
}
