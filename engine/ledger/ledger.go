// Package ledger persists injection reports in SQLite so later runs and
// tools can find where each entity's sprite was placed.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// ErrNotFound means no placement is recorded for the entity
var ErrNotFound = errors.New("placement not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS placements (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    atlas TEXT NOT NULL,
    entity TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT '',
    entity_id INTEGER NOT NULL,
    sheet TEXT NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sheets (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    atlas TEXT NOT NULL,
    idx INTEGER NOT NULL,
    name TEXT NOT NULL,
    offset_y INTEGER NOT NULL,
    height INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    atlas TEXT NOT NULL,
    entity TEXT NOT NULL,
    error TEXT NOT NULL
);
`

// Ledger is an open placement database
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the database at path. ":memory:" works for tests.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// one connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// migrate brings ledgers written before placements carried a kind up to date
func migrate(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('placements') WHERE name = 'kind'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.Exec(`ALTER TABLE placements ADD COLUMN kind TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	_, err := db.Exec(`DROP INDEX IF EXISTS idx_placements_entity;
CREATE INDEX IF NOT EXISTS idx_placements_key ON placements(atlas, kind, entity_id)`)
	return err
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Run is one recorded tilepatch invocation
type Run struct {
	ID      int64
	Started time.Time
}

// BeginRun starts a new run
func (l *Ledger) BeginRun(started time.Time) (Run, error) {
	res, err := l.db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, started.UnixNano())
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Run{}, err
	}
	return Run{ID: id, Started: started}, nil
}

// Record stores one pass report under run in a single transaction
func (l *Ledger) Record(run Run, rep *inject.Report) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range rep.Placements {
		if _, err := tx.Exec(
			`INSERT INTO placements (run_id, atlas, entity, kind, entity_id, sheet, x, y) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, rep.Atlas, p.Entity, string(p.Kind), p.ID, p.Sheet, p.X, p.Y,
		); err != nil {
			return fmt.Errorf("record placement %s: %w", p.Entity, err)
		}
	}
	for _, s := range rep.Sheets {
		if _, err := tx.Exec(
			`INSERT INTO sheets (run_id, atlas, idx, name, offset_y, height) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, rep.Atlas, s.Index, s.Name, s.Offset, s.Height,
		); err != nil {
			return fmt.Errorf("record sheet %s: %w", s.Name, err)
		}
	}
	for _, f := range rep.Failures {
		if _, err := tx.Exec(
			`INSERT INTO failures (run_id, atlas, entity, error) VALUES (?, ?, ?, ?)`,
			run.ID, rep.Atlas, f.Entity, f.Err.Error(),
		); err != nil {
			return fmt.Errorf("record failure %s: %w", f.Entity, err)
		}
	}
	return tx.Commit()
}

// Lookup returns the latest recorded placement of the entity with kind and
// id in atlas
func (l *Ledger) Lookup(atlas string, kind content.Kind, id int) (inject.Placement, error) {
	var p inject.Placement
	err := l.db.QueryRow(
		`SELECT entity, kind, entity_id, sheet, x, y FROM placements
		 WHERE atlas = ? AND kind = ? AND entity_id = ? ORDER BY run_id DESC LIMIT 1`,
		atlas, string(kind), id,
	).Scan(&p.Entity, &p.Kind, &p.ID, &p.Sheet, &p.X, &p.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%s %d in %s: %w", kind, id, atlas, ErrNotFound)
	}
	return p, err
}

// Placements lists the placements of the latest run that touched atlas
func (l *Ledger) Placements(atlas string) ([]inject.Placement, error) {
	rows, err := l.db.Query(
		`SELECT entity, kind, entity_id, sheet, x, y FROM placements
		 WHERE atlas = ? AND run_id = (SELECT MAX(run_id) FROM placements WHERE atlas = ?)
		 ORDER BY rowid`,
		atlas, atlas,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inject.Placement
	for rows.Next() {
		var p inject.Placement
		if err := rows.Scan(&p.Entity, &p.Kind, &p.ID, &p.Sheet, &p.X, &p.Y); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Sheets lists the committed sheets of the latest run that touched atlas
func (l *Ledger) Sheets(atlas string) ([]inject.SheetLayout, error) {
	rows, err := l.db.Query(
		`SELECT idx, name, offset_y, height FROM sheets
		 WHERE atlas = ? AND run_id = (SELECT MAX(run_id) FROM sheets WHERE atlas = ?)
		 ORDER BY idx`,
		atlas, atlas,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inject.SheetLayout
	for rows.Next() {
		var s inject.SheetLayout
		if err := rows.Scan(&s.Index, &s.Name, &s.Offset, &s.Height); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FailureCount returns how many entity failures run recorded
func (l *Ledger) FailureCount(run Run) (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM failures WHERE run_id = ?`, run.ID).Scan(&n)
	return n, err
}
