// Package datatable adds entity rows to the host's keyed data tables
package datatable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/inject"
)

// ErrDuplicate means the key was already present in the table
var ErrDuplicate = errors.New("duplicate key")

// Table is a host data table: string keys to slash-delimited rows
type Table struct {
	Name string
	rows map[string]string
}

// New creates an empty table
func New(name string) *Table {
	return &Table{Name: name, rows: make(map[string]string)}
}

// Load reads a table stored as a JSON object
func Load(path, name string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := New(name)
	if err := json.Unmarshal(data, &t.rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.rows == nil {
		t.rows = make(map[string]string)
	}
	return t, nil
}

// Save writes the table as an indented JSON object
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(t.rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get returns the row for key
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.rows[key]
	return v, ok
}

// Len is the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Keys lists keys in sorted order
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TryAdd stores value unless key is taken
func (t *Table) TryAdd(key, value string) bool {
	if _, ok := t.rows[key]; ok {
		return false
	}
	t.rows[key] = value
	return true
}

// Row is one pending table entry
type Row struct {
	Entity string
	Key    string
	Value  string
}

// RowError ties a failed row to its entity
type RowError struct {
	Table  string
	Entity string
	Key    string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: row %s for %s: %v", e.Table, e.Key, e.Entity, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Result summarizes one Inject call
type Result struct {
	Added    int
	Failures []*RowError
}

// Inject adds rows in order. A duplicate key is logged and recorded, and
// never overwrites the existing row.
func (t *Table) Inject(rows []Row, log logrus.FieldLogger) Result {
	var res Result
	log = log.WithField("table", t.Name)
	for _, r := range rows {
		log.WithField("entity", r.Entity).Tracef("injecting %s: %s", r.Key, r.Value)
		if !t.TryAdd(r.Key, r.Value) {
			err := &RowError{Table: t.Name, Entity: r.Entity, Key: r.Key, Err: ErrDuplicate}
			res.Failures = append(res.Failures, err)
			log.WithField("entity", r.Entity).Errorf("%s %s is a duplicate", r.Entity, r.Key)
			continue
		}
		res.Added++
	}
	return res
}

// RowFor builds an entity's row; a placement, when known, is appended as the
// sheet name and the in-sheet position
func RowFor(e *content.Entity, p *inject.Placement) Row {
	fields := append([]string{e.Name}, e.Fields...)
	if p != nil {
		fields = append(fields, p.Sheet, strconv.Itoa(p.X)+","+strconv.Itoa(p.Y))
	}
	return Row{Entity: e.Name, Key: strconv.Itoa(e.ID), Value: strings.Join(fields, "/")}
}
