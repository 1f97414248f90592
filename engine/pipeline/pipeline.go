// Package pipeline runs every injection pass over a host directory and
// writes the patched atlases, overflow sheets and data tables.
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/atlas"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/datatable"
	"github.com/1siamBot/tilepatch/engine/inject"
	"github.com/1siamBot/tilepatch/engine/ledger"
	"github.com/1siamBot/tilepatch/engine/pixel"
	"github.com/1siamBot/tilepatch/engine/scratch"
	"github.com/1siamBot/tilepatch/engine/tilesheet"
)

// Options configures a Runner
type Options struct {
	HostDir      string
	OutDir       string
	MaxHeight    int
	CacheMaxCost int64
	StartIndex   map[string]int
	Ledger       *ledger.Ledger
	Log          logrus.FieldLogger
}

// Runner owns the shared pool, registry and injector of one invocation
type Runner struct {
	opts     Options
	types    []inject.AtlasType
	tables   []datatable.Schema
	source   *tilesheet.DirSource
	registry *tilesheet.Registry
	inj      *inject.Injector
	log      logrus.FieldLogger
}

// Summary collects the outcome of Run
type Summary struct {
	Reports  map[string]*inject.Report
	Tables   map[string]datatable.Result
	Written  []string
	Failures int
}

// New prepares a runner; Close releases its cache
func New(opts Options) (*Runner, error) {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	types, err := atlas.WithStartIndices(atlas.Catalogue(), opts.StartIndex)
	if err != nil {
		return nil, err
	}
	src, err := tilesheet.NewDirSource(opts.HostDir, opts.CacheMaxCost)
	if err != nil {
		return nil, fmt.Errorf("sheet cache: %w", err)
	}
	reg := tilesheet.NewRegistry(src)
	resolver := tilesheet.NewResolver(opts.MaxHeight, reg, opts.Log)
	return &Runner{
		opts:     opts,
		types:    types,
		tables:   datatable.Catalogue(),
		source:   src,
		registry: reg,
		inj:      inject.NewInjector(resolver, scratch.NewPool(), opts.Log),
		log:      opts.Log,
	}, nil
}

// Close stops the sheet cache
func (r *Runner) Close() {
	r.source.Close()
}

// Types returns the atlas types with configured start indices
func (r *Runner) Types() []inject.AtlasType { return r.types }

// Pool exposes the scratch pool shared by every pass
func (r *Runner) Pool() *scratch.Pool { return r.inj.Pool() }

// AssignIDs gives every entity without an explicit id one from its atlas range
func (r *Runner) AssignIDs(entities []*content.Entity) {
	content.NewAllocator(atlas.Starts(r.types)).Assign(entities)
}

// Run injects entities into every atlas, then into the data tables, and
// writes everything under OutDir
func (r *Runner) Run(entities []*content.Entity) (*Summary, error) {
	sum := &Summary{
		Reports: make(map[string]*inject.Report),
		Tables:  make(map[string]datatable.Result),
	}
	var run ledger.Run
	if r.opts.Ledger != nil {
		var err error
		if run, err = r.opts.Ledger.BeginRun(time.Now()); err != nil {
			return sum, err
		}
	}

	for _, t := range r.types {
		ents := atlas.Entities(t, entities)
		if len(ents) == 0 {
			continue
		}
		rep, err := r.pass(t, ents)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", t.Asset, err)
		}
		sum.Reports[t.Key] = rep
		sum.Failures += len(rep.Failures)
		if err := r.write(rep, sum); err != nil {
			return sum, err
		}
		if r.opts.Ledger != nil {
			if err := r.opts.Ledger.Record(run, rep); err != nil {
				return sum, err
			}
		}
	}

	for _, schema := range r.tables {
		rows := datatable.Rows(schema, entities, sum.Reports)
		if len(rows) == 0 {
			continue
		}
		res, err := r.table(schema, rows)
		if err != nil {
			return sum, err
		}
		sum.Tables[schema.Name] = res
		sum.Failures += len(res.Failures)
		sum.Written = append(sum.Written, r.tablePath(r.opts.OutDir, schema.Name))
	}
	return sum, nil
}

func (r *Runner) pass(t inject.AtlasType, ents []*content.Entity) (*inject.Report, error) {
	log := r.log.WithField("atlas", t.Asset)
	host, err := pixel.Load(r.source.Path(t.Asset))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Warn("host atlas not found, starting from an empty sheet")
		host = pixel.New(t.Width(), 0)
	}

	rep, err := r.inj.Inject(t, host, ents)
	if err != nil {
		return rep, err
	}
	r.registry.Store(t.Asset, host)
	log.WithFields(logrus.Fields{
		"placed": len(rep.Placements),
		"failed": len(rep.Failures),
		"sheets": len(rep.Sheets),
		"height": rep.StackedHeight,
	}).Info("injected sprites")
	return rep, nil
}

func (r *Runner) write(rep *inject.Report, sum *Summary) error {
	for _, s := range rep.Sheets {
		if s.Height == 0 {
			continue
		}
		img, err := r.registry.Load(s.Name)
		if err != nil {
			return err
		}
		path := filepath.Join(r.opts.OutDir, filepath.FromSlash(s.Name)+".png")
		if err := pixel.Save(path, img); err != nil {
			return err
		}
		sum.Written = append(sum.Written, path)
		r.log.WithFields(logrus.Fields{"sheet": s.Name, "path": path}).Debug("wrote tilesheet")
	}
	return nil
}

func (r *Runner) tablePath(dir, name string) string {
	return filepath.Join(dir, filepath.FromSlash(name)+".json")
}

func (r *Runner) table(schema datatable.Schema, rows []datatable.Row) (datatable.Result, error) {
	tbl, err := datatable.Load(r.tablePath(r.opts.HostDir, schema.Name), schema.Name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return datatable.Result{}, err
		}
		tbl = datatable.New(schema.Name)
	}
	res := tbl.Inject(rows, r.log)
	if err := tbl.Save(r.tablePath(r.opts.OutDir, schema.Name)); err != nil {
		return res, err
	}
	return res, nil
}
