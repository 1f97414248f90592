// Package inject runs injection passes: it lays every entity's sprites into
// an atlas, spilling rows past the height ceiling into numbered overflow
// sheets, and commits the result back to the host images.
package inject

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/compose"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/pixel"
	"github.com/1siamBot/tilepatch/engine/scratch"
	"github.com/1siamBot/tilepatch/engine/tilesheet"
)

// ErrNoSprites means a layout produced nothing to place
var ErrNoSprites = errors.New("entity has no sprites")

// ErrAtlasTooTall means the host atlas is already past the sheet ceiling
var ErrAtlasTooTall = errors.New("atlas taller than max tilesheet height")

// Injector runs passes one at a time; it is not safe for concurrent use
type Injector struct {
	resolver *tilesheet.Resolver
	pool     *scratch.Pool
	log      logrus.FieldLogger
}

// NewInjector wires a resolver and a buffer pool. The pool may be shared by
// sequential passes of different atlases.
func NewInjector(resolver *tilesheet.Resolver, pool *scratch.Pool, log logrus.FieldLogger) *Injector {
	if pool == nil {
		pool = scratch.NewPool()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Injector{resolver: resolver, pool: pool, log: log}
}

// Resolver returns the tilesheet resolver passes publish through
func (inj *Injector) Resolver() *tilesheet.Resolver { return inj.resolver }

// Pool returns the scratch pool
func (inj *Injector) Pool() *scratch.Pool { return inj.pool }

// pass is the working state of one Inject call
type pass struct {
	*Injector
	t      AtlasType
	img    *pixel.Image
	set    *scratch.Set
	maxYs  map[int]int
	report *Report
	log    logrus.FieldLogger
}

// Inject lays entities into img, which is the host's sheet 0 of t. img is
// modified in place; overflow sheets are published through the resolver.
// Per-entity failures are collected in the report and do not stop the pass.
func (inj *Injector) Inject(t AtlasType, img *pixel.Image, entities []*content.Entity) (rep *Report, err error) {
	rep = &Report{Atlas: t.Asset, Heights: make(map[int]int)}
	if len(entities) == 0 {
		return rep, nil
	}
	if img == nil {
		return rep, fmt.Errorf("%s: nil atlas image", t.Asset)
	}
	if !t.Grid.Valid() {
		return rep, fmt.Errorf("%s: invalid grid %+v", t.Asset, t.Grid)
	}
	if t.Layout == nil {
		return rep, fmt.Errorf("%s: no layout", t.Asset)
	}
	if img.Height > inj.resolver.MaxHeight {
		return rep, fmt.Errorf("%s: height %d over %d: %w", t.Asset, img.Height, inj.resolver.MaxHeight, ErrAtlasTooTall)
	}

	p := &pass{
		Injector: inj,
		t:        t,
		img:      img,
		set:      inj.pool.NewSet(img.Width, inj.resolver.MaxHeight),
		maxYs:    make(map[int]int),
		report:   rep,
		log:      inj.log.WithField("atlas", t.Asset),
	}
	defer func() { rep.Released = p.set.ReleaseAll() }()

	var seed *pixel.Image
	if t.StartRow() < img.Height {
		seed = img
	}
	if _, err := p.set.Acquire(0, seed); err != nil {
		return rep, err
	}
	p.maxYs[0] = img.Height

	for _, e := range entities {
		if err := p.entity(e); err != nil {
			ee := &EntityError{Atlas: t.Asset, Entity: e.Name, Err: err}
			rep.Failures = append(rep.Failures, ee)
			p.log.WithField("entity", e.Name).WithError(err).Error("exception injecting sprite")
		}
	}

	if err := p.commit(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (p *pass) entity(e *content.Entity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	sprites, err := p.t.Layout(e)
	if err != nil {
		return err
	}
	if len(sprites) == 0 {
		return ErrNoSprites
	}
	ts := -1
	var buf *scratch.Buffer
	var patchLoc image.Rectangle
	for i, sp := range sprites {
		target, loc := p.resolver.Adjusted(sp.Rect)
		if target.TileSheet != ts {
			if ts >= 0 {
				p.record(ts, patchLoc.Max.Y)
			}
			ts = target.TileSheet
			if buf, err = p.buffer(ts); err != nil {
				return err
			}
		}
		if i == 0 {
			p.report.Placements = append(p.report.Placements, Placement{
				Entity: e.Name,
				Kind:   e.Kind,
				ID:     e.ID,
				Sheet:  tilesheet.SheetName(p.t.Asset, ts),
				X:      sp.Rect.Min.X,
				Y:      target.Y,
			})
		}
		p.log.WithFields(logrus.Fields{"entity": e.Name, "sheet": ts, "rect": sp.Rect}).
			Tracef("injecting %s sprite", sp.Variant)

		if sp.Image == nil {
			return fmt.Errorf("%s sprite: %w", sp.Variant, content.ErrMissingTexture)
		}
		if err := compose.Patch(buf, sp.Image, nil, loc); err != nil {
			return fmt.Errorf("%s sprite @ %v: %w", sp.Variant, sp.Rect, err)
		}
		patchLoc = loc
	}
	p.record(ts, patchLoc.Max.Y)
	return nil
}

func (p *pass) record(ts, bottom int) {
	if bottom > p.maxYs[ts] {
		p.maxYs[ts] = bottom
	}
}

// buffer returns the scratch buffer for sheet ts, seeding a new overflow
// buffer from that sheet's previous version when one exists
func (p *pass) buffer(ts int) (*scratch.Buffer, error) {
	if buf, ok := p.set.Lookup(ts); ok {
		return buf, nil
	}
	p.log.WithField("sheet", ts).Debugf("patching into extended tilesheet #%d", ts)
	seed, err := p.resolver.LoadExisting(p.t.Asset, ts)
	if err != nil {
		if !errors.Is(err, tilesheet.ErrMissingOverflowAtlas) {
			p.log.WithField("sheet", ts).WithError(err).Warn("could not load earlier overflow sheet")
		}
		seed = nil
	}
	return p.set.Acquire(ts, seed)
}

// heights applies the final height policy: a lone sheet 0 keeps its observed
// bottom; with overflow, sheet 0 still keeps its bottom and every overflow
// sheet reserves the full ceiling
func (p *pass) heights(indices []int) map[int]int {
	out := make(map[int]int, len(indices))
	for _, idx := range indices {
		h := p.maxYs[idx]
		if len(indices) > 1 && idx > 0 {
			h = p.resolver.MaxHeight
		}
		out[idx] = h
	}
	return out
}

func (p *pass) commit() error {
	indices := p.set.Indices()
	heights := p.heights(indices)
	width := p.img.Width

	if compose.Extend(p.img, width, heights[0]) {
		p.report.Resized = true
		p.log.Debugf("%s are now (%d, %d)", p.t.Asset, p.img.Width, p.img.Height)
	}

	offset := 0
	for _, idx := range indices {
		buf, _ := p.set.Lookup(idx)
		h := heights[idx]
		name := tilesheet.SheetName(p.t.Asset, idx)
		if err := compose.Shrink(buf, width, h); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if idx == 0 {
			start := min(p.t.StartRow(), h)
			if h > start {
				area := image.Rect(0, start, width, h)
				if err := compose.Commit(p.img, buf, area, area); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
		} else {
			dst := p.overflowImage(idx, width, h)
			area := image.Rect(0, 0, width, h)
			if err := compose.Commit(dst, buf, area, area); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			p.resolver.Publish(p.t.Asset, idx, dst)
		}

		p.report.Heights[idx] = h
		p.report.Sheets = append(p.report.Sheets, SheetLayout{Index: idx, Name: name, Offset: offset, Height: h})
		p.log.WithFields(logrus.Fields{"sheet": name, "height": h}).Debug("committed tilesheet")
		offset += h
	}
	p.report.StackedHeight = offset
	return nil
}

// overflowImage returns a private copy of the earlier version of sheet idx,
// or a blank image, sized to at least width x h
func (p *pass) overflowImage(idx, width, h int) *pixel.Image {
	var dst *pixel.Image
	if prev, err := p.resolver.LoadExisting(p.t.Asset, idx); err == nil {
		dst = prev.Clone()
	} else {
		dst = pixel.New(width, h)
	}
	compose.Extend(dst, width, h)
	return dst
}
