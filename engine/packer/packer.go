// Package packer authors content packs from loose sprites and cuts
// logical cells back out of written sheets.
package packer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/1siamBot/tilepatch/engine/atlas"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/inject"
	"github.com/1siamBot/tilepatch/engine/pixel"
	"github.com/1siamBot/tilepatch/engine/tilesheet"
	"github.com/1siamBot/tilepatch/engine/view"
)

// SpriteDir is where imported sprites go inside a pack
const SpriteDir = "sprites"

var ErrCellOutside = errors.New("cell outside written sheet")

// Filter picks the resampling used when a sprite is not cell sized
type Filter string

const (
	Nearest    Filter = "nearest"
	CatmullRom Filter = "catmullrom"
)

func (f Filter) scaler() (xdraw.Scaler, error) {
	switch f {
	case "", Nearest:
		return xdraw.NearestNeighbor, nil
	case CatmullRom:
		return xdraw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown filter %q", f)
}

// CellSize is the primary sprite size for kind in the first atlas that takes it
func CellSize(kind content.Kind) (int, int, error) {
	for _, t := range atlas.Catalogue() {
		if t.Accepts(kind) {
			return t.Grid.CellWidth, t.Grid.CellHeight, nil
		}
	}
	return 0, 0, fmt.Errorf("no atlas accepts kind %q", kind)
}

// ImportOptions controls Import
type ImportOptions struct {
	Kind    content.Kind
	Filter  Filter
	Pack    string
	Author  string
	Version string
}

// Import resizes every PNG directly under src to the kind's cell size,
// writes it into dst/sprites and adds an entry per sprite to dst/pack.json.
// Names already in the manifest are left alone.
func Import(src, dst string, opts ImportOptions, log logrus.FieldLogger) (*content.Manifest, error) {
	if !opts.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", opts.Kind)
	}
	w, h, err := CellSize(opts.Kind)
	if err != nil {
		return nil, err
	}
	scaler, err := opts.Filter.scaler()
	if err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(src, "*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	m, err := content.LoadManifest(dst)
	if errors.Is(err, os.ErrNotExist) {
		m = &content.Manifest{Name: opts.Pack}
		if m.Name == "" {
			m.Name = filepath.Base(dst)
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if opts.Author != "" {
		m.Author = opts.Author
	}
	if opts.Version != "" {
		m.Version = opts.Version
	}
	known := make(map[string]bool, len(m.Entities))
	for _, en := range m.Entities {
		known[en.Name] = true
	}

	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		name := DisplayName(base)
		flog := log.WithField("sprite", filepath.Base(file))
		if known[name] {
			flog.Warnf("%q already in %s, skipping", name, content.ManifestName)
			continue
		}
		img, err := pixel.Load(file)
		if err != nil {
			flog.WithError(err).Warn("could not load sprite")
			continue
		}
		if img.Width != w || img.Height != h {
			flog.Debugf("resizing %dx%d to %dx%d", img.Width, img.Height, w, h)
			img = resize(img, w, h, scaler)
		}
		rel := SpriteDir + "/" + base + ".png"
		if err := pixel.Save(filepath.Join(dst, filepath.FromSlash(rel)), img); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
		m.Entities = append(m.Entities, content.Entry{Kind: opts.Kind, Name: name, Sprite: rel})
		known[name] = true
	}

	if err := content.SaveManifest(dst, m); err != nil {
		return nil, err
	}
	return m, nil
}

func resize(src *pixel.Image, w, h int, s xdraw.Scaler) *pixel.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	s.Scale(dst, dst.Bounds(), src.ToRGBA(), src.Bounds(), xdraw.Src, nil)
	return pixel.FromImage(dst)
}

// DisplayName turns a file stem like "golden_pear" into "Golden Pear"
func DisplayName(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

// Extract cuts the cell at a logical index out of the sheets written under dir
func Extract(dir string, t inject.AtlasType, maxHeight, index int) (*pixel.Image, string, error) {
	if !t.Grid.Valid() {
		return nil, "", fmt.Errorf("%s: invalid grid", t.Key)
	}
	res := tilesheet.NewResolver(maxHeight, nil, logrus.StandardLogger())
	target, r := res.Adjusted(t.Grid.Rect(index))
	name := tilesheet.SheetName(t.Asset, target.TileSheet)
	sheet, err := pixel.Load(view.SheetPath(dir, name))
	if err != nil {
		return nil, name, err
	}
	if !r.In(sheet.Bounds()) {
		return nil, name, fmt.Errorf("index %d at %v in %s (%dx%d): %w", index, r.Min, name, sheet.Width, sheet.Height, ErrCellOutside)
	}
	return sheet.SubImage(r), name, nil
}
