package view

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/1siamBot/tilepatch/engine/inject"
	"github.com/1siamBot/tilepatch/engine/pixel"
	"github.com/1siamBot/tilepatch/engine/tilesheet"
)

// SheetPath is where a written sheet lives under dir
func SheetPath(dir, name string) string {
	return filepath.Join(dir, filepath.FromSlash(name)+".png")
}

// Load reads the written sheets of asset from dir. Given layouts (from the
// ledger) it loads exactly those; otherwise it probes consecutive sheet
// names and stacks whatever it finds.
func Load(dir, asset string, layouts []inject.SheetLayout) ([]inject.SheetLayout, []*pixel.Image, error) {
	if len(layouts) > 0 {
		imgs := make([]*pixel.Image, len(layouts))
		for i, l := range layouts {
			img, err := pixel.Load(SheetPath(dir, l.Name))
			if err != nil {
				return nil, nil, fmt.Errorf("sheet %s: %w", l.Name, err)
			}
			imgs[i] = img
		}
		return layouts, imgs, nil
	}

	var (
		out    []inject.SheetLayout
		imgs   []*pixel.Image
		offset int
	)
	for n := 0; ; n++ {
		name := tilesheet.SheetName(asset, n)
		img, err := pixel.Load(SheetPath(dir, name))
		if os.IsNotExist(err) {
			// sheet 0 is skipped when a pass only touched overflow
			if n == 0 {
				continue
			}
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		out = append(out, inject.SheetLayout{Index: n, Name: name, Offset: offset, Height: img.Height})
		imgs = append(imgs, img)
		offset += img.Height
	}
	if len(out) == 0 {
		return nil, nil, fmt.Errorf("no sheets for %s under %s", asset, dir)
	}
	return out, imgs, nil
}
