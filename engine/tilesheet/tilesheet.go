// Package tilesheet maps logical atlas rows onto numbered physical
// tilesheets and keeps track of the overflow sheets generated so far.
package tilesheet

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

// DefaultMaxHeight is the tallest single texture the host accepts
const DefaultMaxHeight = 4096

// ErrMissingOverflowAtlas means no earlier pass produced the requested sheet
var ErrMissingOverflowAtlas = errors.New("overflow tilesheet not found")

// Target is where a logical rectangle physically lives
type Target struct {
	TileSheet int
	Y         int
}

// Source loads a sheet image by its full asset name
type Source interface {
	Load(name string) (*pixel.Image, error)
}

// Store is a Source that also accepts newly committed sheets
type Store interface {
	Source
	Store(name string, img *pixel.Image)
}

// SheetName returns the asset name of physical sheet n of base
func SheetName(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + strconv.Itoa(n+1)
}

// Resolver splits an atlas's logical space into sheets of MaxHeight rows
type Resolver struct {
	MaxHeight int
	store     Store
	log       logrus.FieldLogger
}

// NewResolver creates a resolver backed by store. A nil store means no
// overflow sheet ever exists yet.
func NewResolver(maxHeight int, store Store, log logrus.FieldLogger) *Resolver {
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{MaxHeight: maxHeight, store: store, log: log}
}

// Resolve returns the physical sheet and in-sheet row of rect
func (r *Resolver) Resolve(rect image.Rectangle) Target {
	return Target{
		TileSheet: rect.Min.Y / r.MaxHeight,
		Y:         rect.Min.Y % r.MaxHeight,
	}
}

// Adjusted returns rect moved into its physical sheet's coordinates
func (r *Resolver) Adjusted(rect image.Rectangle) (Target, image.Rectangle) {
	t := r.Resolve(rect)
	return t, image.Rect(rect.Min.X, t.Y, rect.Max.X, t.Y+rect.Dy())
}

// LoadExisting fetches a previously generated sheet of base
func (r *Resolver) LoadExisting(base string, n int) (*pixel.Image, error) {
	name := SheetName(base, n)
	if r.store == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingOverflowAtlas)
	}
	img, err := r.store.Load(name)
	if err != nil {
		if errors.Is(err, ErrMissingOverflowAtlas) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMissingOverflowAtlas, err)
	}
	return img, nil
}

// Publish records a committed overflow sheet so later passes and the
// host can find it
func (r *Resolver) Publish(base string, n int, img *pixel.Image) {
	if r.store == nil {
		return
	}
	name := SheetName(base, n)
	r.store.Store(name, img)
	r.log.WithFields(logrus.Fields{"sheet": name, "width": img.Width, "height": img.Height}).Debug("published tilesheet")
}
