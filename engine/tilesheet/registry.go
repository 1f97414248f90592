package tilesheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

// Registry holds the overflow sheets generated during this session and
// falls back to another Source (usually a DirSource) for older ones
type Registry struct {
	mu       sync.Mutex
	sheets   map[string]*pixel.Image
	fallback Source
}

// NewRegistry creates an empty registry; fallback may be nil
func NewRegistry(fallback Source) *Registry {
	return &Registry{
		sheets:   make(map[string]*pixel.Image),
		fallback: fallback,
	}
}

// Load returns the sheet stored under name
func (r *Registry) Load(name string) (*pixel.Image, error) {
	r.mu.Lock()
	img, ok := r.sheets[name]
	r.mu.Unlock()
	if ok {
		return img, nil
	}
	if r.fallback != nil {
		return r.fallback.Load(name)
	}
	return nil, fmt.Errorf("%s: %w", name, ErrMissingOverflowAtlas)
}

// Store records a sheet under name, replacing any earlier version
func (r *Registry) Store(name string, img *pixel.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sheets[name] = img
}

// Names lists stored sheets in sorted order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sheets))
	for name := range r.sheets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Reset forgets every sheet generated this session
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sheets)
}

// DirSource reads sheets written by an earlier run from a directory, keeping
// recently decoded ones in a cost-bounded cache
type DirSource struct {
	dir   string
	cache *ristretto.Cache[string, *pixel.Image]
}

// NewDirSource opens dir; maxCost bounds the cache in bytes of pixel data
func NewDirSource(dir string, maxCost int64) (*DirSource, error) {
	if maxCost <= 0 {
		maxCost = 256 << 20
	}
	cache, err := ristretto.NewCache[string, *pixel.Image](&ristretto.Config[string, *pixel.Image]{
		NumCounters: 1000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DirSource{dir: dir, cache: cache}, nil
}

// Path returns the file a sheet name maps to
func (d *DirSource) Path(name string) string {
	return filepath.Join(d.dir, filepath.FromSlash(name)+".png")
}

// Load decodes the named sheet, serving repeats from the cache
func (d *DirSource) Load(name string) (*pixel.Image, error) {
	if img, ok := d.cache.Get(name); ok {
		return img, nil
	}
	img, err := pixel.Load(d.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrMissingOverflowAtlas)
		}
		return nil, err
	}
	d.cache.Set(name, img, int64(img.Width*img.Height*4))
	d.cache.Wait()
	return img, nil
}

// Forget drops a cached sheet, e.g. after it was rewritten on disk
func (d *DirSource) Forget(name string) {
	d.cache.Del(name)
}

// Close stops the cache's background goroutines
func (d *DirSource) Close() {
	d.cache.Close()
}

// Exists reports whether the sheet file is present
func (d *DirSource) Exists(name string) bool {
	_, err := os.Stat(d.Path(name))
	return err == nil
}
