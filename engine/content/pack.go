package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

// ManifestName is the file every content pack directory carries
const ManifestName = "pack.json"

// Manifest is the on-disk description of a pack
type Manifest struct {
	Name     string  `json:"name"`
	Author   string  `json:"author,omitempty"`
	Version  string  `json:"version,omitempty"`
	Entities []Entry `json:"entities"`
}

// Entry is one entity as written in pack.json. Sprite paths are relative
// to the pack directory.
type Entry struct {
	Kind              Kind     `json:"kind"`
	Name              string   `json:"name"`
	ID                *int     `json:"id,omitempty"`
	SpriteIndex       *int     `json:"sprite_index,omitempty"`
	FemaleIndex       *int     `json:"female_index,omitempty"`
	ColorIndex        *int     `json:"color_index,omitempty"`
	Sprite            string   `json:"sprite"`
	ColorSprite       string   `json:"color_sprite,omitempty"`
	FemaleSprite      string   `json:"female_sprite,omitempty"`
	FemaleColorSprite string   `json:"female_color_sprite,omitempty"`
	Extra             []string `json:"extra,omitempty"`
	Colored           bool     `json:"colored,omitempty"`
	Dyeable           bool     `json:"dyeable,omitempty"`
	Fields            []string `json:"fields,omitempty"`
}

// Pack is a loaded content pack with entities in manifest order
type Pack struct {
	Dir      string
	Manifest Manifest
	Entities []*Entity
}

// Loader reads packs from disk
type Loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a loader; log may be nil
func NewLoader(log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{log: log}
}

// LoadManifest parses dir/pack.json
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, ManifestName), err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(dir)
	}
	return &m, nil
}

// SaveManifest writes m as dir/pack.json
func SaveManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), append(data, '\n'), 0644)
}

// Load reads one pack. Entries with an unknown kind are skipped and sprite
// files that fail to load leave the variant empty; both are logged.
func (l *Loader) Load(dir string) (*Pack, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	p := &Pack{Dir: dir, Manifest: *m}
	log := l.log.WithField("pack", m.Name)
	for i, en := range m.Entities {
		if !en.Kind.Valid() {
			log.WithField("entry", i).Warnf("skipping %q: unknown kind %q", en.Name, en.Kind)
			continue
		}
		if en.Name == "" {
			log.WithField("entry", i).Warn("skipping entity without a name")
			continue
		}
		p.Entities = append(p.Entities, l.entity(dir, m.Name, en))
	}
	log.WithField("entities", len(p.Entities)).Info("loaded content pack")
	return p, nil
}

func (l *Loader) entity(dir, pack string, en Entry) *Entity {
	e := &Entity{
		Name:        en.Name,
		Kind:        en.Kind,
		Pack:        pack,
		ID:          deref(en.ID),
		SpriteIndex: deref(en.SpriteIndex),
		FemaleIndex: deref(en.FemaleIndex),
		ColorIndex:  deref(en.ColorIndex),
		IsColored:   en.Colored,
		Dyeable:     en.Dyeable,
		Fields:      en.Fields,
	}
	e.Texture = l.sprite(dir, en.Name, en.Sprite)
	e.TextureColor = l.sprite(dir, en.Name, en.ColorSprite)
	e.TextureFemale = l.sprite(dir, en.Name, en.FemaleSprite)
	e.TextureFemaleColor = l.sprite(dir, en.Name, en.FemaleColorSprite)
	e.HasFemaleVariant = en.FemaleSprite != ""
	if en.Kind == KindBoots && en.ColorSprite != "" {
		e.IsColored = true
	}
	for _, x := range en.Extra {
		e.Extra = append(e.Extra, l.sprite(dir, en.Name, x))
	}
	return e
}

func (l *Loader) sprite(dir, entity, rel string) *pixel.Image {
	if rel == "" {
		return nil
	}
	path := filepath.Join(dir, filepath.FromSlash(rel))
	img, err := pixel.Load(path)
	if err != nil {
		l.log.WithField("entity", entity).WithError(err).Warn("could not load sprite")
		return nil
	}
	return img
}

// LoadAll loads every pack directly under root, in directory name order.
// A broken manifest skips that pack only.
func (l *Loader) LoadAll(root string) ([]*Pack, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, de := range entries {
		if de.IsDir() {
			dirs = append(dirs, de.Name())
		}
	}
	sort.Strings(dirs)

	var packs []*Pack
	for _, name := range dirs {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
			continue
		}
		p, err := l.Load(dir)
		if err != nil {
			l.log.WithField("pack", name).WithError(err).Error("could not load content pack")
			continue
		}
		packs = append(packs, p)
	}
	return packs, nil
}

// Entities flattens packs into one registration-ordered slice
func Entities(packs []*Pack) []*Entity {
	var out []*Entity
	for _, p := range packs {
		out = append(out, p.Entities...)
	}
	return out
}

// OfKind filters entities by kind, keeping order
func OfKind(entities []*Entity, kinds ...Kind) []*Entity {
	var out []*Entity
	for _, e := range entities {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func deref(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
