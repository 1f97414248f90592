package content

// Counter names used by Allocator. Boots share the object id space and take
// their shoe color row from a separate counter.
const (
	CounterShoeColors = "shoe_colors"
)

// CounterFor returns the id counter a kind draws from
func CounterFor(k Kind) string {
	if k == KindBoots {
		return string(KindObject)
	}
	return string(k)
}

// Allocator hands out sequential ids per counter, starting at the reserved
// start index of each atlas
type Allocator struct {
	next map[string]int
}

// NewAllocator creates an allocator from per-counter start indices
func NewAllocator(starts map[string]int) *Allocator {
	a := &Allocator{next: make(map[string]int, len(starts))}
	for k, v := range starts {
		a.next[k] = v
	}
	return a
}

// Take reserves n consecutive ids from counter and returns the first
func (a *Allocator) Take(counter string, n int) int {
	id := a.next[counter]
	a.next[counter] = id + n
	return id
}

// Assign fills every unset (negative) index in registration order. Explicit
// ids are kept and push the counter past them.
func (a *Allocator) Assign(entities []*Entity) {
	for _, e := range entities {
		counter := CounterFor(e.Kind)
		span := e.IDSpan()
		if e.ID < 0 {
			e.ID = a.Take(counter, span)
		} else if end := e.ID + span; end > a.next[counter] {
			a.next[counter] = end
		}
		if e.SpriteIndex < 0 {
			e.SpriteIndex = e.ID
		}
		if e.Kind == KindShirt && e.HasFemaleVariant && e.FemaleIndex < 0 {
			e.FemaleIndex = e.SpriteIndex + 1
		}
		if e.Kind == KindBoots && e.ColorIndex < 0 {
			e.ColorIndex = a.Take(CounterShoeColors, 1)
		}
	}
}
