package scratch

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"github.com/1siamBot/tilepatch/engine/pixel"
)

var (
	// ErrSealed is returned when writing to a buffer that was already shrunk
	ErrSealed = errors.New("scratch buffer is sealed")
	// ErrReleased is returned when touching a buffer after release
	ErrReleased = errors.New("scratch buffer was released")
	// ErrNotShrunk is returned when committing a buffer that was never shrunk
	ErrNotShrunk = errors.New("scratch buffer must be shrunk before commit")
)

// State tracks where a buffer is in its lifecycle
type State uint8

const (
	StateAcquired State = iota
	StateShrunk
	StateCommitted
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateAcquired:
		return "acquired"
	case StateShrunk:
		return "shrunk"
	case StateCommitted:
		return "committed"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Buffer is a rented off-screen canvas for one physical tilesheet
type Buffer struct {
	pool   *Pool
	data   []color.RGBA
	index  int
	width  int
	height int
	state  State
}

// Index is the physical tilesheet this buffer stages
func (b *Buffer) Index() int { return b.index }

// State returns the lifecycle state
func (b *Buffer) State() State { return b.state }

// Size returns the logical dimensions
func (b *Buffer) Size() (int, int) {
	if b.state == StateReleased {
		return 0, 0
	}
	return b.width, b.height
}

// Pixels returns the live pixel region, or nil once released
func (b *Buffer) Pixels() []color.RGBA {
	if b.state == StateReleased {
		return nil
	}
	return b.data[:b.width*b.height]
}

// Writable reports whether patches may still land in this buffer
func (b *Buffer) Writable() error {
	switch b.state {
	case StateAcquired:
		return nil
	case StateReleased:
		return fmt.Errorf("sheet %d: %w", b.index, ErrReleased)
	}
	return fmt.Errorf("sheet %d is %s: %w", b.index, b.state, ErrSealed)
}

// Truncate sets the final logical size and seals the buffer
func (b *Buffer) Truncate(w, h int) error {
	if err := b.Writable(); err != nil {
		return err
	}
	b.width, b.height = w, h
	b.state = StateShrunk
	return nil
}

// Committable reports whether the buffer may be copied into its atlas
func (b *Buffer) Committable() error {
	switch b.state {
	case StateShrunk:
		return nil
	case StateAcquired:
		return fmt.Errorf("sheet %d: %w", b.index, ErrNotShrunk)
	case StateReleased:
		return fmt.Errorf("sheet %d: %w", b.index, ErrReleased)
	}
	return fmt.Errorf("sheet %d already committed: %w", b.index, ErrSealed)
}

// MarkCommitted records that the buffer reached its atlas
func (b *Buffer) MarkCommitted() {
	if b.state == StateShrunk {
		b.state = StateCommitted
	}
}

func (b *Buffer) release() bool {
	if b.state == StateReleased {
		return false
	}
	b.pool.Return(b.data)
	b.data = nil
	b.state = StateReleased
	return true
}

func (b *Buffer) seed(img *pixel.Image) {
	if img == nil {
		return
	}
	w := min(img.Width, b.width)
	h := min(img.Height, b.height)
	for y := 0; y < h; y++ {
		copy(b.data[y*b.width:y*b.width+w], img.Pix[y*img.Width:y*img.Width+w])
	}
}

// Set holds the buffers of one injection pass, keyed by tilesheet index
type Set struct {
	pool     *Pool
	width    int
	height   int
	bufs     map[int]*Buffer
	released bool
}

// NewSet starts a pass whose buffers are width x height
func (p *Pool) NewSet(width, height int) *Set {
	return &Set{
		pool:   p,
		width:  width,
		height: height,
		bufs:   make(map[int]*Buffer),
	}
}

// Acquire returns the pass's buffer for index, renting and seeding a new
// one the first time the index is touched
func (s *Set) Acquire(index int, seed *pixel.Image) (*Buffer, error) {
	if s.released {
		return nil, ErrReleased
	}
	if b, ok := s.bufs[index]; ok {
		return b, nil
	}
	b := &Buffer{
		pool:   s.pool,
		data:   s.pool.Rent(s.width * s.height),
		index:  index,
		width:  s.width,
		height: s.height,
	}
	b.seed(seed)
	s.bufs[index] = b
	return b, nil
}

// Lookup returns an already acquired buffer
func (s *Set) Lookup(index int) (*Buffer, bool) {
	b, ok := s.bufs[index]
	return b, ok
}

// Len is the number of tilesheets touched this pass
func (s *Set) Len() int { return len(s.bufs) }

// Indices lists touched tilesheets in ascending order
func (s *Set) Indices() []int {
	out := make([]int, 0, len(s.bufs))
	for i := range s.bufs {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ReleaseAll returns every buffer to the pool exactly once. It is safe to
// call more than once.
func (s *Set) ReleaseAll() int {
	n := 0
	for _, b := range s.bufs {
		if b.release() {
			n++
		}
	}
	s.released = true
	return n
}
